package validator

import (
	"errors"
	"fmt"
)

// Code categorizes validation failures.
type Code string

const (
	// CodeNotHermitian: max |M[i,j] - conj(M[j,i])| exceeded tolerance.
	CodeNotHermitian Code = "NOT_HERMITIAN"

	// CodeNotPSD: an eigenvalue fell below -tolerance.
	CodeNotPSD Code = "NOT_PSD"

	// CodeTrace: trace differs from the required value beyond tolerance.
	CodeTrace Code = "TRACE_VIOLATION"

	// CodeNotNormalized: ket squared norm differs from 1 beyond tolerance.
	CodeNotNormalized Code = "KET_NOT_NORMALIZED"

	// CodeNotIdempotent: a projector failed the P² = P check.
	CodeNotIdempotent Code = "NOT_IDEMPOTENT"

	// CodeIncomplete: a projector/effect set does not sum to identity.
	CodeIncomplete Code = "INCOMPLETE_SET"

	// CodeUnevaluable: an expression cannot be evaluated to a concrete
	// value at validation time.
	CodeUnevaluable Code = "UNEVALUABLE"

	// CodeDecomposition: the eigensolver backing a check failed.
	CodeDecomposition Code = "DECOMPOSITION_FAILED"
)

// Error is a quantum-constraint violation. Deviation carries the measured
// numeric quantity behind the rejection: the Hermiticity deviation, the
// minimum eigenvalue, the actual trace or squared norm, depending on Code.
type Error struct {
	Code      Code
	Name      string // offending declaration
	Message   string
	Deviation float64
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (declaration=%s, measured=%.3e)", e.Code, e.Message, e.Name, e.Deviation)
	}
	return fmt.Sprintf("%s: %s (measured=%.3e)", e.Code, e.Message, e.Deviation)
}

// CodeOf extracts the validation code from err, or "" when err is not a
// validation error.
func CodeOf(err error) Code {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
