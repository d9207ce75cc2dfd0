package linalg

import (
	"errors"
	"fmt"
)

// DimensionError reports incompatible operand shapes. Both shapes are carried
// so callers can surface them in diagnostics.
type DimensionError struct {
	Expected string
	Actual   string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// DecompositionError reports a numerical factorization that failed or an
// operator outside the domain a factorization-based kernel supports.
type DecompositionError struct {
	Op     string
	Reason string
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// IsDimensionError reports whether err is (or wraps) a DimensionError.
func IsDimensionError(err error) bool {
	var de *DimensionError
	return errors.As(err, &de)
}
