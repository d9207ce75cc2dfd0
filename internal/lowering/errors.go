package lowering

import (
	"errors"
	"fmt"
)

// Code classifies lowering failures.
type Code string

const (
	// CodeInternal: an invariant the earlier passes should have established
	// does not hold. Always a bug, never a user error.
	CodeInternal Code = "INTERNAL"

	// CodeUnsupported: the construct is valid but has no IR lowering.
	CodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured lowering failure.
type Error struct {
	Code    Code
	Context string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lowering: %s: %s: %s", e.Code, e.Context, e.Message)
}

// CodeOf extracts the code from a lowering error, or "" for foreign errors.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func internalf(context, format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Context: context, Message: fmt.Sprintf(format, args...)}
}

func unsupportedf(context, format string, args ...any) *Error {
	return &Error{Code: CodeUnsupported, Context: context, Message: fmt.Sprintf(format, args...)}
}
