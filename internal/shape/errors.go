package shape

import "fmt"

// Shape error codes (S100-S119).
const (
	ErrUndefinedName    = "S100" // identifier has no declared shape
	ErrIncompatible     = "S101" // operands are shape-incompatible
	ErrNotSquare        = "S102" // operation requires a square matrix
	ErrRaggedLiteral    = "S103" // matrix literal rows differ in length
	ErrEmptyLiteral     = "S104" // matrix or vector literal has no elements
	ErrUnsupportedShape = "S105" // operand kind not supported by the operator
	ErrMissingInit      = "S106" // experiment lacks an initial state
	ErrUnknownRef       = "S107" // evolution/measurement references undeclared name
)

// Error is a shape-check failure. Left and Right carry both operand shapes at
// a binary site; unary failures fill only Left.
type Error struct {
	Code    string
	Context string // declaration or operator the failure occurred in
	Message string
	Left    *Shape
	Right   *Shape
}

func (e *Error) Error() string {
	switch {
	case e.Left != nil && e.Right != nil:
		return fmt.Sprintf("[%s] %s: %s (%s vs %s)", e.Code, e.Context, e.Message, e.Left, e.Right)
	case e.Left != nil:
		return fmt.Sprintf("[%s] %s: %s (%s)", e.Code, e.Context, e.Message, e.Left)
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Context, e.Message)
	}
}

func errf(code, context, format string, args ...any) *Error {
	return &Error{Code: code, Context: context, Message: fmt.Sprintf(format, args...)}
}

func errShapes(code, context, message string, left, right Shape) *Error {
	return &Error{Code: code, Context: context, Message: message, Left: &left, Right: &right}
}
