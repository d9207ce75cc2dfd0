package executor

import (
	"errors"
	"fmt"

	"github.com/spinor-lang/spinor/internal/ir"
)

// Code classifies execution failures.
type Code string

const (
	// CodeBackend: the configured backend is not implemented.
	CodeBackend Code = "UNSUPPORTED_BACKEND"

	// CodeKind: an operator received a value of the wrong kind.
	CodeKind Code = "KIND_MISMATCH"

	// CodeState: an experiment's state does not fit its evolution method.
	CodeState Code = "INVALID_STATE"

	// CodeExec: everything else that fails while evaluating a node.
	CodeExec Code = "EXECUTION"
)

// Error is a structured execution failure. Node is the arena node being
// evaluated when the failure surfaced, or -1 when no single node is at
// fault.
type Error struct {
	Code    Code
	Node    ir.NodeID
	Message string
}

func (e *Error) Error() string {
	if e.Node >= 0 {
		return fmt.Sprintf("execute: %s: node %d: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("execute: %s: %s", e.Code, e.Message)
}

// CodeOf extracts the code from an execution error, or "" for foreign errors.
func CodeOf(err error) Code {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func execf(node ir.NodeID, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Node: node, Message: fmt.Sprintf(format, args...)}
}
