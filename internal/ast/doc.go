// Package ast defines the typed abstract syntax tree for the quantum
// experiment DSL.
//
// This package contains type definitions and small structural helpers only.
// The front-end (internal/compiler) produces these values, the shape checker
// (internal/shape) and quantum validator (internal/validator) consume them,
// and lowering (internal/lowering) translates them into IR.
//
// Statements and expressions are flat, kind-tagged structs rather than
// interface hierarchies so a whole program is plain structured data: it can be
// marshaled field-for-field with encoding/json and inspected with a simple
// switch on the kind tag.
package ast
