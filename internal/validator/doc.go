// Package validator enforces quantum-mechanical well-formedness before any
// numeric evolution is attempted: Hamiltonians must be Hermitian, density
// matrices Hermitian, positive semi-definite, and trace one, kets normalized,
// projector sets idempotent and complete, and POVM effects positive and
// complete.
//
// All checks compare against a floating-point tolerance, never exact
// equality. Validation is fail-fast in source order: a program either
// validates completely or is rejected with the first violation found, and
// every rejection names the offending declaration and the measured numeric
// deviation.
//
// As a side effect the validator accumulates a symbol table mapping declared
// names to concrete matrices, so later declarations can reference earlier
// ones by identifier.
package validator
