// Package linalg provides the dense complex linear-algebra kernels the engine
// executes: conjugate transpose, trace, commutator, tensor product, matrix
// exponential, unitary application, expectation values, and projective
// measurement probabilities, plus the Hermitian eigensolver backing the matrix
// exponential and the validator's PSD check.
//
// All kernels are pure functions over value types; nothing in this package
// holds shared state. Matrices are small and dense (the engine targets Hilbert
// dimensions of a handful), stored row-major in a flat []complex128.
package linalg
