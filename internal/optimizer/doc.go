// Package optimizer rewrites programs before lowering: constant folding over
// scalar arithmetic and algebraic simplifications that cut nodes out of the
// evaluation graph. Passes are pure; the input program is never mutated.
package optimizer
