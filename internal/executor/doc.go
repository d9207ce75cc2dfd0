// Package executor evaluates IR programs. Nodes evaluate recursively with
// one memoized Value per node, experiments evolve their initial state over
// the time grid, and scheduled measurements read off the stored trajectory.
// Only the dense CPU backend is implemented; sparse and GPU configurations
// are rejected up front.
package executor
