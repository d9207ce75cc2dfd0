// Package store provides SQLite-backed durable storage for lowered programs
// and execution runs.
//
// Programs are content-addressed: the primary key is the SHA-256 hash of the
// program's canonical JSON form (internal/ir/hash.go), so saving the same
// program twice is a no-op and a hash always denotes exactly one arena.
// Runs are keyed by a random UUID and reference the program they executed,
// keeping the backend configuration and the full measurement results as JSON.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
