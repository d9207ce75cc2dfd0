// Package lowering converts a validated program into the flat IR arena the
// executor consumes. Declarations lower in source order; every named
// declaration maps to the node that computes it, and later references reuse
// that node rather than lowering again.
package lowering
