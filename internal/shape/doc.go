// Package shape assigns a scalar/vector/matrix shape to every named quantity
// in a program and checks shape compatibility at every operation site.
//
// The checker runs before the quantum validator: downstream stages rely on its
// guarantee that every matrix they touch has a known rectangular shape and
// every product, sum, and tensor site has compatible operands. Violations
// carry both operand shapes.
package shape
