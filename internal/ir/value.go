package ir

import "github.com/spinor-lang/spinor/internal/linalg"

// ValueKind tags the result kind of an evaluated node.
type ValueKind string

const (
	KindScalar ValueKind = "scalar"
	KindVector ValueKind = "vector"
	KindMatrix ValueKind = "matrix"
)

// Value is the sealed sum of the three result kinds a node can evaluate to.
// Only ScalarValue, VectorValue, and MatrixValue implement it. The executor
// caches one Value per NodeID; call sites switch on the concrete type and
// report a kind mismatch when an operator receives the wrong variant.
type Value interface {
	Kind() ValueKind
	value() // sealed
}

// ScalarValue is a complex scalar result.
type ScalarValue complex128

func (ScalarValue) Kind() ValueKind { return KindScalar }
func (ScalarValue) value()          {}

// VectorValue is a ket result.
type VectorValue linalg.Vector

func (VectorValue) Kind() ValueKind { return KindVector }
func (VectorValue) value()          {}

// MatrixValue is a matrix result.
type MatrixValue linalg.Matrix

func (MatrixValue) Kind() ValueKind { return KindMatrix }
func (MatrixValue) value()          {}

// Mat unwraps to the linalg type.
func (v MatrixValue) Mat() linalg.Matrix { return linalg.Matrix(v) }

// Vec unwraps to the linalg type.
func (v VectorValue) Vec() linalg.Vector { return linalg.Vector(v) }
