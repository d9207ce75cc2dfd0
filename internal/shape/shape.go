package shape

import "fmt"

// Kind discriminates the three shape variants.
type Kind string

const (
	KindScalar Kind = "scalar"
	KindVector Kind = "vector"
	KindMatrix Kind = "matrix"
)

// Shape is the shape of a named quantity or expression: a scalar, a vector of
// a known length, or a matrix of known rectangular dimensions.
type Shape struct {
	Kind Kind `json:"kind"`
	Rows int  `json:"rows,omitempty"` // matrix rows, or vector length
	Cols int  `json:"cols,omitempty"`
}

// Scalar returns the scalar shape.
func Scalar() Shape { return Shape{Kind: KindScalar} }

// Vector returns the shape of a length-n vector.
func Vector(n int) Shape { return Shape{Kind: KindVector, Rows: n} }

// Matrix returns the shape of an r-by-c matrix.
func Matrix(r, c int) Shape { return Shape{Kind: KindMatrix, Rows: r, Cols: c} }

// IsSquareMatrix reports whether s is an n-by-n matrix.
func (s Shape) IsSquareMatrix() bool {
	return s.Kind == KindMatrix && s.Rows == s.Cols
}

func (s Shape) String() string {
	switch s.Kind {
	case KindScalar:
		return "scalar"
	case KindVector:
		return fmt.Sprintf("vector(%d)", s.Rows)
	case KindMatrix:
		return fmt.Sprintf("matrix(%dx%d)", s.Rows, s.Cols)
	default:
		return string(s.Kind)
	}
}
