package linalg

import (
	"encoding/json"
	"fmt"
)

// Complex is a JSON-serializable complex number. complex128 itself has no
// encoding/json representation, so IR leaves and persisted programs carry
// these pairs instead.
type Complex struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// C converts to the native complex type.
func (c Complex) C() complex128 { return complex(c.Re, c.Im) }

// FromComplex converts a native complex value.
func FromComplex(z complex128) Complex { return Complex{Re: real(z), Im: imag(z)} }

// Matrix is a dense complex matrix, row-major.
type Matrix struct {
	Rows int
	Cols int
	Data []complex128
}

// Vector is a dense complex vector.
type Vector []complex128

// NewMatrix allocates a zero matrix of the given dimensions.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
}

// MatrixFromRows builds a matrix from row slices. All rows must have the same
// length as the first.
func MatrixFromRows(rows [][]complex128) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, fmt.Errorf("matrix literal has no rows")
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, fmt.Errorf("inconsistent row length: row 0 has %d elements, row %d has %d", cols, i, len(row))
		}
		copy(m.Data[i*cols:], row)
	}
	return m, nil
}

// Identity returns the n-by-n identity matrix.
func Identity(n int) Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.Data[i*n+i] = 1
	}
	return m
}

// At returns element (i, j).
func (m Matrix) At(i, j int) complex128 { return m.Data[i*m.Cols+j] }

// Set assigns element (i, j).
func (m Matrix) Set(i, j int, v complex128) { m.Data[i*m.Cols+j] = v }

// IsSquare reports whether the matrix is square.
func (m Matrix) IsSquare() bool { return m.Rows == m.Cols }

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	out := Matrix{Rows: m.Rows, Cols: m.Cols, Data: make([]complex128, len(m.Data))}
	copy(out.Data, m.Data)
	return out
}

// Clone returns a deep copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Norm2 returns the squared Euclidean norm Σ|v_i|².
func (v Vector) Norm2() float64 {
	var sum float64
	for _, x := range v {
		sum += real(x)*real(x) + imag(x)*imag(x)
	}
	return sum
}

// Add returns m + other.
func (m Matrix) Add(other Matrix) (Matrix, error) {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return Matrix{}, shapeMismatch(m, other)
	}
	out := NewMatrix(m.Rows, m.Cols)
	for i := range m.Data {
		out.Data[i] = m.Data[i] + other.Data[i]
	}
	return out, nil
}

// Sub returns m - other.
func (m Matrix) Sub(other Matrix) (Matrix, error) {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return Matrix{}, shapeMismatch(m, other)
	}
	out := NewMatrix(m.Rows, m.Cols)
	for i := range m.Data {
		out.Data[i] = m.Data[i] - other.Data[i]
	}
	return out, nil
}

// Mul returns the matrix product m·other.
func (m Matrix) Mul(other Matrix) (Matrix, error) {
	if m.Cols != other.Rows {
		return Matrix{}, &DimensionError{
			Expected: fmt.Sprintf("inner dimension %d", m.Cols),
			Actual:   fmt.Sprintf("%dx%d", other.Rows, other.Cols),
		}
	}
	out := NewMatrix(m.Rows, other.Cols)
	for i := 0; i < m.Rows; i++ {
		for k := 0; k < m.Cols; k++ {
			a := m.At(i, k)
			if a == 0 {
				continue
			}
			for j := 0; j < other.Cols; j++ {
				out.Data[i*out.Cols+j] += a * other.At(k, j)
			}
		}
	}
	return out, nil
}

// Scale returns s·m.
func (m Matrix) Scale(s complex128) Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	for i := range m.Data {
		out.Data[i] = s * m.Data[i]
	}
	return out
}

// MulVec returns the matrix-vector product m·v.
func (m Matrix) MulVec(v Vector) (Vector, error) {
	if m.Cols != len(v) {
		return nil, &DimensionError{
			Expected: fmt.Sprintf("vector of length %d", m.Cols),
			Actual:   fmt.Sprintf("length %d", len(v)),
		}
	}
	out := make(Vector, m.Rows)
	for i := 0; i < m.Rows; i++ {
		var sum complex128
		for j := 0; j < m.Cols; j++ {
			sum += m.At(i, j) * v[j]
		}
		out[i] = sum
	}
	return out, nil
}

// MaxAbs returns the largest element magnitude, 0 for an empty matrix.
func (m Matrix) MaxAbs() float64 {
	var max float64
	for _, x := range m.Data {
		if a := cabs(x); a > max {
			max = a
		}
	}
	return max
}

type matrixJSON struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []Complex `json:"data"`
}

// MarshalJSON encodes the matrix as {rows, cols, data: [{re, im}, ...]}.
func (m Matrix) MarshalJSON() ([]byte, error) {
	enc := matrixJSON{Rows: m.Rows, Cols: m.Cols, Data: make([]Complex, len(m.Data))}
	for i, z := range m.Data {
		enc.Data[i] = FromComplex(z)
	}
	return json.Marshal(enc)
}

// UnmarshalJSON decodes the representation written by MarshalJSON.
func (m *Matrix) UnmarshalJSON(b []byte) error {
	var enc matrixJSON
	if err := json.Unmarshal(b, &enc); err != nil {
		return err
	}
	if len(enc.Data) != enc.Rows*enc.Cols {
		return fmt.Errorf("matrix payload has %d elements, want %d", len(enc.Data), enc.Rows*enc.Cols)
	}
	m.Rows, m.Cols = enc.Rows, enc.Cols
	m.Data = make([]complex128, len(enc.Data))
	for i, z := range enc.Data {
		m.Data[i] = z.C()
	}
	return nil
}

// MarshalJSON encodes the vector as [{re, im}, ...].
func (v Vector) MarshalJSON() ([]byte, error) {
	enc := make([]Complex, len(v))
	for i, z := range v {
		enc[i] = FromComplex(z)
	}
	return json.Marshal(enc)
}

// UnmarshalJSON decodes the representation written by MarshalJSON.
func (v *Vector) UnmarshalJSON(b []byte) error {
	var enc []Complex
	if err := json.Unmarshal(b, &enc); err != nil {
		return err
	}
	out := make(Vector, len(enc))
	for i, z := range enc {
		out[i] = z.C()
	}
	*v = out
	return nil
}

func shapeMismatch(a, b Matrix) error {
	return &DimensionError{
		Expected: fmt.Sprintf("%dx%d", a.Rows, a.Cols),
		Actual:   fmt.Sprintf("%dx%d", b.Rows, b.Cols),
	}
}
