package ast

// Constructor helpers. The CUE front-end and package tests build expression
// trees with these instead of spelling out struct literals.

// Num builds a real number literal.
func Num(x float64) *Expr { return &Expr{Kind: ExprNumber, Re: x} }

// Cplx builds a complex number literal.
func Cplx(re, im float64) *Expr { return &Expr{Kind: ExprComplex, Re: re, Im: im} }

// Ident builds an identifier reference.
func Ident(name string) *Expr { return &Expr{Kind: ExprIdent, Name: name} }

// Add builds a + b.
func Add(a, b *Expr) *Expr { return binary(ExprAdd, a, b) }

// Sub builds a - b.
func Sub(a, b *Expr) *Expr { return binary(ExprSub, a, b) }

// Mul builds a * b.
func Mul(a, b *Expr) *Expr { return binary(ExprMul, a, b) }

// Div builds a / b.
func Div(a, b *Expr) *Expr { return binary(ExprDiv, a, b) }

// Dagger builds the conjugate transpose of a.
func Dagger(a *Expr) *Expr { return unary(ExprDagger, a) }

// Trace builds tr(a).
func Trace(a *Expr) *Expr { return unary(ExprTrace, a) }

// Tensor builds the tensor product a ⊗ b.
func Tensor(a, b *Expr) *Expr { return binary(ExprTensor, a, b) }

// Commutator builds [a, b].
func Commutator(a, b *Expr) *Expr { return binary(ExprCommutator, a, b) }

// Expm builds the matrix exponential of a.
func Expm(a *Expr) *Expr { return unary(ExprExpm, a) }

// MatrixExpr wraps a matrix literal as an expression.
func MatrixExpr(m *MatrixLit) *Expr { return &Expr{Kind: ExprMatrix, Matrix: m} }

// VectorExpr wraps a vector literal as an expression.
func VectorExpr(v *VectorLit) *Expr { return &Expr{Kind: ExprVector, Vector: v} }

// NumMatrix builds a matrix literal from rows of plain numbers.
func NumMatrix(rows ...[]float64) *MatrixLit {
	m := &MatrixLit{Rows: make([][]*Expr, len(rows))}
	for i, row := range rows {
		m.Rows[i] = make([]*Expr, len(row))
		for j, x := range row {
			m.Rows[i][j] = Num(x)
		}
	}
	return m
}

// NumVector builds a vector literal from plain numbers.
func NumVector(elems ...float64) *VectorLit {
	v := &VectorLit{Elements: make([]*Expr, len(elems))}
	for i, x := range elems {
		v.Elements[i] = Num(x)
	}
	return v
}

func unary(kind ExprKind, a *Expr) *Expr {
	return &Expr{Kind: kind, Operands: []*Expr{a}}
}

func binary(kind ExprKind, a, b *Expr) *Expr {
	return &Expr{Kind: kind, Operands: []*Expr{a, b}}
}
