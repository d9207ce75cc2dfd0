package optimizer

import (
	"github.com/spinor-lang/spinor/internal/ast"
	"github.com/spinor-lang/spinor/internal/ir"
)

// Optimizer folds constants and applies algebraic rewrites.
type Optimizer struct {
	constants map[string]float64
}

func New() *Optimizer {
	return &Optimizer{constants: map[string]float64{}}
}

// Optimize returns a rewritten copy of the program. Constant declarations are
// collected in source order, so a constant is only folded into expressions
// that appear after it.
func (o *Optimizer) Optimize(prog *ast.Program) *ast.Program {
	out := &ast.Program{Statements: make([]ast.Statement, len(prog.Statements))}
	for i := range prog.Statements {
		stmt := prog.Statements[i]
		switch stmt.Kind {
		case ast.StmtConst:
			o.constants[ir.CanonicalName(stmt.Name)] = stmt.Value
		case ast.StmtMatrix:
			stmt.Matrix = o.rewriteMatrixLit(stmt.Matrix)
		case ast.StmtHamiltonian:
			stmt.Expr = o.rewrite(stmt.Expr)
		case ast.StmtMeasurement:
			stmt.Measurement = o.rewriteMeasurement(stmt.Measurement)
		case ast.StmtExperiment:
			stmt.Experiment = o.rewriteExperiment(stmt.Experiment)
		}
		out.Statements[i] = stmt
	}
	return out
}

func (o *Optimizer) rewriteMeasurement(spec *ast.MeasurementSpec) *ast.MeasurementSpec {
	out := *spec
	out.Projectors = o.rewriteMatrixLits(spec.Projectors)
	out.Effects = o.rewriteMatrixLits(spec.Effects)
	if spec.Observable != nil {
		out.Observable = o.rewrite(spec.Observable)
	}
	return &out
}

func (o *Optimizer) rewriteExperiment(body *ast.ExperimentBody) *ast.ExperimentBody {
	out := *body
	if body.Init != nil {
		init := *body.Init
		if init.Ket != nil {
			init.Ket = o.rewriteVectorLit(init.Ket)
		}
		if init.Rho != nil {
			init.Rho = o.rewriteMatrixLit(init.Rho)
		}
		out.Init = &init
	}
	if body.Evolution != nil {
		ev := *body.Evolution
		ev.Lindblad = make([]ast.LindbladTerm, len(body.Evolution.Lindblad))
		for i, term := range body.Evolution.Lindblad {
			if term.Rate != nil {
				term.Rate = o.rewrite(term.Rate)
			}
			ev.Lindblad[i] = term
		}
		out.Evolution = &ev
	}
	return &out
}

func (o *Optimizer) rewriteMatrixLits(lits []*ast.MatrixLit) []*ast.MatrixLit {
	if lits == nil {
		return nil
	}
	out := make([]*ast.MatrixLit, len(lits))
	for i, lit := range lits {
		out[i] = o.rewriteMatrixLit(lit)
	}
	return out
}

func (o *Optimizer) rewriteMatrixLit(lit *ast.MatrixLit) *ast.MatrixLit {
	out := &ast.MatrixLit{Rows: make([][]*ast.Expr, len(lit.Rows))}
	for i, row := range lit.Rows {
		out.Rows[i] = make([]*ast.Expr, len(row))
		for j, el := range row {
			out.Rows[i][j] = o.rewrite(el)
		}
	}
	return out
}

func (o *Optimizer) rewriteVectorLit(lit *ast.VectorLit) *ast.VectorLit {
	out := &ast.VectorLit{Elements: make([]*ast.Expr, len(lit.Elements))}
	for i, el := range lit.Elements {
		out.Elements[i] = o.rewrite(el)
	}
	return out
}

// rewrite rebuilds an expression bottom-up, folding scalar arithmetic and
// applying identity rewrites as it goes.
func (o *Optimizer) rewrite(e *ast.Expr) *ast.Expr {
	switch e.Kind {
	case ast.ExprNumber, ast.ExprComplex:
		return e

	case ast.ExprIdent:
		if c, ok := o.constants[ir.CanonicalName(e.Name)]; ok {
			return ast.Num(c)
		}
		return e

	case ast.ExprMatrix:
		return &ast.Expr{Kind: ast.ExprMatrix, Matrix: o.rewriteMatrixLit(e.Matrix)}

	case ast.ExprVector:
		return &ast.Expr{Kind: ast.ExprVector, Vector: o.rewriteVectorLit(e.Vector)}

	case ast.ExprAdd, ast.ExprSub, ast.ExprMul, ast.ExprDiv:
		l := o.rewrite(e.Operands[0])
		r := o.rewrite(e.Operands[1])
		if folded, ok := foldBinary(e.Kind, l, r); ok {
			return folded
		}
		if simplified, ok := simplifyBinary(e.Kind, l, r); ok {
			return simplified
		}
		return &ast.Expr{Kind: e.Kind, Operands: []*ast.Expr{l, r}}

	case ast.ExprDagger:
		inner := o.rewrite(e.Operands[0])
		if inner.Kind == ast.ExprDagger {
			return inner.Operands[0]
		}
		if z, ok := scalarOf(inner); ok {
			return scalarExpr(complex(real(z), -imag(z)))
		}
		return &ast.Expr{Kind: ast.ExprDagger, Operands: []*ast.Expr{inner}}

	case ast.ExprTrace, ast.ExprExpm:
		return &ast.Expr{Kind: e.Kind, Operands: []*ast.Expr{o.rewrite(e.Operands[0])}}

	case ast.ExprTensor, ast.ExprCommutator:
		return &ast.Expr{Kind: e.Kind,
			Operands: []*ast.Expr{o.rewrite(e.Operands[0]), o.rewrite(e.Operands[1])}}

	default:
		return e
	}
}

// foldBinary computes a binary op when both operands are scalar literals.
func foldBinary(kind ast.ExprKind, l, r *ast.Expr) (*ast.Expr, bool) {
	a, ok := scalarOf(l)
	if !ok {
		return nil, false
	}
	b, ok := scalarOf(r)
	if !ok {
		return nil, false
	}
	switch kind {
	case ast.ExprAdd:
		return scalarExpr(a + b), true
	case ast.ExprSub:
		return scalarExpr(a - b), true
	case ast.ExprMul:
		return scalarExpr(a * b), true
	case ast.ExprDiv:
		if b == 0 {
			return nil, false // leave for the evaluator to report
		}
		return scalarExpr(a / b), true
	}
	return nil, false
}

// simplifyBinary applies shape-preserving identities. Zero annihilation only
// fires when the surviving value is also a scalar literal, since 0 times a
// matrix is a zero matrix, not the scalar zero.
func simplifyBinary(kind ast.ExprKind, l, r *ast.Expr) (*ast.Expr, bool) {
	switch kind {
	case ast.ExprAdd:
		if isZero(l) {
			return r, true
		}
		if isZero(r) {
			return l, true
		}
	case ast.ExprSub:
		if isZero(r) {
			return l, true
		}
	case ast.ExprMul:
		if isOne(l) {
			return r, true
		}
		if isOne(r) {
			return l, true
		}
	case ast.ExprDiv:
		if isOne(r) {
			return l, true
		}
	}
	return nil, false
}

func scalarOf(e *ast.Expr) (complex128, bool) {
	if e.Kind == ast.ExprNumber || e.Kind == ast.ExprComplex {
		return complex(e.Re, e.Im), true
	}
	return 0, false
}

func scalarExpr(z complex128) *ast.Expr {
	if imag(z) == 0 {
		return ast.Num(real(z))
	}
	return ast.Cplx(real(z), imag(z))
}

func isZero(e *ast.Expr) bool {
	z, ok := scalarOf(e)
	return ok && z == 0
}

func isOne(e *ast.Expr) bool {
	z, ok := scalarOf(e)
	return ok && z == 1
}
