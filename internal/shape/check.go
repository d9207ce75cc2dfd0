package shape

import (
	"github.com/spinor-lang/spinor/internal/ast"
	"github.com/spinor-lang/spinor/internal/ir"
)

// TypedProgram is the AST plus the shape assigned to every declared name.
type TypedProgram struct {
	Program *ast.Program
	Shapes  map[string]Shape
}

// Checker infers and verifies shapes across a program.
type Checker struct {
	shapes       map[string]Shape
	measurements map[string]bool
}

// NewChecker returns a checker seeded with the predefined 2x2 operator basis
// (sigma_x, sigma_y, sigma_z, identity).
func NewChecker() *Checker {
	return &Checker{
		shapes: map[string]Shape{
			"sigma_x":  Matrix(2, 2),
			"sigma_y":  Matrix(2, 2),
			"sigma_z":  Matrix(2, 2),
			"identity": Matrix(2, 2),
		},
		measurements: map[string]bool{},
	}
}

// Check walks the program in source order and fails on the first shape
// violation.
func (c *Checker) Check(prog *ast.Program) (*TypedProgram, error) {
	for i := range prog.Statements {
		if err := c.checkStatement(&prog.Statements[i]); err != nil {
			return nil, err
		}
	}
	shapes := make(map[string]Shape, len(c.shapes))
	for k, v := range c.shapes {
		shapes[k] = v
	}
	return &TypedProgram{Program: prog, Shapes: shapes}, nil
}

func (c *Checker) checkStatement(stmt *ast.Statement) error {
	name := ir.CanonicalName(stmt.Name)
	switch stmt.Kind {
	case ast.StmtConst, ast.StmtSymbol:
		c.shapes[name] = Scalar()
		return nil
	case ast.StmtMatrix:
		s, err := c.matrixLiteralShape(name, stmt.Matrix)
		if err != nil {
			return err
		}
		c.shapes[name] = s
		return nil
	case ast.StmtHamiltonian:
		s, err := c.inferExpr(name, stmt.Expr)
		if err != nil {
			return err
		}
		if !s.IsSquareMatrix() {
			return &Error{Code: ErrNotSquare, Context: name,
				Message: "Hamiltonian must be a square matrix", Left: &s}
		}
		c.shapes[name] = s
		return nil
	case ast.StmtMeasurement:
		return c.checkMeasurement(name, stmt.Measurement)
	case ast.StmtExperiment:
		return c.checkExperiment(name, stmt.Experiment)
	default:
		return nil
	}
}

func (c *Checker) checkMeasurement(name string, spec *ast.MeasurementSpec) error {
	operators := spec.Projectors
	if spec.Kind == ast.MeasurePOVM {
		operators = spec.Effects
	}
	if spec.Kind == ast.MeasureObservable {
		s, err := c.inferExpr(name, spec.Observable)
		if err != nil {
			return err
		}
		if !s.IsSquareMatrix() {
			return &Error{Code: ErrNotSquare, Context: name,
				Message: "observable must be a square matrix", Left: &s}
		}
		c.measurements[name] = true
		return nil
	}

	var dim *Shape
	for _, lit := range operators {
		s, err := c.matrixLiteralShape(name, lit)
		if err != nil {
			return err
		}
		if !s.IsSquareMatrix() {
			return &Error{Code: ErrNotSquare, Context: name,
				Message: "measurement operators must be square", Left: &s}
		}
		if dim == nil {
			dim = &s
		} else if *dim != s {
			return errShapes(ErrIncompatible, name, "measurement operators differ in dimension", *dim, s)
		}
	}
	c.measurements[name] = true
	return nil
}

func (c *Checker) checkExperiment(name string, body *ast.ExperimentBody) error {
	if body.Init == nil {
		return errf(ErrMissingInit, name, "experiment must declare an initial state")
	}
	var stateDim int
	switch {
	case body.Init.Ket != nil:
		n := len(body.Init.Ket.Elements)
		if n == 0 {
			return errf(ErrEmptyLiteral, name, "initial ket has no elements")
		}
		for _, e := range body.Init.Ket.Elements {
			if _, err := c.inferExpr(name, e); err != nil {
				return err
			}
		}
		stateDim = n
	case body.Init.Rho != nil:
		s, err := c.matrixLiteralShape(name, body.Init.Rho)
		if err != nil {
			return err
		}
		if !s.IsSquareMatrix() {
			return &Error{Code: ErrNotSquare, Context: name,
				Message: "initial density matrix must be square", Left: &s}
		}
		stateDim = s.Rows
	default:
		return errf(ErrMissingInit, name, "initial state must be a ket or a density matrix")
	}

	if ev := body.Evolution; ev != nil {
		hname := ir.CanonicalName(ev.Hamiltonian)
		hs, ok := c.shapes[hname]
		if !ok {
			return errf(ErrUnknownRef, name, "evolution references undeclared Hamiltonian %q", ev.Hamiltonian)
		}
		if !hs.IsSquareMatrix() || hs.Rows != stateDim {
			return errShapes(ErrIncompatible, name,
				"Hamiltonian dimension does not match the initial state", hs, dimOf(body.Init, stateDim))
		}
		for _, term := range ev.Lindblad {
			oname := ir.CanonicalName(term.Operator)
			os, ok := c.shapes[oname]
			if !ok {
				return errf(ErrUnknownRef, name, "evolution references undeclared operator %q", term.Operator)
			}
			if !os.IsSquareMatrix() || os.Rows != stateDim {
				return errShapes(ErrIncompatible, name,
					"Lindblad operator dimension does not match the initial state", os, dimOf(body.Init, stateDim))
			}
			if _, err := c.inferExpr(name, term.Rate); err != nil {
				return err
			}
		}
	}

	for _, me := range body.Measurements {
		if !c.measurements[ir.CanonicalName(me.Measurement)] {
			return errf(ErrUnknownRef, name, "experiment references undeclared measurement %q", me.Measurement)
		}
	}
	return nil
}

func dimOf(init *ast.StateSpec, n int) Shape {
	if init.Ket != nil {
		return Vector(n)
	}
	return Matrix(n, n)
}

func (c *Checker) matrixLiteralShape(context string, lit *ast.MatrixLit) (Shape, error) {
	if lit == nil || len(lit.Rows) == 0 {
		return Shape{}, errf(ErrEmptyLiteral, context, "matrix literal has no rows")
	}
	cols := len(lit.Rows[0])
	for i, row := range lit.Rows {
		if len(row) != cols {
			return Shape{}, errf(ErrRaggedLiteral, context,
				"row 0 has %d elements, row %d has %d", cols, i, len(row))
		}
		for _, e := range row {
			if _, err := c.inferExpr(context, e); err != nil {
				return Shape{}, err
			}
		}
	}
	return Matrix(len(lit.Rows), cols), nil
}

// inferExpr infers the shape of an expression, verifying compatibility at
// every binary site along the way.
func (c *Checker) inferExpr(context string, e *ast.Expr) (Shape, error) {
	switch e.Kind {
	case ast.ExprNumber, ast.ExprComplex:
		return Scalar(), nil
	case ast.ExprIdent:
		s, ok := c.shapes[ir.CanonicalName(e.Name)]
		if !ok {
			return Shape{}, errf(ErrUndefinedName, context, "undefined identifier %q", e.Name)
		}
		return s, nil
	case ast.ExprMatrix:
		return c.matrixLiteralShape(context, e.Matrix)
	case ast.ExprVector:
		if e.Vector == nil || len(e.Vector.Elements) == 0 {
			return Shape{}, errf(ErrEmptyLiteral, context, "vector literal has no elements")
		}
		for _, el := range e.Vector.Elements {
			if _, err := c.inferExpr(context, el); err != nil {
				return Shape{}, err
			}
		}
		return Vector(len(e.Vector.Elements)), nil
	case ast.ExprAdd, ast.ExprSub:
		return c.inferAddSub(context, e)
	case ast.ExprMul:
		return c.inferMul(context, e)
	case ast.ExprDiv:
		return c.inferDiv(context, e)
	case ast.ExprDagger:
		return c.inferDagger(context, e)
	case ast.ExprTrace:
		return c.inferTrace(context, e)
	case ast.ExprTensor:
		return c.inferTensor(context, e)
	case ast.ExprCommutator:
		return c.inferCommutator(context, e)
	case ast.ExprExpm:
		return c.inferExpm(context, e)
	default:
		return Shape{}, errf(ErrUnsupportedShape, context, "cannot infer shape of %q expression", e.Kind)
	}
}

func (c *Checker) inferAddSub(context string, e *ast.Expr) (Shape, error) {
	l, err := c.inferExpr(context, e.Operands[0])
	if err != nil {
		return Shape{}, err
	}
	r, err := c.inferExpr(context, e.Operands[1])
	if err != nil {
		return Shape{}, err
	}
	if l != r {
		return Shape{}, errShapes(ErrIncompatible, context, "addition requires identical shapes", l, r)
	}
	return l, nil
}

func (c *Checker) inferMul(context string, e *ast.Expr) (Shape, error) {
	l, err := c.inferExpr(context, e.Operands[0])
	if err != nil {
		return Shape{}, err
	}
	r, err := c.inferExpr(context, e.Operands[1])
	if err != nil {
		return Shape{}, err
	}
	switch {
	case l.Kind == KindScalar:
		return r, nil
	case r.Kind == KindScalar:
		return l, nil
	case l.Kind == KindMatrix && r.Kind == KindMatrix:
		if l.Cols != r.Rows {
			return Shape{}, errShapes(ErrIncompatible, context, "matrix product requires equal inner dimensions", l, r)
		}
		return Matrix(l.Rows, r.Cols), nil
	case l.Kind == KindMatrix && r.Kind == KindVector:
		if l.Cols != r.Rows {
			return Shape{}, errShapes(ErrIncompatible, context, "matrix-vector product requires matching length", l, r)
		}
		return Vector(l.Rows), nil
	default:
		return Shape{}, errShapes(ErrUnsupportedShape, context, "unsupported product operands", l, r)
	}
}

func (c *Checker) inferDiv(context string, e *ast.Expr) (Shape, error) {
	l, err := c.inferExpr(context, e.Operands[0])
	if err != nil {
		return Shape{}, err
	}
	r, err := c.inferExpr(context, e.Operands[1])
	if err != nil {
		return Shape{}, err
	}
	if r.Kind != KindScalar {
		return Shape{}, errShapes(ErrUnsupportedShape, context, "division requires a scalar divisor", l, r)
	}
	return l, nil
}

func (c *Checker) inferDagger(context string, e *ast.Expr) (Shape, error) {
	s, err := c.inferExpr(context, e.Operands[0])
	if err != nil {
		return Shape{}, err
	}
	switch s.Kind {
	case KindScalar:
		return s, nil
	case KindMatrix:
		return Matrix(s.Cols, s.Rows), nil
	default:
		return Shape{}, &Error{Code: ErrUnsupportedShape, Context: context,
			Message: "dagger requires a scalar or matrix", Left: &s}
	}
}

func (c *Checker) inferTrace(context string, e *ast.Expr) (Shape, error) {
	s, err := c.inferExpr(context, e.Operands[0])
	if err != nil {
		return Shape{}, err
	}
	if !s.IsSquareMatrix() {
		return Shape{}, &Error{Code: ErrNotSquare, Context: context,
			Message: "trace requires a square matrix", Left: &s}
	}
	return Scalar(), nil
}

func (c *Checker) inferTensor(context string, e *ast.Expr) (Shape, error) {
	l, err := c.inferExpr(context, e.Operands[0])
	if err != nil {
		return Shape{}, err
	}
	r, err := c.inferExpr(context, e.Operands[1])
	if err != nil {
		return Shape{}, err
	}
	switch {
	case l.Kind == KindMatrix && r.Kind == KindMatrix:
		return Matrix(l.Rows*r.Rows, l.Cols*r.Cols), nil
	case l.Kind == KindVector && r.Kind == KindVector:
		return Vector(l.Rows * r.Rows), nil
	default:
		return Shape{}, errShapes(ErrUnsupportedShape, context, "tensor product requires two matrices or two vectors", l, r)
	}
}

func (c *Checker) inferCommutator(context string, e *ast.Expr) (Shape, error) {
	l, err := c.inferExpr(context, e.Operands[0])
	if err != nil {
		return Shape{}, err
	}
	r, err := c.inferExpr(context, e.Operands[1])
	if err != nil {
		return Shape{}, err
	}
	if !l.IsSquareMatrix() || l != r {
		return Shape{}, errShapes(ErrIncompatible, context, "commutator requires equal square matrices", l, r)
	}
	return l, nil
}

func (c *Checker) inferExpm(context string, e *ast.Expr) (Shape, error) {
	s, err := c.inferExpr(context, e.Operands[0])
	if err != nil {
		return Shape{}, err
	}
	if !s.IsSquareMatrix() {
		return Shape{}, &Error{Code: ErrNotSquare, Context: context,
			Message: "matrix exponential requires a square matrix", Left: &s}
	}
	return s, nil
}
