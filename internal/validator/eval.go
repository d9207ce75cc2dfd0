package validator

import (
	"errors"
	"fmt"

	"github.com/spinor-lang/spinor/internal/ast"
	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/linalg"
)

// Validation-time expression evaluation. The validator needs concrete
// matrices to check, so it evaluates literal and constant sub-expressions
// eagerly; anything it cannot fold is CodeUnevaluable.

// evalValue is the small scalar-or-matrix union evaluation works over.
type evalValue struct {
	mat      *linalg.Matrix
	scalar   complex128
	isScalar bool
}

func scalarVal(z complex128) evalValue { return evalValue{scalar: z, isScalar: true} }
func matrixVal(m linalg.Matrix) evalValue { return evalValue{mat: &m} }

func (v *Validator) evalToMatrix(context string, e *ast.Expr) (linalg.Matrix, error) {
	val, err := v.eval(context, e)
	if err != nil {
		return linalg.Matrix{}, err
	}
	if val.isScalar {
		return linalg.Matrix{}, &Error{Code: CodeUnevaluable, Name: context,
			Message: "expression evaluates to a scalar where a matrix is required"}
	}
	return *val.mat, nil
}

func (v *Validator) eval(context string, e *ast.Expr) (evalValue, error) {
	switch e.Kind {
	case ast.ExprNumber, ast.ExprComplex:
		return scalarVal(complex(e.Re, e.Im)), nil

	case ast.ExprIdent:
		name := ir.CanonicalName(e.Name)
		if c, ok := v.constants[name]; ok {
			return scalarVal(complex(c, 0)), nil
		}
		if m, ok := v.matrices[name]; ok {
			return matrixVal(m.Clone()), nil
		}
		return evalValue{}, &Error{Code: CodeUnevaluable, Name: context,
			Message: fmt.Sprintf("cannot evaluate identifier %q to a constant", e.Name)}

	case ast.ExprMatrix:
		m, err := v.evalMatrixLit(context, e.Matrix)
		if err != nil {
			return evalValue{}, err
		}
		return matrixVal(m), nil

	case ast.ExprAdd, ast.ExprSub:
		return v.evalAddSub(context, e)

	case ast.ExprMul:
		return v.evalMul(context, e)

	case ast.ExprDiv:
		return v.evalDiv(context, e)

	case ast.ExprDagger:
		val, err := v.eval(context, e.Operands[0])
		if err != nil {
			return evalValue{}, err
		}
		if val.isScalar {
			return scalarVal(complex(real(val.scalar), -imag(val.scalar))), nil
		}
		return matrixVal(linalg.Dagger(*val.mat)), nil

	case ast.ExprTrace:
		m, err := v.evalToMatrix(context, e.Operands[0])
		if err != nil {
			return evalValue{}, err
		}
		tr, err := linalg.Trace(m)
		if err != nil {
			return evalValue{}, wrapLinalg(context, err)
		}
		return scalarVal(tr), nil

	case ast.ExprTensor:
		l, err := v.evalToMatrix(context, e.Operands[0])
		if err != nil {
			return evalValue{}, err
		}
		r, err := v.evalToMatrix(context, e.Operands[1])
		if err != nil {
			return evalValue{}, err
		}
		return matrixVal(linalg.TensorProduct(l, r)), nil

	case ast.ExprCommutator:
		l, err := v.evalToMatrix(context, e.Operands[0])
		if err != nil {
			return evalValue{}, err
		}
		r, err := v.evalToMatrix(context, e.Operands[1])
		if err != nil {
			return evalValue{}, err
		}
		c, err := linalg.Commutator(l, r)
		if err != nil {
			return evalValue{}, wrapLinalg(context, err)
		}
		return matrixVal(c), nil

	case ast.ExprExpm:
		m, err := v.evalToMatrix(context, e.Operands[0])
		if err != nil {
			return evalValue{}, err
		}
		out, err := linalg.MatrixExp(m)
		if err != nil {
			return evalValue{}, wrapLinalg(context, err)
		}
		return matrixVal(out), nil

	default:
		return evalValue{}, &Error{Code: CodeUnevaluable, Name: context,
			Message: fmt.Sprintf("expression %q cannot be evaluated at validation time", e.Kind)}
	}
}

func (v *Validator) evalAddSub(context string, e *ast.Expr) (evalValue, error) {
	l, err := v.eval(context, e.Operands[0])
	if err != nil {
		return evalValue{}, err
	}
	r, err := v.eval(context, e.Operands[1])
	if err != nil {
		return evalValue{}, err
	}
	sub := e.Kind == ast.ExprSub
	switch {
	case l.isScalar && r.isScalar:
		if sub {
			return scalarVal(l.scalar - r.scalar), nil
		}
		return scalarVal(l.scalar + r.scalar), nil
	case !l.isScalar && !r.isScalar:
		var m linalg.Matrix
		if sub {
			m, err = l.mat.Sub(*r.mat)
		} else {
			m, err = l.mat.Add(*r.mat)
		}
		if err != nil {
			return evalValue{}, wrapLinalg(context, err)
		}
		return matrixVal(m), nil
	default:
		return evalValue{}, &Error{Code: CodeUnevaluable, Name: context,
			Message: "cannot add a scalar and a matrix"}
	}
}

func (v *Validator) evalMul(context string, e *ast.Expr) (evalValue, error) {
	l, err := v.eval(context, e.Operands[0])
	if err != nil {
		return evalValue{}, err
	}
	r, err := v.eval(context, e.Operands[1])
	if err != nil {
		return evalValue{}, err
	}
	switch {
	case l.isScalar && r.isScalar:
		return scalarVal(l.scalar * r.scalar), nil
	case l.isScalar:
		return matrixVal(r.mat.Scale(l.scalar)), nil
	case r.isScalar:
		return matrixVal(l.mat.Scale(r.scalar)), nil
	default:
		m, err := l.mat.Mul(*r.mat)
		if err != nil {
			return evalValue{}, wrapLinalg(context, err)
		}
		return matrixVal(m), nil
	}
}

func (v *Validator) evalDiv(context string, e *ast.Expr) (evalValue, error) {
	l, err := v.eval(context, e.Operands[0])
	if err != nil {
		return evalValue{}, err
	}
	r, err := v.eval(context, e.Operands[1])
	if err != nil {
		return evalValue{}, err
	}
	if !r.isScalar {
		return evalValue{}, &Error{Code: CodeUnevaluable, Name: context,
			Message: "division requires a scalar divisor"}
	}
	if r.scalar == 0 {
		return evalValue{}, &Error{Code: CodeUnevaluable, Name: context,
			Message: "division by zero"}
	}
	if l.isScalar {
		return scalarVal(l.scalar / r.scalar), nil
	}
	return matrixVal(l.mat.Scale(1 / r.scalar)), nil
}

func (v *Validator) evalMatrixLit(context string, lit *ast.MatrixLit) (linalg.Matrix, error) {
	rows := make([][]complex128, len(lit.Rows))
	for i, row := range lit.Rows {
		rows[i] = make([]complex128, len(row))
		for j, el := range row {
			val, err := v.eval(context, el)
			if err != nil {
				return linalg.Matrix{}, err
			}
			if !val.isScalar {
				return linalg.Matrix{}, &Error{Code: CodeUnevaluable, Name: context,
					Message: "matrix literal elements must evaluate to scalars"}
			}
			rows[i][j] = val.scalar
		}
	}
	m, err := linalg.MatrixFromRows(rows)
	if err != nil {
		return linalg.Matrix{}, &Error{Code: CodeUnevaluable, Name: context, Message: err.Error()}
	}
	return m, nil
}

func (v *Validator) evalVectorLit(context string, lit *ast.VectorLit) (linalg.Vector, error) {
	out := make(linalg.Vector, len(lit.Elements))
	for i, el := range lit.Elements {
		val, err := v.eval(context, el)
		if err != nil {
			return nil, err
		}
		if !val.isScalar {
			return nil, &Error{Code: CodeUnevaluable, Name: context,
				Message: "vector literal elements must evaluate to scalars"}
		}
		out[i] = val.scalar
	}
	return out, nil
}

func asErr(err error, target any) bool { return errors.As(err, target) }
