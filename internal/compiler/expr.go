package compiler

import (
	"cuelang.org/go/cue"

	"github.com/spinor-lang/spinor/internal/ast"
)

// parseExpr compiles a structured CUE value to an expression:
//
//	2.0                         number literal
//	"sigma_z"                   identifier reference
//	{re: 0.0, im: 1.0}          complex literal
//	{op: "mul", args: [...]}    operator application
//	[[...], ...]                matrix literal
func parseExpr(v cue.Value) (*ast.Expr, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	switch {
	case v.Kind()&cue.NumberKind != 0:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ast.Num(f), nil

	case v.Kind() == cue.StringKind:
		name, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ast.Ident(name), nil

	case v.Kind() == cue.ListKind:
		lit, err := parseMatrixLit(v)
		if err != nil {
			return nil, err
		}
		return ast.MatrixExpr(lit), nil

	case v.Kind() == cue.StructKind:
		if re := v.LookupPath(cue.ParsePath("re")); re.Exists() {
			return parseComplex(v)
		}
		return parseOpExpr(v)

	default:
		return nil, fieldErr(v, "expr", "cannot compile value of kind %s", v.Kind())
	}
}

func parseComplex(v cue.Value) (*ast.Expr, error) {
	re, err := v.LookupPath(cue.ParsePath("re")).Float64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	im, err := v.LookupPath(cue.ParsePath("im")).Float64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return ast.Cplx(re, im), nil
}

func parseOpExpr(v cue.Value) (*ast.Expr, error) {
	opVal := v.LookupPath(cue.ParsePath("op"))
	if !opVal.Exists() {
		return nil, fieldErr(v, "expr", "operator struct needs an op field")
	}
	op, err := opVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	args, err := parseArgs(v.LookupPath(cue.ParsePath("args")))
	if err != nil {
		return nil, err
	}

	binary := func(build func(a, b *ast.Expr) *ast.Expr) (*ast.Expr, error) {
		if len(args) != 2 {
			return nil, fieldErr(v, "expr", "%s takes 2 arguments, got %d", op, len(args))
		}
		return build(args[0], args[1]), nil
	}
	unary := func(build func(a *ast.Expr) *ast.Expr) (*ast.Expr, error) {
		if len(args) != 1 {
			return nil, fieldErr(v, "expr", "%s takes 1 argument, got %d", op, len(args))
		}
		return build(args[0]), nil
	}

	switch op {
	case "add":
		return binary(ast.Add)
	case "sub":
		return binary(ast.Sub)
	case "mul":
		return binary(ast.Mul)
	case "div":
		return binary(ast.Div)
	case "tensor":
		return binary(ast.Tensor)
	case "commutator":
		return binary(ast.Commutator)
	case "dagger":
		return unary(ast.Dagger)
	case "trace":
		return unary(ast.Trace)
	case "expm":
		return unary(ast.Expm)
	default:
		return nil, fieldErr(v, "expr", "unknown operator %q", op)
	}
}

func parseArgs(v cue.Value) ([]*ast.Expr, error) {
	if !v.Exists() {
		return nil, fieldErr(v, "expr", "operator struct needs an args list")
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var args []*ast.Expr
	for iter.Next() {
		arg, err := parseExpr(iter.Value())
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// parseMatrixLit compiles a list of row lists of scalar expressions.
func parseMatrixLit(v cue.Value) (*ast.MatrixLit, error) {
	rowIter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	lit := &ast.MatrixLit{}
	for rowIter.Next() {
		elemIter, err := rowIter.Value().List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var row []*ast.Expr
		for elemIter.Next() {
			e, err := parseExpr(elemIter.Value())
			if err != nil {
				return nil, err
			}
			row = append(row, e)
		}
		lit.Rows = append(lit.Rows, row)
	}
	if len(lit.Rows) == 0 {
		return nil, fieldErr(v, "matrix", "matrix literal has no rows")
	}
	return lit, nil
}

// parseVectorLit compiles a flat list of scalar expressions.
func parseVectorLit(v cue.Value) (*ast.VectorLit, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	lit := &ast.VectorLit{}
	for iter.Next() {
		e, err := parseExpr(iter.Value())
		if err != nil {
			return nil, err
		}
		lit.Elements = append(lit.Elements, e)
	}
	if len(lit.Elements) == 0 {
		return nil, fieldErr(v, "vector", "vector literal has no elements")
	}
	return lit, nil
}
