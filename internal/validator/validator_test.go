package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinor-lang/spinor/internal/ast"
	"github.com/spinor-lang/spinor/internal/shape"
)

func typed(t *testing.T, prog *ast.Program) *shape.TypedProgram {
	t.Helper()
	tp, err := shape.NewChecker().Check(prog)
	require.NoError(t, err)
	return tp
}

func hamiltonianProg(m *ast.MatrixLit) *ast.Program {
	return &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtHamiltonian, Name: "H", Expr: &ast.Expr{Kind: ast.ExprMatrix, Matrix: m}},
	}}
}

func TestValidateHamiltonianHermiticity(t *testing.T) {
	bad := hamiltonianProg(ast.NumMatrix([]float64{1, 2}, []float64{0, 1}))
	_, err := New().Validate(typed(t, bad))
	require.Error(t, err)
	assert.Equal(t, CodeNotHermitian, CodeOf(err))

	good := hamiltonianProg(ast.NumMatrix([]float64{1, 0}, []float64{0, -1}))
	vp, err := New().Validate(typed(t, good))
	require.NoError(t, err)
	assert.True(t, vp.Results.Hermitian["H"])
}

func TestValidateHamiltonianExpression(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtConst, Name: "omega", Value: 2},
		{Kind: ast.StmtHamiltonian, Name: "H",
			Expr: ast.Mul(ast.Div(ast.Ident("omega"), ast.Num(2)), ast.Ident("sigma_z"))},
	}}
	v := New()
	_, err := v.Validate(typed(t, prog))
	require.NoError(t, err)

	h, ok := v.Matrix("H")
	require.True(t, ok)
	assert.Equal(t, complex128(1), h.At(0, 0))
	assert.Equal(t, complex128(-1), h.At(1, 1))
}

func TestValidateInitialKetNorm(t *testing.T) {
	experiment := func(elems ...float64) *ast.Program {
		return &ast.Program{Statements: []ast.Statement{
			{Kind: ast.StmtExperiment, Name: "e", Experiment: &ast.ExperimentBody{
				Init: &ast.StateSpec{Ket: ast.NumVector(elems...)},
			}},
		}}
	}

	_, err := New().Validate(typed(t, experiment(1, 1)))
	require.Error(t, err)
	assert.Equal(t, CodeNotNormalized, CodeOf(err))

	_, err = New().Validate(typed(t, experiment(1, 0)))
	assert.NoError(t, err)
}

func TestValidateInitialRho(t *testing.T) {
	experiment := func(rows ...[]float64) *ast.Program {
		return &ast.Program{Statements: []ast.Statement{
			{Kind: ast.StmtExperiment, Name: "e", Experiment: &ast.ExperimentBody{
				Init: &ast.StateSpec{Rho: ast.NumMatrix(rows...)},
			}},
		}}
	}

	vp, err := New().Validate(typed(t, experiment([]float64{0.5, 0}, []float64{0, 0.5})))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vp.Results.Traces["e"], Tolerance)

	_, err = New().Validate(typed(t, experiment([]float64{1, 0}, []float64{0, 1})))
	require.Error(t, err)
	assert.Equal(t, CodeTrace, CodeOf(err))

	_, err = New().Validate(typed(t, experiment([]float64{1.5, 0}, []float64{0, -0.5})))
	require.Error(t, err)
	assert.Equal(t, CodeNotPSD, CodeOf(err))
}

func measurementProg(spec *ast.MeasurementSpec) *ast.Program {
	return &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtMeasurement, Name: "m", Measurement: spec},
	}}
}

func TestValidateProjectiveMeasurement(t *testing.T) {
	p0 := ast.NumMatrix([]float64{1, 0}, []float64{0, 0})
	p1 := ast.NumMatrix([]float64{0, 0}, []float64{0, 1})

	_, err := New().Validate(typed(t, measurementProg(&ast.MeasurementSpec{
		Kind: ast.MeasureProjective, Projectors: []*ast.MatrixLit{p0, p1},
	})))
	assert.NoError(t, err)

	// Sums to identity but is not a projector.
	half := ast.NumMatrix([]float64{0.5, 0}, []float64{0, 0.5})
	_, err = New().Validate(typed(t, measurementProg(&ast.MeasurementSpec{
		Kind: ast.MeasureProjective, Projectors: []*ast.MatrixLit{half, half},
	})))
	require.Error(t, err)
	assert.Equal(t, CodeNotIdempotent, CodeOf(err))

	_, err = New().Validate(typed(t, measurementProg(&ast.MeasurementSpec{
		Kind: ast.MeasureProjective, Projectors: []*ast.MatrixLit{p0},
	})))
	require.Error(t, err)
	assert.Equal(t, CodeIncomplete, CodeOf(err))
}

func TestValidatePOVM(t *testing.T) {
	half := ast.NumMatrix([]float64{0.5, 0}, []float64{0, 0.5})
	_, err := New().Validate(typed(t, measurementProg(&ast.MeasurementSpec{
		Kind: ast.MeasurePOVM, Effects: []*ast.MatrixLit{half, half},
	})))
	assert.NoError(t, err)

	// Effects need not be idempotent, but they must be PSD.
	neg := ast.NumMatrix([]float64{1.5, 0}, []float64{0, -0.5})
	pos := ast.NumMatrix([]float64{-0.5, 0}, []float64{0, 1.5})
	_, err = New().Validate(typed(t, measurementProg(&ast.MeasurementSpec{
		Kind: ast.MeasurePOVM, Effects: []*ast.MatrixLit{neg, pos},
	})))
	require.Error(t, err)
	assert.Equal(t, CodeNotPSD, CodeOf(err))
}

func TestValidateObservableMeasurement(t *testing.T) {
	_, err := New().Validate(typed(t, measurementProg(&ast.MeasurementSpec{
		Kind: ast.MeasureObservable, Observable: ast.Ident("sigma_z"),
	})))
	assert.NoError(t, err)
}

func TestValidateUnevaluableExpression(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtSymbol, Name: "omega"},
		{Kind: ast.StmtHamiltonian, Name: "H",
			Expr: ast.Mul(ast.Ident("omega"), ast.Ident("sigma_z"))},
	}}
	_, err := New().Validate(typed(t, prog))
	require.Error(t, err)
	assert.Equal(t, CodeUnevaluable, CodeOf(err))
}
