package lowering

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinor-lang/spinor/internal/ast"
	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/shape"
	"github.com/spinor-lang/spinor/internal/validator"
)

func lower(t *testing.T, prog *ast.Program) *ir.Program {
	t.Helper()
	typed, err := shape.NewChecker().Check(prog)
	require.NoError(t, err)
	vp, err := validator.New().Validate(typed)
	require.NoError(t, err)
	out, err := New().Lower(vp)
	require.NoError(t, err)
	return out
}

func schrodingerProgram() *ast.Program {
	return &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtConst, Name: "omega", Value: 2},
		{Kind: ast.StmtHamiltonian, Name: "H",
			Expr: ast.Mul(ast.Div(ast.Ident("omega"), ast.Num(2)), ast.Ident("sigma_z"))},
		{Kind: ast.StmtMeasurement, Name: "m", Measurement: &ast.MeasurementSpec{
			Kind: ast.MeasureObservable, Observable: ast.Ident("sigma_z"),
		}},
		{Kind: ast.StmtExperiment, Name: "e", Experiment: &ast.ExperimentBody{
			Init: &ast.StateSpec{Ket: ast.NumVector(1, 0)},
			Evolution: &ast.EvolutionSpec{
				Hamiltonian: "H",
				Grid:        ast.TimeGrid{T0: 0, Dt: 0.1, NSteps: 2},
			},
			Measurements: []ast.MeasurementEvent{{Time: 0.2, Measurement: "m"}},
		}},
	}}
}

func TestLowerSchrodingerGolden(t *testing.T) {
	prog := lower(t, schrodingerProgram())

	data, err := json.MarshalIndent(prog, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "schrodinger_expectation", data)
}

func TestLowerAssignsDenseIDs(t *testing.T) {
	prog := lower(t, schrodingerProgram())
	require.NoError(t, prog.Verify())
	for i, n := range prog.Nodes {
		assert.Equal(t, ir.NodeID(i), n.ID)
	}
}

func TestLowerReusesNamedNodes(t *testing.T) {
	prog := lower(t, schrodingerProgram())

	// The observable references sigma_z, which was already lowered for the
	// Hamiltonian; only one load node must exist.
	loads := 0
	for _, n := range prog.Nodes {
		if n.Op == ir.OpLoadMatrix && n.Name == "sigma_z" {
			loads++
		}
	}
	assert.Equal(t, 1, loads)

	require.Len(t, prog.Experiments, 1)
	m := prog.Experiments[0].Measurements[0]
	assert.Equal(t, ir.MeasureExpectation, m.Kind)
}

func TestLowerPicksScalarMul(t *testing.T) {
	prog := lower(t, schrodingerProgram())

	var found bool
	for _, n := range prog.Nodes {
		if n.Op == ir.OpScalarMul {
			found = true
			first, err := prog.Node(n.Operands[0])
			require.NoError(t, err)
			assert.Equal(t, ir.OpScalar, first.Op)
		}
	}
	assert.True(t, found, "scalar times matrix should lower to scalar_mul")
}

func TestLowerLindbladEvolution(t *testing.T) {
	prog := lower(t, &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtConst, Name: "gamma", Value: 0.05},
		{Kind: ast.StmtHamiltonian, Name: "H", Expr: ast.Ident("sigma_z")},
		{Kind: ast.StmtExperiment, Name: "decay", Experiment: &ast.ExperimentBody{
			Init: &ast.StateSpec{Rho: ast.NumMatrix([]float64{1, 0}, []float64{0, 0})},
			Evolution: &ast.EvolutionSpec{
				Hamiltonian: "H",
				Grid:        ast.TimeGrid{T0: 0, Dt: 0.01, NSteps: 10},
				Lindblad: []ast.LindbladTerm{
					{Operator: "sigma_x", Rate: ast.Mul(ast.Num(2), ast.Ident("gamma"))},
				},
			},
		}},
	}})

	require.Len(t, prog.Experiments, 1)
	ev := prog.Experiments[0].Evolution
	require.NotNil(t, ev)
	assert.Equal(t, ir.EvolveLindblad, ev.Method)
	require.Len(t, ev.Operators, 1)
	assert.InDelta(t, 0.1, ev.Operators[0].Rate, 1e-15)

	op, err := prog.Node(ev.Operators[0].Operator)
	require.NoError(t, err)
	assert.Equal(t, "sigma_x", op.Name)
}

func TestLowerRejectsNonConstantRate(t *testing.T) {
	typed, err := shape.NewChecker().Check(&ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtSymbol, Name: "gamma"},
		{Kind: ast.StmtHamiltonian, Name: "H", Expr: ast.Ident("sigma_z")},
		{Kind: ast.StmtExperiment, Name: "e", Experiment: &ast.ExperimentBody{
			Init: &ast.StateSpec{Ket: ast.NumVector(1, 0)},
			Evolution: &ast.EvolutionSpec{
				Hamiltonian: "H",
				Grid:        ast.TimeGrid{T0: 0, Dt: 0.1, NSteps: 1},
				Lindblad: []ast.LindbladTerm{
					{Operator: "sigma_x", Rate: ast.Ident("gamma")},
				},
			},
		}},
	}})
	require.NoError(t, err)

	_, err = New().Lower(&validator.ValidatedProgram{Typed: typed})
	require.Error(t, err)
	assert.Equal(t, CodeUnsupported, CodeOf(err))
}

func TestLowerUndefinedHamiltonianIsInternal(t *testing.T) {
	typed := &shape.TypedProgram{Program: &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtExperiment, Name: "e", Experiment: &ast.ExperimentBody{
			Init: &ast.StateSpec{Ket: ast.NumVector(1, 0)},
			Evolution: &ast.EvolutionSpec{
				Hamiltonian: "missing",
				Grid:        ast.TimeGrid{T0: 0, Dt: 0.1, NSteps: 1},
			},
		}},
	}}}
	_, err := New().Lower(&validator.ValidatedProgram{Typed: typed})
	require.Error(t, err)
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestLowerProjectiveMeasurementDecl(t *testing.T) {
	prog := lower(t, &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtMeasurement, Name: "m", Measurement: &ast.MeasurementSpec{
			Kind: ast.MeasureProjective,
			Projectors: []*ast.MatrixLit{
				ast.NumMatrix([]float64{1, 0}, []float64{0, 0}),
				ast.NumMatrix([]float64{0, 0}, []float64{0, 1}),
			},
		}},
		{Kind: ast.StmtExperiment, Name: "e", Experiment: &ast.ExperimentBody{
			Init:         &ast.StateSpec{Ket: ast.NumVector(0, 1)},
			Measurements: []ast.MeasurementEvent{{Time: 0, Measurement: "m"}},
		}},
	}})

	require.Len(t, prog.Experiments, 1)
	m := prog.Experiments[0].Measurements[0]
	assert.Equal(t, ir.MeasureProjective, m.Kind)
	require.Len(t, m.Operators, 2)
	assert.Equal(t, 0, m.TimeIndex)
}

func TestMeasurementTimeSnapsToClosestGridPoint(t *testing.T) {
	prog := lower(t, &ast.Program{Statements: []ast.Statement{
		{Kind: ast.StmtHamiltonian, Name: "H", Expr: ast.Ident("sigma_z")},
		{Kind: ast.StmtMeasurement, Name: "m", Measurement: &ast.MeasurementSpec{
			Kind: ast.MeasureObservable, Observable: ast.Ident("sigma_x"),
		}},
		{Kind: ast.StmtExperiment, Name: "e", Experiment: &ast.ExperimentBody{
			Init: &ast.StateSpec{Ket: ast.NumVector(1, 0)},
			Evolution: &ast.EvolutionSpec{
				Hamiltonian: "H",
				Grid:        ast.TimeGrid{T0: 0, Dt: 0.1, NSteps: 3},
			},
			Measurements: []ast.MeasurementEvent{{Time: 0.14, Measurement: "m"}},
		}},
	}})

	assert.Equal(t, 1, prog.Experiments[0].Measurements[0].TimeIndex)
}

func TestMeasurementWithoutEvolutionRequiresTimeZero(t *testing.T) {
	statements := func(eventTime float64) []ast.Statement {
		return []ast.Statement{
			{Kind: ast.StmtMeasurement, Name: "m", Measurement: &ast.MeasurementSpec{
				Kind: ast.MeasureObservable, Observable: ast.Ident("sigma_z"),
			}},
			{Kind: ast.StmtExperiment, Name: "e", Experiment: &ast.ExperimentBody{
				Init:         &ast.StateSpec{Ket: ast.NumVector(1, 0)},
				Measurements: []ast.MeasurementEvent{{Time: eventTime, Measurement: "m"}},
			}},
		}
	}

	// Measuring the initial state at t=0 is fine.
	prog := lower(t, &ast.Program{Statements: statements(0)})
	assert.Equal(t, 0, prog.Experiments[0].Measurements[0].TimeIndex)

	// Without a grid there is no t=5 to measure at.
	typed, err := shape.NewChecker().Check(&ast.Program{Statements: statements(5)})
	require.NoError(t, err)
	vp, err := validator.New().Validate(typed)
	require.NoError(t, err)
	_, err = New().Lower(vp)
	require.Error(t, err)
	assert.Equal(t, CodeUnsupported, CodeOf(err))
	assert.Contains(t, err.Error(), "evolution")
}

func TestClosestIndexTiesResolveEarlier(t *testing.T) {
	assert.Equal(t, 0, closestIndex([]float64{0, 1}, 0.5))
	assert.Equal(t, 2, closestIndex([]float64{0, 1, 2}, 5))
}
