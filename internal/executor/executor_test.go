package executor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/linalg"
)

func mustExecutor(t *testing.T) *Executor {
	t.Helper()
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestNewRejectsUnimplementedBackends(t *testing.T) {
	_, err := New(BackendConfig{BackendType: CPUSparse})
	require.Error(t, err)
	assert.Equal(t, CodeBackend, CodeOf(err))

	_, err = New(BackendConfig{BackendType: GPU})
	require.Error(t, err)
	assert.Equal(t, CodeBackend, CodeOf(err))
}

func TestNewDefaultsToDense(t *testing.T) {
	_, err := New(BackendConfig{})
	assert.NoError(t, err)
}

func TestExecuteComputedHamiltonian(t *testing.T) {
	// H = 0.5 * sigma_z built from nodes, then Schrödinger evolution.
	var prog ir.Program
	half := linalg.FromComplex(0.5)
	sz := linalg.SigmaZ()
	s := prog.Append(ir.Node{Op: ir.OpScalar, Scalar: &half})
	m := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Name: "sigma_z", Matrix: &sz})
	h := prog.Append(ir.Node{Op: ir.OpScalarMul, Operands: []ir.NodeID{s, m}})
	ket := prog.Append(ir.Node{Op: ir.OpLoadVector, Name: "psi0",
		Vector: linalg.Vector{complex(1 / math.Sqrt2, 0), complex(1 / math.Sqrt2, 0)}})
	prog.Experiments = []ir.Experiment{{
		Name:         "precession",
		InitialState: ket,
		Evolution: &ir.Evolution{
			Method:      ir.EvolveSchrodinger,
			Hamiltonian: h,
			Times:       []float64{0, 0.1, 0.2},
		},
	}}

	res, err := mustExecutor(t).Execute(&prog)
	require.NoError(t, err)
	require.Len(t, res.Experiments, 1)

	er := res.Experiments[0]
	assert.Equal(t, PureState, er.StateType)
	assert.Equal(t, []float64{0, 0.1, 0.2}, er.Times)

	tr, err := linalg.Trace(er.FinalState)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, real(tr), 1e-9)
}

func TestExecuteSchrodingerRequiresKet(t *testing.T) {
	var prog ir.Program
	sz := linalg.SigmaZ()
	h := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Matrix: &sz})
	rho := linalg.KetToRho(linalg.Vector{1, 0})
	init := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Name: "rho0", Matrix: &rho})
	prog.Experiments = []ir.Experiment{{
		Name:         "bad",
		InitialState: init,
		Evolution: &ir.Evolution{
			Method:      ir.EvolveSchrodinger,
			Hamiltonian: h,
			Times:       []float64{0, 0.1},
		},
	}}

	_, err := mustExecutor(t).Execute(&prog)
	require.Error(t, err)
	assert.Equal(t, CodeState, CodeOf(err))
}

func TestExecuteLindbladAcceptsKet(t *testing.T) {
	var prog ir.Program
	zero := linalg.NewMatrix(2, 2)
	lower, err := linalg.MatrixFromRows([][]complex128{{0, 1}, {0, 0}})
	require.NoError(t, err)

	h := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Name: "H", Matrix: &zero})
	l := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Name: "lower", Matrix: &lower})
	ket := prog.Append(ir.Node{Op: ir.OpLoadVector, Name: "psi0", Vector: linalg.Vector{0, 1}})
	times := []float64{0, 0.05, 0.1}
	prog.Experiments = []ir.Experiment{{
		Name:         "decay",
		InitialState: ket,
		Evolution: &ir.Evolution{
			Method:      ir.EvolveLindblad,
			Hamiltonian: h,
			Operators:   []ir.LindbladOperator{{Operator: l, Rate: 1}},
			Times:       times,
		},
	}}

	res, err := mustExecutor(t).Execute(&prog)
	require.NoError(t, err)
	er := res.Experiments[0]
	assert.Equal(t, DensityMatrix, er.StateType)

	// Excited population decayed towards exp(-t).
	assert.InDelta(t, math.Exp(-0.1), real(er.FinalState.At(1, 1)), 1e-6)
}

func TestExecuteIntegrateLindbladNode(t *testing.T) {
	// The node variant yields the final density matrix as its value; use it
	// as an initial state for a measurement-only experiment.
	var prog ir.Program
	zero := linalg.NewMatrix(2, 2)
	lower, err := linalg.MatrixFromRows([][]complex128{{0, 1}, {0, 0}})
	require.NoError(t, err)
	sz := linalg.SigmaZ()

	h := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Matrix: &zero})
	l := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Matrix: &lower})
	ket := prog.Append(ir.Node{Op: ir.OpLoadVector, Vector: linalg.Vector{0, 1}})
	final := prog.Append(ir.Node{
		Op:       ir.OpIntegrateLindblad,
		Operands: []ir.NodeID{h, ket},
		Lindblad: []ir.LindbladOperator{{Operator: l, Rate: 1}},
		Times:    []float64{0, 0.05, 0.1},
	})
	obs := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Name: "sigma_z", Matrix: &sz})
	prog.Experiments = []ir.Experiment{{
		Name:         "relaxed",
		InitialState: final,
		Measurements: []ir.Measurement{{TimeIndex: 0, Kind: ir.MeasureExpectation, Observable: obs}},
	}}

	res, err := mustExecutor(t).Execute(&prog)
	require.NoError(t, err)
	ms := res.Experiments[0].Measurements
	require.Len(t, ms, 1)
	require.NotNil(t, ms[0].Expectation)

	// <sigma_z> = p0 - p1 = (1 - e^{-t}) - e^{-t}.
	want := 1 - 2*math.Exp(-0.1)
	assert.InDelta(t, want, ms[0].Expectation.Re, 1e-6)
}

func TestExecuteKindMismatch(t *testing.T) {
	var prog ir.Program
	sz := linalg.SigmaZ()
	m := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Matrix: &sz})
	bad := prog.Append(ir.Node{Op: ir.OpScalarMul, Operands: []ir.NodeID{m, m}})
	prog.Experiments = []ir.Experiment{{Name: "bad", InitialState: bad}}

	_, err := mustExecutor(t).Execute(&prog)
	require.Error(t, err)
	assert.Equal(t, CodeKind, CodeOf(err))
}

func TestExecuteRejectsMalformedProgram(t *testing.T) {
	prog := &ir.Program{Nodes: []ir.Node{{ID: 5, Op: ir.OpScalar}}}
	_, err := mustExecutor(t).Execute(prog)
	require.Error(t, err)
	assert.Equal(t, CodeExec, CodeOf(err))
}
