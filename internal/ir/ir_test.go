package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinor-lang/spinor/internal/linalg"
)

func TestAppendAssignsDenseIDs(t *testing.T) {
	var p Program
	a := p.Append(Node{Op: OpScalar, Scalar: &linalg.Complex{Re: 1}})
	b := p.Append(Node{Op: OpScalar, Scalar: &linalg.Complex{Re: 2}})
	c := p.Append(Node{Op: OpAdd, Operands: []NodeID{a, b}})

	assert.Equal(t, NodeID(0), a)
	assert.Equal(t, NodeID(1), b)
	assert.Equal(t, NodeID(2), c)
	require.NoError(t, p.Verify())
}

func TestVerifyRejectsForwardReference(t *testing.T) {
	var p Program
	p.Append(Node{Op: OpScalar, Scalar: &linalg.Complex{Re: 1}})
	// Hand-built node referencing itself.
	p.Nodes = append(p.Nodes, Node{ID: 1, Op: OpDagger, Operands: []NodeID{1}})
	err := p.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "earlier")
}

func TestVerifyRejectsDanglingExperimentState(t *testing.T) {
	var p Program
	p.Experiments = append(p.Experiments, Experiment{Name: "e", InitialState: 5})
	err := p.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial state")
}

func TestProgramJSONRoundTrip(t *testing.T) {
	var p Program
	m := linalg.Identity(2)
	mid := p.Append(Node{Op: OpLoadMatrix, Name: "identity", Matrix: &m})
	vid := p.Append(Node{Op: OpLoadVector, Name: "init_ket", Vector: linalg.Vector{1, 0}})
	p.Append(Node{
		Op:       OpIntegrateLindblad,
		Operands: []NodeID{mid, vid},
		Lindblad: []LindbladOperator{{Operator: mid, Rate: 0.5}},
		Times:    []float64{0, 0.1, 0.2},
	})
	p.Experiments = []Experiment{{
		Name:         "decay",
		InitialState: vid,
		Evolution: &Evolution{
			Method:      EvolveLindblad,
			Hamiltonian: mid,
			Operators:   []LindbladOperator{{Operator: mid, Rate: 0.5}},
			Times:       []float64{0, 0.1, 0.2},
		},
		Measurements: []Measurement{{TimeIndex: 2, Kind: MeasureProjective, Operators: []NodeID{mid}}},
	}}

	data, err := json.Marshal(&p)
	require.NoError(t, err)

	var back Program
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
	require.NoError(t, back.Verify())
}

func TestProgramHashStableAndContentSensitive(t *testing.T) {
	build := func(rate float64) *Program {
		var p Program
		m := linalg.Identity(2)
		id := p.Append(Node{Op: OpLoadMatrix, Name: "H", Matrix: &m})
		p.Append(Node{Op: OpIntegrateLindblad, Operands: []NodeID{id, id},
			Lindblad: []LindbladOperator{{Operator: id, Rate: rate}}, Times: []float64{0, 1}})
		return &p
	}

	h1, err := ProgramHash(build(0.5))
	require.NoError(t, err)
	h2, err := ProgramHash(build(0.5))
	require.NoError(t, err)
	h3, err := ProgramHash(build(0.6))
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "equal programs must hash equal")
	assert.NotEqual(t, h1, h3, "rate change must change the hash")
	assert.Len(t, h1, 64)
}

func TestCanonicalNameNFC(t *testing.T) {
	// U+0065 U+0301 (e + combining acute) vs U+00E9 (precomposed).
	decomposed := "é"
	precomposed := "é"
	assert.Equal(t, CanonicalName(precomposed), CanonicalName(decomposed))
	assert.Equal(t, "omega", CanonicalName("  omega "))
}

func TestValueKinds(t *testing.T) {
	var vals = []Value{
		ScalarValue(complex(1, 2)),
		VectorValue{1, 0},
		MatrixValue(linalg.Identity(2)),
	}
	assert.Equal(t, KindScalar, vals[0].Kind())
	assert.Equal(t, KindVector, vals[1].Kind())
	assert.Equal(t, KindMatrix, vals[2].Kind())
}
