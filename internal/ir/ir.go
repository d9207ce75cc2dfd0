package ir

import (
	"fmt"

	"github.com/spinor-lang/spinor/internal/linalg"
)

// NodeID is the identity of one node in the arena, equal to its allocation
// order.
type NodeID int

// OpKind discriminates node variants.
type OpKind string

const (
	// Leaf data loads.
	OpLoadMatrix OpKind = "load_matrix"
	OpLoadVector OpKind = "load_vector"
	OpScalar     OpKind = "scalar"

	// Pure algebraic operations.
	OpAdd        OpKind = "add"
	OpSub        OpKind = "sub"
	OpMul        OpKind = "mul"
	OpScalarMul  OpKind = "scalar_mul"
	OpTensor     OpKind = "tensor"
	OpDagger     OpKind = "dagger"
	OpTrace      OpKind = "trace"
	OpCommutator OpKind = "commutator"
	OpMatrixExp  OpKind = "matrix_exp"

	// Evolution primitives.
	OpUnitaryPropagator OpKind = "unitary_propagator"
	OpApplyUnitaryKet   OpKind = "apply_unitary_ket"
	OpApplyUnitaryRho   OpKind = "apply_unitary_rho"
	OpIntegrateLindblad OpKind = "integrate_lindblad"

	// Measurement primitives.
	OpExpectation OpKind = "expectation"
	OpProjective  OpKind = "projective"
)

// Node is one operation in the arena. Operand conventions per kind:
//
//	add/sub/mul/scalar_mul/tensor/commutator   Operands[0], Operands[1]
//	dagger/trace/matrix_exp                    Operands[0]
//	unitary_propagator                         Operands[0] = Hamiltonian, Time = duration
//	apply_unitary_ket / apply_unitary_rho      Operands[0] = unitary, Operands[1] = state
//	integrate_lindblad                         Operands[0] = Hamiltonian, Operands[1] = initial ρ,
//	                                           Lindblad = (operator, rate) pairs, Times = grid
//	expectation                                Operands[0] = observable, Operands[1] = state
//	projective                                 Operands[0] = state, Operands[1:] = projectors
type Node struct {
	ID NodeID `json:"id"`
	Op OpKind `json:"op"`

	// Name carries the declared name of a leaf for diagnostics.
	Name string `json:"name,omitempty"`

	// Leaf payloads.
	Matrix *linalg.Matrix  `json:"matrix,omitempty"`
	Vector linalg.Vector   `json:"vector,omitempty"`
	Scalar *linalg.Complex `json:"scalar,omitempty"`

	Operands []NodeID `json:"operands,omitempty"`

	// unitary_propagator duration.
	Time float64 `json:"time,omitempty"`

	// integrate_lindblad payload.
	Lindblad []LindbladOperator `json:"lindblad,omitempty"`
	Times    []float64          `json:"times,omitempty"`
}

// IsLeaf reports whether the node is a data load with no operands.
func (n Node) IsLeaf() bool {
	return n.Op == OpLoadMatrix || n.Op == OpLoadVector || n.Op == OpScalar
}

// LindbladOperator pairs a jump-operator node with its (constant) rate.
type LindbladOperator struct {
	Operator NodeID  `json:"operator"`
	Rate     float64 `json:"rate"`
}

// EvolutionMethod selects the evolution law for an experiment.
type EvolutionMethod string

const (
	EvolveSchrodinger EvolutionMethod = "schrodinger"
	EvolveLindblad    EvolutionMethod = "lindblad"
)

// Evolution is an experiment's evolution clause after lowering.
type Evolution struct {
	Method      EvolutionMethod    `json:"method"`
	Hamiltonian NodeID             `json:"hamiltonian"`
	Operators   []LindbladOperator `json:"operators,omitempty"`
	Times       []float64          `json:"times"`
}

// MeasurementKind discriminates lowered measurement specifications.
type MeasurementKind string

const (
	MeasureProjective  MeasurementKind = "projective"
	MeasurePOVM        MeasurementKind = "povm"
	MeasureExpectation MeasurementKind = "expectation"
)

// Measurement schedules one measurement at a grid time index.
type Measurement struct {
	TimeIndex int             `json:"time_index"`
	Kind      MeasurementKind `json:"kind"`

	// Projector or effect nodes for projective/povm.
	Operators []NodeID `json:"operators,omitempty"`

	// Observable node for expectation.
	Observable NodeID `json:"observable,omitempty"`
}

// Experiment names an initial state, an optional evolution clause, and the
// measurements evaluated against the resulting trajectory.
type Experiment struct {
	Name         string        `json:"name"`
	InitialState NodeID        `json:"initial_state"`
	Evolution    *Evolution    `json:"evolution,omitempty"`
	Measurements []Measurement `json:"measurements,omitempty"`
}

// Program is the ordered node arena plus the experiments over it. Nodes are
// appended once and never mutated or removed.
type Program struct {
	Nodes       []Node       `json:"nodes"`
	Experiments []Experiment `json:"experiments"`
}

// Append adds a node to the arena, assigning its positional ID.
func (p *Program) Append(n Node) NodeID {
	n.ID = NodeID(len(p.Nodes))
	p.Nodes = append(p.Nodes, n)
	return n.ID
}

// Node returns the node with the given id, or an error when the id does not
// denote an allocated node.
func (p *Program) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(p.Nodes) {
		return nil, fmt.Errorf("node %d not allocated (arena has %d nodes)", id, len(p.Nodes))
	}
	return &p.Nodes[id], nil
}

// Verify checks the structural invariants: positional IDs and strictly
// backward references everywhere a NodeID appears.
func (p *Program) Verify() error {
	for i := range p.Nodes {
		n := &p.Nodes[i]
		if n.ID != NodeID(i) {
			return fmt.Errorf("node at index %d carries id %d", i, n.ID)
		}
		for _, op := range n.Operands {
			if op < 0 || op >= n.ID {
				return fmt.Errorf("node %d references %d: operands must denote earlier nodes", n.ID, op)
			}
		}
		for _, l := range n.Lindblad {
			if l.Operator < 0 || l.Operator >= n.ID {
				return fmt.Errorf("node %d references lindblad operator %d: must denote an earlier node", n.ID, l.Operator)
			}
		}
	}
	bound := NodeID(len(p.Nodes))
	for _, ex := range p.Experiments {
		if ex.InitialState < 0 || ex.InitialState >= bound {
			return fmt.Errorf("experiment %q: initial state node %d not allocated", ex.Name, ex.InitialState)
		}
		if ev := ex.Evolution; ev != nil {
			if ev.Hamiltonian < 0 || ev.Hamiltonian >= bound {
				return fmt.Errorf("experiment %q: hamiltonian node %d not allocated", ex.Name, ev.Hamiltonian)
			}
			for _, l := range ev.Operators {
				if l.Operator < 0 || l.Operator >= bound {
					return fmt.Errorf("experiment %q: lindblad operator node %d not allocated", ex.Name, l.Operator)
				}
			}
		}
		for _, m := range ex.Measurements {
			for _, op := range m.Operators {
				if op < 0 || op >= bound {
					return fmt.Errorf("experiment %q: measurement operator node %d not allocated", ex.Name, op)
				}
			}
			if m.Kind == MeasureExpectation && (m.Observable < 0 || m.Observable >= bound) {
				return fmt.Errorf("experiment %q: observable node %d not allocated", ex.Name, m.Observable)
			}
		}
	}
	return nil
}
