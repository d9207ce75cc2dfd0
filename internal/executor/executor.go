package executor

import (
	"log/slog"

	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/linalg"
	"github.com/spinor-lang/spinor/internal/ode"
)

// Executor runs IR programs on the configured backend. Safe for sequential
// reuse; each Execute call evaluates with a fresh memo table.
type Executor struct {
	config BackendConfig
}

// New rejects backends other than the dense CPU one.
func New(config BackendConfig) (*Executor, error) {
	if config.BackendType == "" {
		config.BackendType = CPUDense
	}
	if config.BackendType != CPUDense {
		return nil, &Error{Code: CodeBackend, Node: -1,
			Message: "backend " + string(config.BackendType) + " is not implemented"}
	}
	return &Executor{config: config}, nil
}

// Execute evaluates every experiment in the program.
func (e *Executor) Execute(prog *ir.Program) (*ExecutionResult, error) {
	if err := prog.Verify(); err != nil {
		return nil, execf(-1, CodeExec, "malformed program: %v", err)
	}

	slog.Info("executing program",
		"backend", e.config.BackendType,
		"nodes", len(prog.Nodes),
		"experiments", len(prog.Experiments))

	ev := &evaluation{prog: prog, cache: make([]ir.Value, len(prog.Nodes))}
	out := &ExecutionResult{}
	for i := range prog.Experiments {
		res, err := ev.runExperiment(&prog.Experiments[i])
		if err != nil {
			return nil, err
		}
		out.Experiments = append(out.Experiments, *res)
	}
	return out, nil
}

// evaluation is the per-run state: the program and one cached Value per node.
type evaluation struct {
	prog  *ir.Program
	cache []ir.Value
}

// value evaluates a node, memoizing the result.
func (ev *evaluation) value(id ir.NodeID) (ir.Value, error) {
	if v := ev.cache[id]; v != nil {
		return v, nil
	}
	v, err := ev.eval(&ev.prog.Nodes[id])
	if err != nil {
		return nil, err
	}
	ev.cache[id] = v
	return v, nil
}

func (ev *evaluation) eval(n *ir.Node) (ir.Value, error) {
	switch n.Op {
	case ir.OpLoadMatrix:
		return ir.MatrixValue(*n.Matrix), nil
	case ir.OpLoadVector:
		return ir.VectorValue(n.Vector), nil
	case ir.OpScalar:
		return ir.ScalarValue(n.Scalar.C()), nil

	case ir.OpAdd, ir.OpSub:
		return ev.evalAddSub(n)
	case ir.OpMul:
		return ev.evalMul(n)
	case ir.OpScalarMul:
		return ev.evalScalarMul(n)

	case ir.OpTensor:
		a, err := ev.matrix(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		b, err := ev.matrix(n.ID, n.Operands[1])
		if err != nil {
			return nil, err
		}
		return ir.MatrixValue(linalg.TensorProduct(a, b)), nil

	case ir.OpDagger:
		v, err := ev.value(n.Operands[0])
		if err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case ir.ScalarValue:
			z := complex128(x)
			return ir.ScalarValue(complex(real(z), -imag(z))), nil
		case ir.MatrixValue:
			return ir.MatrixValue(linalg.Dagger(x.Mat())), nil
		default:
			return nil, execf(n.ID, CodeKind, "dagger of a %s", v.Kind())
		}

	case ir.OpTrace:
		m, err := ev.matrix(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		tr, err := linalg.Trace(m)
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		return ir.ScalarValue(tr), nil

	case ir.OpCommutator:
		a, err := ev.matrix(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		b, err := ev.matrix(n.ID, n.Operands[1])
		if err != nil {
			return nil, err
		}
		c, err := linalg.Commutator(a, b)
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		return ir.MatrixValue(c), nil

	case ir.OpMatrixExp:
		m, err := ev.matrix(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		out, err := linalg.MatrixExp(m)
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		return ir.MatrixValue(out), nil

	case ir.OpUnitaryPropagator:
		h, err := ev.matrix(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		u, err := ode.Propagator(h, n.Time)
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		return ir.MatrixValue(u), nil

	case ir.OpApplyUnitaryKet:
		u, err := ev.matrix(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		ket, err := ev.vector(n.ID, n.Operands[1])
		if err != nil {
			return nil, err
		}
		out, err := linalg.ApplyUnitaryKet(u, ket)
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		return ir.VectorValue(out), nil

	case ir.OpApplyUnitaryRho:
		u, err := ev.matrix(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		rho, err := ev.matrix(n.ID, n.Operands[1])
		if err != nil {
			return nil, err
		}
		out, err := linalg.ApplyUnitaryRho(u, rho)
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		return ir.MatrixValue(out), nil

	case ir.OpIntegrateLindblad:
		return ev.evalIntegrateLindblad(n)

	case ir.OpExpectation:
		obs, err := ev.matrix(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		rho, err := ev.rho(n.ID, n.Operands[1])
		if err != nil {
			return nil, err
		}
		z, err := linalg.Expectation(obs, rho)
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		return ir.ScalarValue(z), nil

	case ir.OpProjective:
		rho, err := ev.rho(n.ID, n.Operands[0])
		if err != nil {
			return nil, err
		}
		ops := make([]linalg.Matrix, 0, len(n.Operands)-1)
		for _, id := range n.Operands[1:] {
			m, err := ev.matrix(n.ID, id)
			if err != nil {
				return nil, err
			}
			ops = append(ops, m)
		}
		probs, err := linalg.MeasureProbabilities(ops, rho)
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		out := make(linalg.Vector, len(probs))
		for i, p := range probs {
			out[i] = complex(p, 0)
		}
		return ir.VectorValue(out), nil

	default:
		return nil, execf(n.ID, CodeExec, "unknown op %q", n.Op)
	}
}

func (ev *evaluation) evalAddSub(n *ir.Node) (ir.Value, error) {
	a, err := ev.value(n.Operands[0])
	if err != nil {
		return nil, err
	}
	b, err := ev.value(n.Operands[1])
	if err != nil {
		return nil, err
	}
	sub := n.Op == ir.OpSub
	switch x := a.(type) {
	case ir.ScalarValue:
		y, ok := b.(ir.ScalarValue)
		if !ok {
			return nil, execf(n.ID, CodeKind, "%s of scalar and %s", n.Op, b.Kind())
		}
		if sub {
			return ir.ScalarValue(complex128(x) - complex128(y)), nil
		}
		return ir.ScalarValue(complex128(x) + complex128(y)), nil
	case ir.MatrixValue:
		y, ok := b.(ir.MatrixValue)
		if !ok {
			return nil, execf(n.ID, CodeKind, "%s of matrix and %s", n.Op, b.Kind())
		}
		var m linalg.Matrix
		if sub {
			m, err = x.Mat().Sub(y.Mat())
		} else {
			m, err = x.Mat().Add(y.Mat())
		}
		if err != nil {
			return nil, execf(n.ID, CodeExec, "%v", err)
		}
		return ir.MatrixValue(m), nil
	default:
		return nil, execf(n.ID, CodeKind, "%s of %s values", n.Op, a.Kind())
	}
}

func (ev *evaluation) evalMul(n *ir.Node) (ir.Value, error) {
	a, err := ev.value(n.Operands[0])
	if err != nil {
		return nil, err
	}
	b, err := ev.value(n.Operands[1])
	if err != nil {
		return nil, err
	}
	switch x := a.(type) {
	case ir.ScalarValue:
		if y, ok := b.(ir.ScalarValue); ok {
			return ir.ScalarValue(complex128(x) * complex128(y)), nil
		}
	case ir.MatrixValue:
		switch y := b.(type) {
		case ir.MatrixValue:
			m, err := x.Mat().Mul(y.Mat())
			if err != nil {
				return nil, execf(n.ID, CodeExec, "%v", err)
			}
			return ir.MatrixValue(m), nil
		case ir.VectorValue:
			v, err := x.Mat().MulVec(y.Vec())
			if err != nil {
				return nil, execf(n.ID, CodeExec, "%v", err)
			}
			return ir.VectorValue(v), nil
		}
	}
	return nil, execf(n.ID, CodeKind, "mul of %s and %s", a.Kind(), b.Kind())
}

func (ev *evaluation) evalScalarMul(n *ir.Node) (ir.Value, error) {
	a, err := ev.value(n.Operands[0])
	if err != nil {
		return nil, err
	}
	s, ok := a.(ir.ScalarValue)
	if !ok {
		return nil, execf(n.ID, CodeKind, "scalar_mul factor is a %s", a.Kind())
	}
	b, err := ev.value(n.Operands[1])
	if err != nil {
		return nil, err
	}
	z := complex128(s)
	switch y := b.(type) {
	case ir.ScalarValue:
		return ir.ScalarValue(z * complex128(y)), nil
	case ir.VectorValue:
		out := make(linalg.Vector, len(y))
		for i, e := range y.Vec() {
			out[i] = z * e
		}
		return ir.VectorValue(out), nil
	case ir.MatrixValue:
		return ir.MatrixValue(y.Mat().Scale(z)), nil
	default:
		return nil, execf(n.ID, CodeKind, "scalar_mul of %s", b.Kind())
	}
}

// evalIntegrateLindblad integrates the master equation and yields the final
// density matrix as the node's value.
func (ev *evaluation) evalIntegrateLindblad(n *ir.Node) (ir.Value, error) {
	h, err := ev.matrix(n.ID, n.Operands[0])
	if err != nil {
		return nil, err
	}
	rho0, err := ev.rho(n.ID, n.Operands[1])
	if err != nil {
		return nil, err
	}
	ops, err := ev.jumpOperators(n.ID, n.Lindblad)
	if err != nil {
		return nil, err
	}
	r, err := ode.NewRK4(h, ops)
	if err != nil {
		return nil, execf(n.ID, CodeExec, "%v", err)
	}
	states, err := r.Integrate(rho0, n.Times)
	if err != nil {
		return nil, execf(n.ID, CodeExec, "%v", err)
	}
	return ir.MatrixValue(states[len(states)-1]), nil
}

func (ev *evaluation) jumpOperators(blame ir.NodeID, lindblad []ir.LindbladOperator) ([]ode.JumpOperator, error) {
	ops := make([]ode.JumpOperator, 0, len(lindblad))
	for _, l := range lindblad {
		m, err := ev.matrix(blame, l.Operator)
		if err != nil {
			return nil, err
		}
		ops = append(ops, ode.JumpOperator{L: m, Rate: l.Rate})
	}
	return ops, nil
}

// matrix evaluates an operand and requires a matrix.
func (ev *evaluation) matrix(blame, id ir.NodeID) (linalg.Matrix, error) {
	v, err := ev.value(id)
	if err != nil {
		return linalg.Matrix{}, err
	}
	m, ok := v.(ir.MatrixValue)
	if !ok {
		return linalg.Matrix{}, execf(blame, CodeKind, "operand %d is a %s, want matrix", id, v.Kind())
	}
	return m.Mat(), nil
}

// vector evaluates an operand and requires a ket.
func (ev *evaluation) vector(blame, id ir.NodeID) (linalg.Vector, error) {
	v, err := ev.value(id)
	if err != nil {
		return nil, err
	}
	k, ok := v.(ir.VectorValue)
	if !ok {
		return nil, execf(blame, CodeKind, "operand %d is a %s, want vector", id, v.Kind())
	}
	return k.Vec(), nil
}

// rho evaluates an operand as a density matrix, promoting kets.
func (ev *evaluation) rho(blame, id ir.NodeID) (linalg.Matrix, error) {
	v, err := ev.value(id)
	if err != nil {
		return linalg.Matrix{}, err
	}
	switch x := v.(type) {
	case ir.MatrixValue:
		return x.Mat(), nil
	case ir.VectorValue:
		return linalg.KetToRho(x.Vec()), nil
	default:
		return linalg.Matrix{}, execf(blame, CodeKind, "operand %d is a %s, want a state", id, v.Kind())
	}
}
