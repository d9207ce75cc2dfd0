package lowering

import (
	"math"

	"github.com/spinor-lang/spinor/internal/ast"
	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/linalg"
	"github.com/spinor-lang/spinor/internal/validator"
)

// measurementDef is a lowered measurement declaration, waiting for experiment
// events to reference it.
type measurementDef struct {
	kind       ir.MeasurementKind
	operators  []ir.NodeID
	observable ir.NodeID
}

// Lowerer lowers one validated program into one IR program. Single-use.
type Lowerer struct {
	prog         ir.Program
	names        map[string]ir.NodeID
	constants    map[string]complex128
	measurements map[string]measurementDef

	// scalars marks arena nodes whose value is a scalar, so multiplication
	// can pick scalar_mul over mul without re-running shape inference.
	scalars map[ir.NodeID]bool
}

func New() *Lowerer {
	return &Lowerer{
		names:        map[string]ir.NodeID{},
		constants:    map[string]complex128{},
		measurements: map[string]measurementDef{},
		scalars:      map[ir.NodeID]bool{},
	}
}

// Lower converts the validated program to IR and verifies the arena's
// structural invariants before returning it.
func (l *Lowerer) Lower(vp *validator.ValidatedProgram) (*ir.Program, error) {
	for i := range vp.Typed.Program.Statements {
		if err := l.lowerStatement(&vp.Typed.Program.Statements[i]); err != nil {
			return nil, err
		}
	}
	if err := l.prog.Verify(); err != nil {
		return nil, internalf("program", "produced malformed arena: %v", err)
	}
	return &l.prog, nil
}

func (l *Lowerer) lowerStatement(stmt *ast.Statement) error {
	name := ir.CanonicalName(stmt.Name)
	switch stmt.Kind {
	case ast.StmtConst:
		l.constants[name] = complex(stmt.Value, 0)
		id := l.appendScalar(name, complex(stmt.Value, 0))
		l.names[name] = id
		return nil

	case ast.StmtSymbol:
		// Symbols have no runtime value; experiments must not reach them.
		return nil

	case ast.StmtMatrix:
		id, err := l.lowerMatrixLit(name, stmt.Matrix)
		if err != nil {
			return err
		}
		l.names[name] = id
		return nil

	case ast.StmtHamiltonian:
		id, err := l.lowerExpr(name, stmt.Expr)
		if err != nil {
			return err
		}
		l.names[name] = id
		return nil

	case ast.StmtMeasurement:
		return l.lowerMeasurementDecl(name, stmt.Measurement)

	case ast.StmtExperiment:
		ex, err := l.lowerExperiment(name, stmt.Experiment)
		if err != nil {
			return err
		}
		l.prog.Experiments = append(l.prog.Experiments, *ex)
		return nil

	default:
		return nil
	}
}

func (l *Lowerer) lowerMeasurementDecl(name string, spec *ast.MeasurementSpec) error {
	switch spec.Kind {
	case ast.MeasureProjective, ast.MeasurePOVM:
		lits := spec.Projectors
		kind := ir.MeasureProjective
		if spec.Kind == ast.MeasurePOVM {
			lits = spec.Effects
			kind = ir.MeasurePOVM
		}
		ops := make([]ir.NodeID, len(lits))
		for i, lit := range lits {
			id, err := l.lowerMatrixLit(name, lit)
			if err != nil {
				return err
			}
			ops[i] = id
		}
		l.measurements[name] = measurementDef{kind: kind, operators: ops}
		return nil

	case ast.MeasureObservable:
		id, err := l.lowerExpr(name, spec.Observable)
		if err != nil {
			return err
		}
		l.measurements[name] = measurementDef{kind: ir.MeasureExpectation, observable: id}
		return nil

	default:
		return unsupportedf(name, "measurement kind %q", spec.Kind)
	}
}

// lowerExpr lowers an expression tree into arena nodes and returns the root.
// Scalar subtrees that fold to a constant become single scalar nodes.
func (l *Lowerer) lowerExpr(context string, e *ast.Expr) (ir.NodeID, error) {
	if z, ok := l.foldScalar(e); ok {
		return l.appendScalar("", z), nil
	}

	switch e.Kind {
	case ast.ExprIdent:
		return l.lowerName(context, e.Name)

	case ast.ExprMatrix:
		return l.lowerMatrixLit(context, e.Matrix)

	case ast.ExprVector:
		return l.lowerVectorLit(context, e.Vector)

	case ast.ExprAdd, ast.ExprSub:
		op := ir.OpAdd
		if e.Kind == ast.ExprSub {
			op = ir.OpSub
		}
		return l.lowerBinary(context, op, e.Operands[0], e.Operands[1])

	case ast.ExprMul:
		left, err := l.lowerExpr(context, e.Operands[0])
		if err != nil {
			return 0, err
		}
		right, err := l.lowerExpr(context, e.Operands[1])
		if err != nil {
			return 0, err
		}
		switch {
		case l.scalars[left]:
			return l.append(ir.Node{Op: ir.OpScalarMul, Operands: []ir.NodeID{left, right}}), nil
		case l.scalars[right]:
			return l.append(ir.Node{Op: ir.OpScalarMul, Operands: []ir.NodeID{right, left}}), nil
		default:
			return l.append(ir.Node{Op: ir.OpMul, Operands: []ir.NodeID{left, right}}), nil
		}

	case ast.ExprDiv:
		// The divisor must fold to a constant; lower as a reciprocal scale.
		z, ok := l.foldScalar(e.Operands[1])
		if !ok {
			return 0, unsupportedf(context, "division requires a constant scalar divisor")
		}
		if z == 0 {
			return 0, unsupportedf(context, "division by zero")
		}
		left, err := l.lowerExpr(context, e.Operands[0])
		if err != nil {
			return 0, err
		}
		recip := l.appendScalar("", 1/z)
		return l.append(ir.Node{Op: ir.OpScalarMul, Operands: []ir.NodeID{recip, left}}), nil

	case ast.ExprDagger:
		return l.lowerUnary(context, ir.OpDagger, e.Operands[0])

	case ast.ExprTrace:
		id, err := l.lowerUnary(context, ir.OpTrace, e.Operands[0])
		if err != nil {
			return 0, err
		}
		l.scalars[id] = true
		return id, nil

	case ast.ExprExpm:
		return l.lowerUnary(context, ir.OpMatrixExp, e.Operands[0])

	case ast.ExprTensor:
		return l.lowerBinary(context, ir.OpTensor, e.Operands[0], e.Operands[1])

	case ast.ExprCommutator:
		return l.lowerBinary(context, ir.OpCommutator, e.Operands[0], e.Operands[1])

	default:
		return 0, unsupportedf(context, "expression kind %q", e.Kind)
	}
}

// lowerName resolves an identifier to its arena node. Predefined basis
// matrices are lowered on first reference.
func (l *Lowerer) lowerName(context, rawName string) (ir.NodeID, error) {
	name := ir.CanonicalName(rawName)
	if id, ok := l.names[name]; ok {
		return id, nil
	}
	if m, ok := linalg.Basis()[name]; ok {
		id := l.append(ir.Node{Op: ir.OpLoadMatrix, Name: name, Matrix: &m})
		l.names[name] = id
		return id, nil
	}
	return 0, internalf(context, "undefined identifier %q", rawName)
}

func (l *Lowerer) lowerUnary(context string, op ir.OpKind, inner *ast.Expr) (ir.NodeID, error) {
	id, err := l.lowerExpr(context, inner)
	if err != nil {
		return 0, err
	}
	return l.append(ir.Node{Op: op, Operands: []ir.NodeID{id}}), nil
}

func (l *Lowerer) lowerBinary(context string, op ir.OpKind, a, b *ast.Expr) (ir.NodeID, error) {
	left, err := l.lowerExpr(context, a)
	if err != nil {
		return 0, err
	}
	right, err := l.lowerExpr(context, b)
	if err != nil {
		return 0, err
	}
	return l.append(ir.Node{Op: op, Operands: []ir.NodeID{left, right}}), nil
}

func (l *Lowerer) lowerMatrixLit(name string, lit *ast.MatrixLit) (ir.NodeID, error) {
	rows := make([][]complex128, len(lit.Rows))
	for i, row := range lit.Rows {
		rows[i] = make([]complex128, len(row))
		for j, el := range row {
			z, ok := l.foldScalar(el)
			if !ok {
				return 0, unsupportedf(name, "matrix literal element [%d][%d] is not constant", i, j)
			}
			rows[i][j] = z
		}
	}
	m, err := linalg.MatrixFromRows(rows)
	if err != nil {
		return 0, internalf(name, "matrix literal: %v", err)
	}
	return l.append(ir.Node{Op: ir.OpLoadMatrix, Name: name, Matrix: &m}), nil
}

func (l *Lowerer) lowerVectorLit(name string, lit *ast.VectorLit) (ir.NodeID, error) {
	vec := make(linalg.Vector, len(lit.Elements))
	for i, el := range lit.Elements {
		z, ok := l.foldScalar(el)
		if !ok {
			return 0, unsupportedf(name, "vector literal element [%d] is not constant", i)
		}
		vec[i] = z
	}
	return l.append(ir.Node{Op: ir.OpLoadVector, Name: name, Vector: vec}), nil
}

func (l *Lowerer) lowerExperiment(name string, body *ast.ExperimentBody) (*ir.Experiment, error) {
	if body.Init == nil {
		return nil, internalf(name, "experiment without initial state survived validation")
	}

	var initID ir.NodeID
	var err error
	switch {
	case body.Init.Ket != nil:
		initID, err = l.lowerVectorLit(name+"/init_ket", body.Init.Ket)
	case body.Init.Rho != nil:
		initID, err = l.lowerMatrixLit(name+"/init_rho", body.Init.Rho)
	default:
		return nil, internalf(name, "initial state has neither ket nor rho")
	}
	if err != nil {
		return nil, err
	}

	var evolution *ir.Evolution
	times := []float64{0}
	if body.Evolution != nil {
		evolution, err = l.lowerEvolution(name, body.Evolution)
		if err != nil {
			return nil, err
		}
		times = evolution.Times
	}

	measurements := make([]ir.Measurement, 0, len(body.Measurements))
	for _, ev := range body.Measurements {
		def, ok := l.measurements[ir.CanonicalName(ev.Measurement)]
		if !ok {
			return nil, internalf(name, "measurement %q not declared", ev.Measurement)
		}
		// Without an evolution clause the only state is the initial one
		// at t=0; a later event time has no grid point to snap to.
		if body.Evolution == nil && ev.Time != 0 {
			return nil, unsupportedf(name, "measurement at t=%g requires an evolution clause", ev.Time)
		}
		measurements = append(measurements, ir.Measurement{
			TimeIndex:  closestIndex(times, ev.Time),
			Kind:       def.kind,
			Operators:  def.operators,
			Observable: def.observable,
		})
	}

	return &ir.Experiment{
		Name:         name,
		InitialState: initID,
		Evolution:    evolution,
		Measurements: measurements,
	}, nil
}

func (l *Lowerer) lowerEvolution(name string, spec *ast.EvolutionSpec) (*ir.Evolution, error) {
	hamID, err := l.lowerName(name, spec.Hamiltonian)
	if err != nil {
		return nil, internalf(name, "Hamiltonian %q not lowered", spec.Hamiltonian)
	}

	ev := &ir.Evolution{
		Method:      ir.EvolveSchrodinger,
		Hamiltonian: hamID,
		Times:       spec.Grid.Times(),
	}
	if len(spec.Lindblad) == 0 {
		return ev, nil
	}

	ev.Method = ir.EvolveLindblad
	for _, term := range spec.Lindblad {
		opID, err := l.lowerName(name, term.Operator)
		if err != nil {
			return nil, internalf(name, "Lindblad operator %q not lowered", term.Operator)
		}
		rate, ok := l.foldScalar(term.Rate)
		if !ok {
			return nil, unsupportedf(name, "Lindblad rate for %q does not fold to a constant", term.Operator)
		}
		if imag(rate) != 0 || real(rate) < 0 {
			return nil, unsupportedf(name, "Lindblad rate for %q must be a non-negative real number", term.Operator)
		}
		ev.Operators = append(ev.Operators, ir.LindbladOperator{Operator: opID, Rate: real(rate)})
	}
	return ev, nil
}

// foldScalar evaluates a pure scalar expression over numbers, complex
// literals, and declared constants. Identifiers that name matrices do not
// fold.
func (l *Lowerer) foldScalar(e *ast.Expr) (complex128, bool) {
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ast.ExprNumber, ast.ExprComplex:
		return complex(e.Re, e.Im), true
	case ast.ExprIdent:
		z, ok := l.constants[ir.CanonicalName(e.Name)]
		return z, ok
	case ast.ExprAdd, ast.ExprSub, ast.ExprMul, ast.ExprDiv:
		a, ok := l.foldScalar(e.Operands[0])
		if !ok {
			return 0, false
		}
		b, ok := l.foldScalar(e.Operands[1])
		if !ok {
			return 0, false
		}
		switch e.Kind {
		case ast.ExprAdd:
			return a + b, true
		case ast.ExprSub:
			return a - b, true
		case ast.ExprMul:
			return a * b, true
		default:
			if b == 0 {
				return 0, false
			}
			return a / b, true
		}
	case ast.ExprDagger:
		z, ok := l.foldScalar(e.Operands[0])
		if !ok {
			return 0, false
		}
		return complex(real(z), -imag(z)), true
	default:
		return 0, false
	}
}

func (l *Lowerer) append(n ir.Node) ir.NodeID {
	return l.prog.Append(n)
}

func (l *Lowerer) appendScalar(name string, z complex128) ir.NodeID {
	c := linalg.FromComplex(z)
	id := l.append(ir.Node{Op: ir.OpScalar, Name: name, Scalar: &c})
	l.scalars[id] = true
	return id
}

// closestIndex returns the index of the grid time nearest to t; ties resolve
// to the earlier index.
func closestIndex(times []float64, t float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, ti := range times {
		if d := math.Abs(ti - t); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
