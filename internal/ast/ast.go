package ast

// Program is the root of a parsed quantum DSL program.
type Program struct {
	Statements []Statement `json:"statements"`
}

// StatementKind discriminates top-level statements.
type StatementKind string

const (
	StmtConst       StatementKind = "const"
	StmtSymbol      StatementKind = "symbol"
	StmtMatrix      StatementKind = "matrix"
	StmtHamiltonian StatementKind = "hamiltonian"
	StmtMeasurement StatementKind = "measurement"
	StmtExperiment  StatementKind = "experiment"
)

// Statement is a single top-level declaration. Exactly the fields relevant to
// Kind are populated; the rest stay zero.
type Statement struct {
	Kind StatementKind `json:"kind"`
	Name string        `json:"name"`

	// StmtConst
	Value float64 `json:"value,omitempty"`

	// StmtMatrix
	Matrix *MatrixLit `json:"matrix,omitempty"`

	// StmtHamiltonian
	Expr *Expr `json:"expr,omitempty"`

	// StmtMeasurement
	Measurement *MeasurementSpec `json:"measurement,omitempty"`

	// StmtExperiment
	Experiment *ExperimentBody `json:"experiment,omitempty"`
}

// ExprKind discriminates expression nodes.
type ExprKind string

const (
	ExprNumber  ExprKind = "number"
	ExprComplex ExprKind = "complex"
	ExprIdent   ExprKind = "ident"
	ExprMatrix  ExprKind = "matrix"
	ExprVector  ExprKind = "vector"

	ExprAdd ExprKind = "add"
	ExprSub ExprKind = "sub"
	ExprMul ExprKind = "mul"
	ExprDiv ExprKind = "div"

	ExprDagger     ExprKind = "dagger"
	ExprTrace      ExprKind = "trace"
	ExprTensor     ExprKind = "tensor"
	ExprCommutator ExprKind = "commutator"
	ExprExpm       ExprKind = "expm"
)

// Expr is a kind-tagged expression node. Unary operators use Operands[0],
// binary operators Operands[0] and Operands[1].
type Expr struct {
	Kind ExprKind `json:"kind"`

	// ExprNumber and ExprComplex. A plain number carries Re only.
	Re float64 `json:"re,omitempty"`
	Im float64 `json:"im,omitempty"`

	// ExprIdent
	Name string `json:"name,omitempty"`

	// ExprMatrix / ExprVector
	Matrix *MatrixLit `json:"matrix,omitempty"`
	Vector *VectorLit `json:"vector,omitempty"`

	Operands []*Expr `json:"operands,omitempty"`
}

// MatrixLit is a rectangular 2D array of element expressions.
type MatrixLit struct {
	Rows [][]*Expr `json:"rows"`
}

// VectorLit is a 1D array of element expressions.
type VectorLit struct {
	Elements []*Expr `json:"elements"`
}

// MeasurementKind discriminates measurement specifications.
type MeasurementKind string

const (
	MeasureProjective MeasurementKind = "projective"
	MeasurePOVM       MeasurementKind = "povm"
	MeasureObservable MeasurementKind = "observable"
)

// MeasurementSpec declares how a named measurement extracts outcomes from a
// state. Projective measurements carry projectors, POVMs carry effects, and
// observable measurements carry a single operator expression whose expectation
// value is reported.
type MeasurementSpec struct {
	Kind       MeasurementKind `json:"kind"`
	Projectors []*MatrixLit    `json:"projectors,omitempty"`
	Effects    []*MatrixLit    `json:"effects,omitempty"`
	Observable *Expr           `json:"observable,omitempty"`
}

// ExperimentBody groups an experiment's initial state, optional evolution
// clause, and measurement schedule.
type ExperimentBody struct {
	Init         *StateSpec         `json:"init,omitempty"`
	Evolution    *EvolutionSpec     `json:"evolution,omitempty"`
	Measurements []MeasurementEvent `json:"measurements,omitempty"`
}

// StateSpec is the initial state: exactly one of Ket or Rho is set.
type StateSpec struct {
	Ket *VectorLit `json:"ket,omitempty"`
	Rho *MatrixLit `json:"rho,omitempty"`
}

// EvolutionSpec names the Hamiltonian to evolve under, the time grid, and any
// Lindblad dissipation terms. Zero Lindblad terms selects unitary evolution.
type EvolutionSpec struct {
	Hamiltonian string         `json:"hamiltonian"`
	Grid        TimeGrid       `json:"grid"`
	Lindblad    []LindbladTerm `json:"lindblad,omitempty"`
}

// LindbladTerm pairs a declared jump operator with its rate expression.
// Only rates that fold to a constant are executable; see internal/lowering.
type LindbladTerm struct {
	Operator string `json:"operator"`
	Rate     *Expr  `json:"rate"`
}

// MeasurementEvent schedules a named measurement at a wall-clock time.
type MeasurementEvent struct {
	Time        float64 `json:"time"`
	Measurement string  `json:"measurement"`
}
