package executor

import (
	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/linalg"
)

// StateType records the representation an experiment evolved.
type StateType string

const (
	PureState     StateType = "pure_state"
	DensityMatrix StateType = "density_matrix"
)

// MeasurementResult is one scheduled measurement's outcome.
type MeasurementResult struct {
	Time float64            `json:"time"`
	Kind ir.MeasurementKind `json:"kind"`

	// Projective and POVM outcomes.
	Probabilities []float64 `json:"probabilities,omitempty"`

	// Expectation outcome. The imaginary part is numerical noise for a
	// Hermitian observable; it is reported rather than discarded.
	Expectation *linalg.Complex `json:"expectation,omitempty"`
}

// ExperimentResult is one experiment's trajectory summary and measurements.
type ExperimentResult struct {
	Name         string              `json:"name"`
	Times        []float64           `json:"times"`
	StateType    StateType           `json:"state_type"`
	Measurements []MeasurementResult `json:"measurements,omitempty"`

	// FinalState is the density matrix at the last grid point.
	FinalState linalg.Matrix `json:"final_state"`
}

// ExecutionResult collects all experiment results of one program run.
type ExecutionResult struct {
	Experiments []ExperimentResult `json:"experiments"`
}
