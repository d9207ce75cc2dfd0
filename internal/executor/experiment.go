package executor

import (
	"log/slog"

	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/linalg"
	"github.com/spinor-lang/spinor/internal/ode"
)

// runExperiment evolves the experiment's state over its grid and evaluates
// the scheduled measurements against the stored trajectory.
func (ev *evaluation) runExperiment(ex *ir.Experiment) (*ExperimentResult, error) {
	slog.Debug("running experiment", "name", ex.Name)

	init, err := ev.value(ex.InitialState)
	if err != nil {
		return nil, err
	}

	times := []float64{0}
	stateType := DensityMatrix
	var rhos []linalg.Matrix

	switch {
	case ex.Evolution == nil:
		rho, err := ev.rho(ex.InitialState, ex.InitialState)
		if err != nil {
			return nil, err
		}
		rhos = []linalg.Matrix{rho}

	case ex.Evolution.Method == ir.EvolveSchrodinger:
		ket, ok := init.(ir.VectorValue)
		if !ok {
			return nil, execf(ex.InitialState, CodeState,
				"experiment %q: Schrödinger evolution requires an initial ket, got %s",
				ex.Name, init.Kind())
		}
		h, err := ev.matrix(ex.Evolution.Hamiltonian, ex.Evolution.Hamiltonian)
		if err != nil {
			return nil, err
		}
		kets, err := ode.EvolveUnitary(h, ket.Vec(), ex.Evolution.Times)
		if err != nil {
			return nil, execf(-1, CodeExec, "experiment %q: %v", ex.Name, err)
		}
		times = ex.Evolution.Times
		stateType = PureState
		rhos = make([]linalg.Matrix, len(kets))
		for i, k := range kets {
			rhos[i] = linalg.KetToRho(k)
		}

	case ex.Evolution.Method == ir.EvolveLindblad:
		rho0, err := ev.rho(ex.InitialState, ex.InitialState)
		if err != nil {
			return nil, err
		}
		h, err := ev.matrix(ex.Evolution.Hamiltonian, ex.Evolution.Hamiltonian)
		if err != nil {
			return nil, err
		}
		ops, err := ev.jumpOperators(ex.InitialState, ex.Evolution.Operators)
		if err != nil {
			return nil, err
		}
		r, err := ode.NewRK4(h, ops)
		if err != nil {
			return nil, execf(-1, CodeExec, "experiment %q: %v", ex.Name, err)
		}
		rhos, err = r.Integrate(rho0, ex.Evolution.Times)
		if err != nil {
			return nil, execf(-1, CodeExec, "experiment %q: %v", ex.Name, err)
		}
		times = ex.Evolution.Times

	default:
		return nil, execf(-1, CodeExec, "experiment %q: unknown evolution method %q",
			ex.Name, ex.Evolution.Method)
	}

	measurements, err := ev.runMeasurements(ex, times, rhos)
	if err != nil {
		return nil, err
	}

	slog.Debug("experiment complete",
		"name", ex.Name,
		"points", len(times),
		"measurements", len(measurements))

	return &ExperimentResult{
		Name:         ex.Name,
		Times:        times,
		StateType:    stateType,
		Measurements: measurements,
		FinalState:   rhos[len(rhos)-1],
	}, nil
}

func (ev *evaluation) runMeasurements(ex *ir.Experiment, times []float64, rhos []linalg.Matrix) ([]MeasurementResult, error) {
	out := make([]MeasurementResult, 0, len(ex.Measurements))
	for _, m := range ex.Measurements {
		if m.TimeIndex < 0 || m.TimeIndex >= len(rhos) {
			return nil, execf(-1, CodeExec,
				"experiment %q: measurement time index %d outside trajectory of %d points",
				ex.Name, m.TimeIndex, len(rhos))
		}
		rho := rhos[m.TimeIndex]
		res := MeasurementResult{Time: times[m.TimeIndex], Kind: m.Kind}

		switch m.Kind {
		case ir.MeasureExpectation:
			obs, err := ev.matrix(m.Observable, m.Observable)
			if err != nil {
				return nil, err
			}
			z, err := linalg.Expectation(obs, rho)
			if err != nil {
				return nil, execf(-1, CodeExec, "experiment %q: %v", ex.Name, err)
			}
			c := linalg.FromComplex(z)
			res.Expectation = &c

		case ir.MeasureProjective, ir.MeasurePOVM:
			ops := make([]linalg.Matrix, 0, len(m.Operators))
			for _, id := range m.Operators {
				op, err := ev.matrix(id, id)
				if err != nil {
					return nil, err
				}
				ops = append(ops, op)
			}
			probs, err := linalg.MeasureProbabilities(ops, rho)
			if err != nil {
				return nil, execf(-1, CodeExec, "experiment %q: %v", ex.Name, err)
			}
			res.Probabilities = probs

		default:
			return nil, execf(-1, CodeExec, "experiment %q: unknown measurement kind %q",
				ex.Name, m.Kind)
		}
		out = append(out, res)
	}
	return out, nil
}

