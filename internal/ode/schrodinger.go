package ode

import (
	"github.com/spinor-lang/spinor/internal/linalg"
)

// EvolveUnitary evolves a ket under the Schrödinger equation: for each grid
// gap dt it applies the exact propagator U = exp(-i·H·dt). The returned
// trajectory has one ket per grid point, starting with the initial ket
// itself.
func EvolveUnitary(h linalg.Matrix, ket linalg.Vector, times []float64) ([]linalg.Vector, error) {
	if err := checkGrid(times); err != nil {
		return nil, err
	}

	states := make([]linalg.Vector, 0, len(times))
	states = append(states, ket.Clone())

	// Uniform grids reuse one propagator across all gaps.
	var u linalg.Matrix
	var uDt float64
	haveU := false

	for i := 1; i < len(times); i++ {
		dt := times[i] - times[i-1]
		if !haveU || dt != uDt {
			var err error
			u, err = Propagator(h, dt)
			if err != nil {
				return nil, err
			}
			uDt, haveU = dt, true
		}
		next, err := linalg.ApplyUnitaryKet(u, states[i-1])
		if err != nil {
			return nil, err
		}
		states = append(states, next)
	}
	return states, nil
}

// Propagator returns exp(-i·H·dt).
func Propagator(h linalg.Matrix, dt float64) (linalg.Matrix, error) {
	return linalg.MatrixExp(h.Scale(complex(0, -dt)))
}
