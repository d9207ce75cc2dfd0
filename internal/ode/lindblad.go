package ode

import (
	"github.com/spinor-lang/spinor/internal/linalg"
)

// JumpOperator pairs a Lindblad jump operator with its rate γ.
type JumpOperator struct {
	L    linalg.Matrix
	Rate float64
}

// RK4 integrates the Lindblad master equation
//
//	dρ/dt = -i[H,ρ] + Σ_k γ_k (L_k ρ L_k† - ½{L_k†L_k, ρ})
//
// with the classical fourth-order Runge-Kutta scheme, one step per grid gap.
type RK4 struct {
	h   linalg.Matrix
	ops []JumpOperator

	// Precomputed per operator: L† and L†L.
	daggers []linalg.Matrix
	grams   []linalg.Matrix
}

// NewRK4 builds an integrator for a Hamiltonian and jump operator set. All
// operators must match the Hamiltonian's dimension.
func NewRK4(h linalg.Matrix, ops []JumpOperator) (*RK4, error) {
	r := &RK4{h: h, ops: ops}
	for _, op := range ops {
		d := linalg.Dagger(op.L)
		g, err := d.Mul(op.L)
		if err != nil {
			return nil, err
		}
		r.daggers = append(r.daggers, d)
		r.grams = append(r.grams, g)
	}
	return r, nil
}

// Integrate evolves ρ over the grid and returns one density matrix per grid
// point, starting with the initial state itself.
func (r *RK4) Integrate(rho linalg.Matrix, times []float64) ([]linalg.Matrix, error) {
	if err := checkGrid(times); err != nil {
		return nil, err
	}

	states := make([]linalg.Matrix, 0, len(times))
	states = append(states, rho.Clone())

	cur := rho.Clone()
	for i := 1; i < len(times); i++ {
		dt := times[i] - times[i-1]
		next, err := r.step(cur, dt)
		if err != nil {
			return nil, err
		}
		states = append(states, next)
		cur = next
	}
	return states, nil
}

// step advances one RK4 step of size dt.
func (r *RK4) step(rho linalg.Matrix, dt float64) (linalg.Matrix, error) {
	k1, err := r.derivative(rho)
	if err != nil {
		return linalg.Matrix{}, err
	}
	y2, err := rho.Add(k1.Scale(complex(dt/2, 0)))
	if err != nil {
		return linalg.Matrix{}, err
	}
	k2, err := r.derivative(y2)
	if err != nil {
		return linalg.Matrix{}, err
	}
	y3, err := rho.Add(k2.Scale(complex(dt/2, 0)))
	if err != nil {
		return linalg.Matrix{}, err
	}
	k3, err := r.derivative(y3)
	if err != nil {
		return linalg.Matrix{}, err
	}
	y4, err := rho.Add(k3.Scale(complex(dt, 0)))
	if err != nil {
		return linalg.Matrix{}, err
	}
	k4, err := r.derivative(y4)
	if err != nil {
		return linalg.Matrix{}, err
	}

	// rho + (dt/6)(k1 + 2k2 + 2k3 + k4)
	sum, err := k1.Add(k2.Scale(2))
	if err != nil {
		return linalg.Matrix{}, err
	}
	sum, err = sum.Add(k3.Scale(2))
	if err != nil {
		return linalg.Matrix{}, err
	}
	sum, err = sum.Add(k4)
	if err != nil {
		return linalg.Matrix{}, err
	}
	return rho.Add(sum.Scale(complex(dt/6, 0)))
}

// derivative evaluates the Lindblad right-hand side at ρ.
func (r *RK4) derivative(rho linalg.Matrix) (linalg.Matrix, error) {
	comm, err := linalg.Commutator(r.h, rho)
	if err != nil {
		return linalg.Matrix{}, err
	}
	drho := comm.Scale(complex(0, -1))

	for k, op := range r.ops {
		lRho, err := op.L.Mul(rho)
		if err != nil {
			return linalg.Matrix{}, err
		}
		sandwich, err := lRho.Mul(r.daggers[k])
		if err != nil {
			return linalg.Matrix{}, err
		}
		gRho, err := r.grams[k].Mul(rho)
		if err != nil {
			return linalg.Matrix{}, err
		}
		rhoG, err := rho.Mul(r.grams[k])
		if err != nil {
			return linalg.Matrix{}, err
		}
		anti, err := gRho.Add(rhoG)
		if err != nil {
			return linalg.Matrix{}, err
		}
		diss, err := sandwich.Sub(anti.Scale(0.5))
		if err != nil {
			return linalg.Matrix{}, err
		}
		drho, err = drho.Add(diss.Scale(complex(op.Rate, 0)))
		if err != nil {
			return linalg.Matrix{}, err
		}
	}
	return drho, nil
}
