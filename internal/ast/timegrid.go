package ast

// TimeGrid describes the time points of an evolution clause. Exactly one of
// the two forms is used: a regular grid (t0, dt, n_steps) or an explicit list
// of times.
type TimeGrid struct {
	// Regular grid: NSteps+1 equally spaced points starting at T0.
	T0     float64 `json:"t0,omitempty"`
	Dt     float64 `json:"dt,omitempty"`
	NSteps int     `json:"n_steps,omitempty"`

	// Explicit grid, used as-is when non-empty.
	Explicit []float64 `json:"explicit,omitempty"`
}

// Times flattens the grid into its list of time points.
func (g TimeGrid) Times() []float64 {
	if len(g.Explicit) > 0 {
		out := make([]float64, len(g.Explicit))
		copy(out, g.Explicit)
		return out
	}
	out := make([]float64, g.NSteps+1)
	for i := range out {
		out[i] = g.T0 + float64(i)*g.Dt
	}
	return out
}

// Len reports the number of time points the grid expands to.
func (g TimeGrid) Len() int {
	if len(g.Explicit) > 0 {
		return len(g.Explicit)
	}
	return g.NSteps + 1
}
