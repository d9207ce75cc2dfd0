package ode

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid marks time-grid violations; inspect with errors.Is.
var ErrInvalidGrid = errors.New("invalid time grid")

// checkGrid rejects empty and non-increasing grids.
func checkGrid(times []float64) error {
	if len(times) == 0 {
		return fmt.Errorf("%w: no time points", ErrInvalidGrid)
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return fmt.Errorf("%w: t[%d]=%g is not after t[%d]=%g",
				ErrInvalidGrid, i, times[i], i-1, times[i-1])
		}
	}
	return nil
}
