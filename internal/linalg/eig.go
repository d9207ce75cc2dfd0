package linalg

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

const (
	eighMaxSweeps = 64
	eighOffTol    = 1e-13
)

// EigH computes the eigendecomposition of a Hermitian matrix using cyclic
// Jacobi rotations with complex phase. Returns the eigenvalues in ascending
// order and the matching eigenvectors as the columns of V, so that
// A = V·diag(λ)·V†.
//
// The input is not checked for Hermiticity; callers own that invariant
// (the validator checks it, MatrixExp classifies its generator first).
// A DecompositionError is returned if the off-diagonal mass has not
// annihilated after a bounded number of sweeps.
func EigH(a Matrix) ([]float64, Matrix, error) {
	if !a.IsSquare() {
		return nil, Matrix{}, &DimensionError{
			Expected: fmt.Sprintf("%dx%d", a.Rows, a.Rows),
			Actual:   fmt.Sprintf("%dx%d", a.Rows, a.Cols),
		}
	}
	n := a.Rows
	w := a.Clone()
	v := Identity(n)

	scale := w.MaxAbs()
	if scale == 0 {
		scale = 1
	}
	tol := eighOffTol * scale

	for sweep := 0; sweep < eighMaxSweeps; sweep++ {
		if offDiagNorm(w) <= tol {
			return sortedEig(w, v), v, nil
		}
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				rotate(&w, &v, p, q)
			}
		}
	}
	if offDiagNorm(w) <= tol {
		return sortedEig(w, v), v, nil
	}
	return nil, Matrix{}, &DecompositionError{
		Op:     "eigendecomposition",
		Reason: fmt.Sprintf("failed to converge after %d sweeps", eighMaxSweeps),
	}
}

// rotate applies one complex Jacobi rotation annihilating w[p][q].
func rotate(w, v *Matrix, p, q int) {
	b := w.At(p, q)
	absB := cabs(b)
	if absB == 0 {
		return
	}
	// Phase of the pivot and the real 2x2 rotation angle.
	phase := b / complex(absB, 0)
	theta := (real(w.At(q, q)) - real(w.At(p, p))) / (2 * absB)
	t := -1.0 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
	if theta < 0 {
		t = -t
	}
	c := 1 / math.Sqrt(t*t+1)
	s := t * c

	gpq := complex(-s, 0) * phase          // G[p][q]
	gqp := complex(s, 0) * cmplx.Conj(phase) // G[q][p]
	cc := complex(c, 0)

	n := w.Rows
	// W <- W·G (column update).
	for i := 0; i < n; i++ {
		wip, wiq := w.At(i, p), w.At(i, q)
		w.Set(i, p, cc*wip+gqp*wiq)
		w.Set(i, q, gpq*wip+cc*wiq)
	}
	// W <- G†·W (row update).
	for j := 0; j < n; j++ {
		wpj, wqj := w.At(p, j), w.At(q, j)
		w.Set(p, j, cc*wpj+cmplx.Conj(gqp)*wqj)
		w.Set(q, j, cmplx.Conj(gpq)*wpj+cc*wqj)
	}
	// V <- V·G accumulates eigenvectors.
	for i := 0; i < n; i++ {
		vip, viq := v.At(i, p), v.At(i, q)
		v.Set(i, p, cc*vip+gqp*viq)
		v.Set(i, q, gpq*vip+cc*viq)
	}
}

// sortedEig extracts the diagonal of the converged matrix, sorts ascending,
// and permutes the eigenvector columns of v to match in place.
func sortedEig(w Matrix, v Matrix) []float64 {
	n := w.Rows
	eigs := make([]float64, n)
	order := make([]int, n)
	for i := range eigs {
		eigs[i] = real(w.At(i, i))
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return eigs[order[a]] < eigs[order[b]] })

	sorted := make([]float64, n)
	cols := NewMatrix(n, n)
	for dst, src := range order {
		sorted[dst] = eigs[src]
		for i := 0; i < n; i++ {
			cols.Set(i, dst, v.At(i, src))
		}
	}
	copy(v.Data, cols.Data)
	return sorted
}

func offDiagNorm(m Matrix) float64 {
	var sum float64
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if i == j {
				continue
			}
			a := cabs(m.At(i, j))
			sum += a * a
		}
	}
	return math.Sqrt(sum)
}

func cabs(z complex128) float64 { return math.Hypot(real(z), imag(z)) }
