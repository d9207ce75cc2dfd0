package linalg

import (
	"fmt"
	"math"
	"math/cmplx"
)

// generatorTol classifies matrix-exponential generators as Hermitian or
// skew-Hermitian. Relative to the largest element so scaling a Hamiltonian
// does not change the classification.
const generatorTol = 1e-12

// Dagger returns the conjugate transpose.
func Dagger(m Matrix) Matrix {
	out := NewMatrix(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			out.Set(j, i, cmplx.Conj(m.At(i, j)))
		}
	}
	return out
}

// Trace returns the sum of the diagonal. Defined only for square matrices.
func Trace(m Matrix) (complex128, error) {
	if !m.IsSquare() {
		return 0, &DimensionError{
			Expected: fmt.Sprintf("%dx%d", m.Rows, m.Rows),
			Actual:   fmt.Sprintf("%dx%d", m.Rows, m.Cols),
		}
	}
	var sum complex128
	for i := 0; i < m.Rows; i++ {
		sum += m.At(i, i)
	}
	return sum, nil
}

// Commutator returns [A, B] = AB - BA.
func Commutator(a, b Matrix) (Matrix, error) {
	ab, err := a.Mul(b)
	if err != nil {
		return Matrix{}, err
	}
	ba, err := b.Mul(a)
	if err != nil {
		return Matrix{}, err
	}
	return ab.Sub(ba)
}

// TensorProduct returns A ⊗ B with the interleaved index convention:
// element (i·rows_B+k, j·cols_B+l) = A[i,j]·B[k,l].
func TensorProduct(a, b Matrix) Matrix {
	out := NewMatrix(a.Rows*b.Rows, a.Cols*b.Cols)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			aij := a.At(i, j)
			if aij == 0 {
				continue
			}
			for k := 0; k < b.Rows; k++ {
				for l := 0; l < b.Cols; l++ {
					out.Set(i*b.Rows+k, j*b.Cols+l, aij*b.At(k, l))
				}
			}
		}
	}
	return out
}

// MatrixExp computes e^A via eigendecomposition. The engine only exponentiates
// Hermitian matrices and skew-Hermitian generators of the form -iHt, so the
// kernel classifies A and routes both cases through the Hermitian solver:
//
//	A Hermitian:       A = V·diag(λ)·V†,   e^A = V·diag(e^λ)·V†
//	A skew-Hermitian:  iA Hermitian = V·diag(λ)·V†, e^A = V·diag(e^{-iλ})·V†
//
// Anything else is rejected rather than exponentiated inaccurately.
func MatrixExp(a Matrix) (Matrix, error) {
	if !a.IsSquare() {
		return Matrix{}, &DimensionError{
			Expected: fmt.Sprintf("%dx%d", a.Rows, a.Rows),
			Actual:   fmt.Sprintf("%dx%d", a.Rows, a.Cols),
		}
	}
	scale := a.MaxAbs()
	tol := generatorTol * (1 + scale)

	switch {
	case hermitianDeviation(a) <= tol:
		eigs, v, err := EigH(a)
		if err != nil {
			return Matrix{}, err
		}
		return reconstruct(v, eigs, func(l float64) complex128 {
			return complex(math.Exp(l), 0)
		}), nil
	case skewHermitianDeviation(a) <= tol:
		h := a.Scale(complex(0, 1)) // iA is Hermitian
		eigs, v, err := EigH(h)
		if err != nil {
			return Matrix{}, err
		}
		return reconstruct(v, eigs, func(l float64) complex128 {
			return cmplx.Exp(complex(0, -l))
		}), nil
	default:
		return Matrix{}, &DecompositionError{
			Op:     "matrix exponential",
			Reason: "generator is neither Hermitian nor skew-Hermitian",
		}
	}
}

// reconstruct builds V·diag(f(λ))·V†.
func reconstruct(v Matrix, eigs []float64, f func(float64) complex128) Matrix {
	n := v.Rows
	fe := make([]complex128, n)
	for k, l := range eigs {
		fe[k] = f(l)
	}
	out := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for k := 0; k < n; k++ {
				sum += v.At(i, k) * fe[k] * cmplx.Conj(v.At(j, k))
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// ApplyUnitaryKet returns U·ψ.
func ApplyUnitaryKet(u Matrix, ket Vector) (Vector, error) {
	return u.MulVec(ket)
}

// ApplyUnitaryRho returns UρU†.
func ApplyUnitaryRho(u, rho Matrix) (Matrix, error) {
	ur, err := u.Mul(rho)
	if err != nil {
		return Matrix{}, err
	}
	return ur.Mul(Dagger(u))
}

// Expectation returns Tr(Oρ). The caller takes the real part as the physical
// observable; the full complex value is returned so the imaginary residue
// stays inspectable.
func Expectation(observable, rho Matrix) (complex128, error) {
	prod, err := observable.Mul(rho)
	if err != nil {
		return 0, err
	}
	return Trace(prod)
}

// MeasureProbabilities returns Re(Tr(P_k ρ)) for each operator, floored at
// zero to absorb numerical noise, then renormalized to sum to one. When the
// raw sum is non-positive the all-zero vector is returned unnormalized,
// avoiding a division by zero. Used for both projective measurements and
// POVM effects.
func MeasureProbabilities(operators []Matrix, rho Matrix) ([]float64, error) {
	probs := make([]float64, len(operators))
	var sum float64
	for k, op := range operators {
		ev, err := Expectation(op, rho)
		if err != nil {
			return nil, err
		}
		p := real(ev)
		if p < 0 {
			p = 0
		}
		probs[k] = p
		sum += p
	}
	if sum > 0 {
		for k := range probs {
			probs[k] /= sum
		}
	}
	return probs, nil
}

// KetToRho converts a pure state to its density matrix: ρ[i,j] = ψ_i·conj(ψ_j).
func KetToRho(ket Vector) Matrix {
	n := len(ket)
	rho := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rho.Set(i, j, ket[i]*cmplx.Conj(ket[j]))
		}
	}
	return rho
}

// HermitianDeviation returns max |M[i,j] - conj(M[j,i])| over all entries,
// the quantity the validator compares against its tolerance.
func HermitianDeviation(m Matrix) float64 { return hermitianDeviation(m) }

func hermitianDeviation(m Matrix) float64 {
	if !m.IsSquare() {
		return math.Inf(1)
	}
	var max float64
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if d := cabs(m.At(i, j) - cmplx.Conj(m.At(j, i))); d > max {
				max = d
			}
		}
	}
	return max
}

func skewHermitianDeviation(m Matrix) float64 {
	if !m.IsSquare() {
		return math.Inf(1)
	}
	var max float64
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if d := cabs(m.At(i, j) + cmplx.Conj(m.At(j, i))); d > max {
				max = d
			}
		}
	}
	return max
}
