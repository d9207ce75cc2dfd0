package linalg

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mat2(a, b, c, d complex128) Matrix {
	m, err := MatrixFromRows([][]complex128{{a, b}, {c, d}})
	if err != nil {
		panic(err)
	}
	return m
}

func sigmaX() Matrix { return mat2(0, 1, 1, 0) }
func sigmaY() Matrix { return mat2(0, complex(0, -1), complex(0, 1), 0) }
func sigmaZ() Matrix { return mat2(1, 0, 0, -1) }

func TestDaggerInvolution(t *testing.T) {
	m := mat2(1, complex(0, 1), complex(2, -3), complex(0.5, 0.25))
	back := Dagger(Dagger(m))
	assert.Equal(t, m.Data, back.Data, "two conjugate-transposes must cancel exactly")
}

func TestDaggerConjugatesOffDiagonal(t *testing.T) {
	m := mat2(1, complex(0, 1), complex(0, -1), 1)
	d := Dagger(m)
	assert.Equal(t, complex128(complex(0, 1)), d.At(0, 1))
	assert.Equal(t, complex128(complex(0, -1)), d.At(1, 0))
}

func TestTraceIdentity(t *testing.T) {
	for n := 1; n <= 4; n++ {
		tr, err := Trace(Identity(n))
		require.NoError(t, err)
		assert.InDelta(t, float64(n), real(tr), 1e-12)
		assert.InDelta(t, 0, imag(tr), 1e-12)
	}
}

func TestTraceNonSquareFails(t *testing.T) {
	m := NewMatrix(2, 3)
	_, err := Trace(m)
	require.Error(t, err)
	assert.True(t, IsDimensionError(err))
}

func TestCommutatorWithSelfIsZero(t *testing.T) {
	a := mat2(1, complex(2, 1), complex(0, -1), 3)
	c, err := Commutator(a, a)
	require.NoError(t, err)
	for _, x := range c.Data {
		assert.Zero(t, x)
	}
}

func TestCommutatorPauli(t *testing.T) {
	// [sigma_x, sigma_y] = 2i sigma_z
	c, err := Commutator(sigmaX(), sigmaY())
	require.NoError(t, err)
	want := sigmaZ().Scale(complex(0, 2))
	for i, x := range c.Data {
		assert.InDelta(t, real(want.Data[i]), real(x), 1e-12)
		assert.InDelta(t, imag(want.Data[i]), imag(x), 1e-12)
	}
}

func TestTensorProductShape(t *testing.T) {
	a := NewMatrix(2, 3)
	b := NewMatrix(4, 5)
	out := TensorProduct(a, b)
	assert.Equal(t, 8, out.Rows)
	assert.Equal(t, 15, out.Cols)
}

func TestTensorProductInterleaving(t *testing.T) {
	// (sigma_z ⊗ I)[2,2] must be sigma_z[1,1]·I[0,0] = -1, the interleaved
	// layout, not a block-concatenated one.
	out := TensorProduct(sigmaZ(), Identity(2))
	assert.Equal(t, 4, out.Rows)
	assert.Equal(t, complex128(1), out.At(0, 0))
	assert.Equal(t, complex128(-1), out.At(2, 2))
	assert.Equal(t, complex128(-1), out.At(3, 3))
	assert.Equal(t, complex128(0), out.At(0, 2))
}

func TestMatrixExpZeroIsIdentity(t *testing.T) {
	for n := 1; n <= 4; n++ {
		out, err := MatrixExp(NewMatrix(n, n))
		require.NoError(t, err)
		id := Identity(n)
		for i := range out.Data {
			assert.InDelta(t, real(id.Data[i]), real(out.Data[i]), 1e-10)
			assert.InDelta(t, imag(id.Data[i]), imag(out.Data[i]), 1e-10)
		}
	}
}

func TestMatrixExpSkewHermitianIsUnitary(t *testing.T) {
	// exp(-i sigma_x t) must be unitary: U·U† = I.
	gen := sigmaX().Scale(complex(0, -0.7))
	u, err := MatrixExp(gen)
	require.NoError(t, err)
	prod, err := u.Mul(Dagger(u))
	require.NoError(t, err)
	id := Identity(2)
	for i := range prod.Data {
		assert.InDelta(t, real(id.Data[i]), real(prod.Data[i]), 1e-10)
		assert.InDelta(t, imag(id.Data[i]), imag(prod.Data[i]), 1e-10)
	}
}

func TestMatrixExpDiagonalPhases(t *testing.T) {
	// exp(-i sigma_z t) is diag(e^{-it}, e^{it}).
	tt := 0.3
	gen := sigmaZ().Scale(complex(0, -tt))
	u, err := MatrixExp(gen)
	require.NoError(t, err)
	want00 := cmplx.Exp(complex(0, -tt))
	want11 := cmplx.Exp(complex(0, tt))
	assert.InDelta(t, real(want00), real(u.At(0, 0)), 1e-10)
	assert.InDelta(t, imag(want00), imag(u.At(0, 0)), 1e-10)
	assert.InDelta(t, real(want11), real(u.At(1, 1)), 1e-10)
	assert.InDelta(t, imag(want11), imag(u.At(1, 1)), 1e-10)
	assert.InDelta(t, 0, cabs(u.At(0, 1)), 1e-10)
}

func TestMatrixExpHermitian(t *testing.T) {
	// exp(sigma_z) = diag(e, 1/e).
	u, err := MatrixExp(sigmaZ())
	require.NoError(t, err)
	assert.InDelta(t, math.E, real(u.At(0, 0)), 1e-10)
	assert.InDelta(t, 1/math.E, real(u.At(1, 1)), 1e-10)
}

func TestMatrixExpRejectsGeneralGenerator(t *testing.T) {
	// Neither Hermitian nor skew-Hermitian.
	m := mat2(1, 2, 0, 1)
	_, err := MatrixExp(m)
	require.Error(t, err)
	var de *DecompositionError
	assert.ErrorAs(t, err, &de)
}

func TestKetToRho(t *testing.T) {
	ket := Vector{complex(1/math.Sqrt2, 0), complex(0, 1/math.Sqrt2)}
	rho := KetToRho(ket)

	tr, err := Trace(rho)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, real(tr), 1e-12)
	assert.InDelta(t, 0.5, real(rho.At(0, 0)), 1e-12, "diagonal must be |psi_i|^2")
	assert.InDelta(t, 0.5, real(rho.At(1, 1)), 1e-12)
}

func TestExpectationSigmaZ(t *testing.T) {
	rho := KetToRho(Vector{1, 0})
	ev, err := Expectation(sigmaZ(), rho)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, real(ev), 1e-12)

	rho = KetToRho(Vector{0, 1})
	ev, err = Expectation(sigmaZ(), rho)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, real(ev), 1e-12)
}

func TestMeasureProbabilitiesCompleteSetSumsToOne(t *testing.T) {
	p0 := mat2(1, 0, 0, 0)
	p1 := mat2(0, 0, 0, 1)
	ket := Vector{complex(math.Sqrt(0.3), 0), complex(math.Sqrt(0.7), 0)}
	rho := KetToRho(ket)

	probs, err := MeasureProbabilities([]Matrix{p0, p1}, rho)
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.InDelta(t, 0.3, probs[0], 1e-9)
	assert.InDelta(t, 0.7, probs[1], 1e-9)
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-9)
}

func TestMeasureProbabilitiesZeroSumLeftUnnormalized(t *testing.T) {
	zero := NewMatrix(2, 2)
	probs, err := MeasureProbabilities([]Matrix{zero, zero}, Identity(2))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, probs)
}

func TestApplyUnitaryRhoPreservesTrace(t *testing.T) {
	u, err := MatrixExp(sigmaY().Scale(complex(0, -0.4)))
	require.NoError(t, err)
	rho := KetToRho(Vector{1, 0})
	out, err := ApplyUnitaryRho(u, rho)
	require.NoError(t, err)
	tr, err := Trace(out)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, real(tr), 1e-10)
}
