package bgmm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSymmetrize(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 4, 3})
	s := symmetrize(a)
	assert.Equal(t, 3.0, s.At(0, 1))
	assert.Equal(t, 3.0, s.At(1, 0))
	assert.Equal(t, 1.0, s.At(0, 0))
	assert.Equal(t, 3.0, s.At(1, 1))
}

func TestFactorizeSPD_NoJitterForPD(t *testing.T) {
	a := mat.NewSymDense(2, []float64{2, 0.5, 0.5, 1})
	chol, jitters, err := factorizeSPD(a)
	require.NoError(t, err)
	assert.Equal(t, 0, jitters)
	assert.InDelta(t, 1.75, chol.Det(), 1e-12)
}

func TestFactorizeSPD_JittersSingular(t *testing.T) {
	// Rank one: x xᵀ with x = (1, 1).
	a := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	chol, jitters, err := factorizeSPD(a)
	require.NoError(t, err)
	assert.Greater(t, jitters, 0)
	assert.Greater(t, chol.Det(), 0.0)

	// The input is not modified.
	assert.Equal(t, 1.0, a.At(0, 0))
}

func TestFactorizeSPD_ZeroMatrix(t *testing.T) {
	_, jitters, err := factorizeSPD(mat.NewSymDense(3, nil))
	require.NoError(t, err)
	assert.Greater(t, jitters, 0)
}

func TestFactorizeSPD_IndefiniteFails(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, 0, 0, -1})
	_, jitters, err := factorizeSPD(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumericalDegeneracy))
	assert.Equal(t, maxJitterAttempts, jitters)
}

func TestInvertSPD(t *testing.T) {
	a := mat.NewSymDense(2, []float64{4, 1, 1, 3})
	inv, jitters, err := invertSPD(a)
	require.NoError(t, err)
	assert.Equal(t, 0, jitters)

	var prod mat.Dense
	prod.Mul(a, inv)
	assert.True(t, mat.EqualApprox(&prod, eye(2), 1e-12))
}

func TestRegularizeSPD(t *testing.T) {
	pd := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	out, jitters, err := regularizeSPD(pd)
	require.NoError(t, err)
	assert.Equal(t, 0, jitters)
	assert.Same(t, pd, out)

	singular := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	out, jitters, err = regularizeSPD(singular)
	require.NoError(t, err)
	assert.Greater(t, jitters, 0)
	requireSPD(t, "regularized", out)
	assert.InDelta(t, 1.0, out.At(0, 1), 1e-6)
}

func TestLogPlusEpsilon(t *testing.T) {
	assert.InDelta(t, math.Log(1e-7), logPlusEpsilon(math.Inf(-1)), floatTol)
	assert.InDelta(t, math.Log(2+1e-7), logPlusEpsilon(math.Log(2)), floatTol)
	// Large log-determinants stay finite.
	assert.InDelta(t, 800.0, logPlusEpsilon(800), floatTol)
}
