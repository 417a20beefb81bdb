package bgmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// jitterScale is the first diagonal jitter, relative to the mean
	// absolute diagonal entry of the matrix being regularized.
	jitterScale = 1e-10
	// jitterGrowth multiplies the jitter after each failed factorization.
	jitterGrowth = 10.0
	// maxJitterAttempts bounds the regularization loop.
	maxJitterAttempts = 10
)

// symmetrize returns (a + aᵀ)/2 as a SymDense. a must be square.
func symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}

// factorizeSPD computes the Cholesky factorization of a, adding diagonal
// jitter when a is not numerically positive-definite. It returns the number
// of jitter steps that were needed (0 when a factorized as given). a is not
// modified.
func factorizeSPD(a mat.Symmetric) (*mat.Cholesky, int, error) {
	var chol mat.Cholesky
	if chol.Factorize(a) {
		return &chol, 0, nil
	}

	n := a.SymmetricDim()
	var diag float64
	for i := 0; i < n; i++ {
		diag += math.Abs(a.At(i, i))
	}
	diag /= float64(n)
	if diag == 0 || math.IsNaN(diag) || math.IsInf(diag, 0) {
		diag = 1
	}

	jitter := jitterScale * diag
	work := mat.NewSymDense(n, nil)
	for attempt := 1; attempt <= maxJitterAttempts; attempt++ {
		work.CopySym(a)
		for i := 0; i < n; i++ {
			work.SetSym(i, i, work.At(i, i)+jitter)
		}
		if chol.Factorize(work) {
			return &chol, attempt, nil
		}
		jitter *= jitterGrowth
	}
	return nil, maxJitterAttempts, fmt.Errorf("%w: matrix is not positive-definite after %d jitter attempts",
		ErrNumericalDegeneracy, maxJitterAttempts)
}

// invertSPD inverts a symmetric positive-definite matrix through its
// Cholesky factor, regularizing it first if needed.
func invertSPD(a mat.Symmetric) (*mat.SymDense, int, error) {
	chol, jitters, err := factorizeSPD(a)
	if err != nil {
		return nil, jitters, err
	}
	inv := mat.NewSymDense(a.SymmetricDim(), nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, jitters, fmt.Errorf("%w: %v", ErrNumericalDegeneracy, err)
	}
	return inv, jitters, nil
}

// regularizeSPD returns a itself when it is positive-definite, otherwise the
// jittered copy that factorized.
func regularizeSPD(a *mat.SymDense) (*mat.SymDense, int, error) {
	chol, jitters, err := factorizeSPD(a)
	if err != nil {
		return nil, jitters, err
	}
	if jitters == 0 {
		return a, 0, nil
	}
	out := mat.NewSymDense(a.SymmetricDim(), nil)
	chol.ToSym(out)
	return out, jitters, nil
}
