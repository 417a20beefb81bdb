package bgmm

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/mat"
)

// Hyperparameters are the prior constants of the mixture. They are fixed for
// the whole run.
type Hyperparameters struct {
	// Alpha is the Dirichlet concentration, one entry per cluster. Each entry
	// must be > 0.
	Alpha []float64

	// Beta scales the prior precision of the cluster means. Must be > 0.
	Beta float64

	// Mean is the prior mean m of the cluster means, length D.
	Mean []float64

	// Scale is the Wishart scale matrix W, D×D symmetric positive-definite.
	Scale *mat.SymDense

	// Nu is the Wishart degrees of freedom. Must be > D-1.
	Nu float64
}

// DefaultHyperparameters returns a weakly-informative prior for k clusters
// in dims dimensions: Alpha = 2, Beta = 1, Mean = 0, Scale = 0.05·I, Nu = dims.
func DefaultHyperparameters(k, dims int) Hyperparameters {
	alpha := make([]float64, k)
	for i := range alpha {
		alpha[i] = 2.0
	}
	scale := mat.NewSymDense(dims, nil)
	for i := 0; i < dims; i++ {
		scale.SetSym(i, i, 0.05)
	}
	return Hyperparameters{
		Alpha: alpha,
		Beta:  1.0,
		Mean:  make([]float64, dims),
		Scale: scale,
		Nu:    float64(dims),
	}
}

// Validate checks h against k clusters in dims dimensions. All problems are
// reported together; each one wraps ErrInvalidHyperparameter.
func (h Hyperparameters) Validate(k, dims int) error {
	var result *multierror.Error
	invalid := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{ErrInvalidHyperparameter}, args...)...))
	}

	if len(h.Alpha) != k {
		invalid("Alpha has %d entries, want %d", len(h.Alpha), k)
	}
	for i, a := range h.Alpha {
		if !(a > 0) || math.IsInf(a, 0) {
			invalid("Alpha[%d] must be > 0 and finite, got %g", i, a)
		}
	}
	if !(h.Beta > 0) || math.IsInf(h.Beta, 0) {
		invalid("Beta must be > 0 and finite, got %g", h.Beta)
	}
	if len(h.Mean) != dims {
		invalid("Mean has %d entries, want %d", len(h.Mean), dims)
	}
	for i, m := range h.Mean {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			invalid("Mean[%d] must be finite, got %g", i, m)
		}
	}
	if !(h.Nu > float64(dims-1)) || math.IsInf(h.Nu, 0) {
		invalid("Nu must be > D-1 = %d, got %g", dims-1, h.Nu)
	}
	switch {
	case h.Scale == nil || h.Scale.IsEmpty():
		invalid("Scale is not set")
	case h.Scale.SymmetricDim() != dims:
		n := h.Scale.SymmetricDim()
		invalid("Scale is %d×%d, want %d×%d", n, n, dims, dims)
	default:
		var chol mat.Cholesky
		if !chol.Factorize(h.Scale) {
			invalid("Scale is not positive-definite")
		}
	}

	return result.ErrorOrNil()
}

// Prior holds Hyperparameters together with the constants derived from them
// that every posterior update reuses.
type Prior struct {
	Hyperparameters

	dims int
	// scaleInv is W⁻¹.
	scaleInv *mat.SymDense
	// meanOuter is β·m·mᵀ.
	meanOuter *mat.SymDense
	// betaMean is β·m.
	betaMean *mat.VecDense
}

// NewPrior validates h and precomputes W⁻¹, β·m·mᵀ and β·m.
func NewPrior(h Hyperparameters, k, dims int) (*Prior, error) {
	if err := h.Validate(k, dims); err != nil {
		return nil, err
	}

	scaleInv, _, err := invertSPD(h.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: inverting Scale: %v", ErrInvalidHyperparameter, err)
	}

	mean := mat.NewVecDense(dims, append([]float64(nil), h.Mean...))
	var meanOuter mat.SymDense
	meanOuter.SymOuterK(h.Beta, mean)
	betaMean := mat.NewVecDense(dims, nil)
	betaMean.ScaleVec(h.Beta, mean)

	return &Prior{
		Hyperparameters: h,
		dims:            dims,
		scaleInv:        scaleInv,
		meanOuter:       &meanOuter,
		betaMean:        betaMean,
	}, nil
}

// Dims returns the dimensionality the prior was built for.
func (p *Prior) Dims() int { return p.dims }

// Clusters returns K.
func (p *Prior) Clusters() int { return len(p.Alpha) }
