package bgmm

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmat"
	"gonum.org/v1/gonum/stat/distmv"
)

// ClusterParameters is one posterior draw of a cluster's Gaussian.
type ClusterParameters struct {
	Mean      *mat.VecDense
	Precision *mat.SymDense
}

// Parameters is one posterior draw of the whole mixture.
type Parameters struct {
	Clusters []ClusterParameters
	// Weights is the mixing-weight vector π; it sums to 1.
	Weights []float64
	// Jitters counts the diagonal regularization steps taken while sampling.
	Jitters int
}

// SampleParameters draws Λ_k ~ Wishart(ν̂_k, Ŵ_k) and μ_k ~ N(m̂_k, (β̂_k Λ_k)⁻¹)
// for every cluster, then π ~ Dirichlet(α̂).
func SampleParameters(post *Posterior, src rand.Source, workers int) (*Parameters, error) {
	clusters, jitters, err := SampleClusterParameters(post, src, workers)
	if err != nil {
		return nil, err
	}
	return &Parameters{
		Clusters: clusters,
		Weights:  SampleWeights(post.Alpha, src),
		Jitters:  jitters,
	}, nil
}

// SampleClusterParameters draws the precision and then the mean of every
// cluster. Each cluster gets its own stream split from src, so the result
// does not depend on workers.
func SampleClusterParameters(post *Posterior, src rand.Source, workers int) ([]ClusterParameters, int, error) {
	k := len(post.Clusters)
	sources := splitSources(src, k)
	out := make([]ClusterParameters, k)
	jitters := make([]int, k)
	errs := make([]error, k)

	parallelFor(k, workers, func(start, end int) {
		for c := start; c < end; c++ {
			out[c], jitters[c], errs[c] = sampleCluster(post.Clusters[c], sources[c])
		}
	})
	if err := firstError(errs); err != nil {
		return nil, 0, err
	}

	var total int
	for _, j := range jitters {
		total += j
	}
	return out, total, nil
}

func sampleCluster(cp ClusterPosterior, src rand.Source) (ClusterParameters, int, error) {
	dims := cp.Scale.SymmetricDim()
	var jitters int

	scale, j, err := regularizeSPD(cp.Scale)
	jitters += j
	if err != nil {
		return ClusterParameters{}, jitters, fmt.Errorf("wishart scale: %w", err)
	}
	wishart, ok := distmat.NewWishart(scale, cp.Nu, src)
	if !ok {
		return ClusterParameters{}, jitters, fmt.Errorf("%w: wishart scale is not positive-definite", ErrNumericalDegeneracy)
	}
	precision := mat.NewSymDense(dims, nil)
	wishart.RandSymTo(precision)
	precision, j, err = regularizeSPD(precision)
	jitters += j
	if err != nil {
		return ClusterParameters{}, jitters, fmt.Errorf("sampled precision: %w", err)
	}

	// The mean is drawn conditioned on the precision sampled above.
	meanPrec := mat.NewSymDense(dims, nil)
	meanPrec.ScaleSym(cp.Beta, precision)
	mu := mat.Col(nil, 0, cp.Mean)
	normal, ok := distmv.NewNormalPrecision(mu, meanPrec, src)
	if !ok {
		meanPrec, j, err = regularizeSPD(meanPrec)
		jitters += j
		if err != nil {
			return ClusterParameters{}, jitters, fmt.Errorf("mean precision: %w", err)
		}
		if normal, ok = distmv.NewNormalPrecision(mu, meanPrec, src); !ok {
			return ClusterParameters{}, jitters, fmt.Errorf("%w: mean precision is not positive-definite", ErrNumericalDegeneracy)
		}
	}

	return ClusterParameters{
		Mean:      mat.NewVecDense(dims, normal.Rand(nil)),
		Precision: precision,
	}, jitters, nil
}

// SampleWeights draws π ~ Dirichlet(alpha) and renormalizes it onto the
// simplex. If every gamma draw underflows to zero the Dirichlet mean
// alpha/Σalpha is returned instead.
func SampleWeights(alpha []float64, src rand.Source) []float64 {
	pi := distmv.NewDirichlet(alpha, src).Rand(nil)
	sum := floats.Sum(pi)
	if !(sum > 0) {
		copy(pi, alpha)
		sum = floats.Sum(pi)
	}
	floats.Scale(1/sum, pi)
	return pi
}
