package bgmm

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MixtureState is the sampler state after an iteration. The driver replaces
// it wholesale every iteration; no field is mutated after construction.
type MixtureState struct {
	// Iteration is the number of completed iterations (0 for the initial state).
	Iteration int

	// Assignment is the current hard assignment z.
	Assignment *Assignment

	// Parameters is the latest draw of {μ_k, Λ_k} and π. In the initial state
	// only Weights is set.
	Parameters *Parameters

	// Posterior is the posterior the latest Parameters were drawn from.
	// Nil in the initial state.
	Posterior *Posterior

	// Responsibilities is the N×K normalized responsibility matrix the latest
	// Assignment was drawn from. Nil in the initial state.
	Responsibilities *mat.Dense
}

// initialState seeds π ~ Dirichlet(α) and draws every z_n ~ Categorical(π).
func initialState(x *Observations, prior *Prior, src rand.Source, workers int) *MixtureState {
	weights := SampleWeights(prior.Alpha, src)

	n := x.Len()
	blocks := numBlocks(n)
	sources := splitSources(src, blocks)
	labels := make([]int, n)
	parallelFor(blocks, workers, func(startBlock, endBlock int) {
		for b := startBlock; b < endBlock; b++ {
			start, end := blockRange(b, n)
			cat := distuv.NewCategorical(weights, sources[b])
			for i := start; i < end; i++ {
				labels[i] = int(cat.Rand())
			}
		}
	})

	return &MixtureState{
		Assignment: newAssignment(labels, prior.Clusters()),
		Parameters: &Parameters{Weights: weights},
	}
}
