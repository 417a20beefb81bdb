package bgmm

import "errors"

var (
	// ErrInputShapeMismatch reports observations, labels or dimensions that
	// disagree with each other, or an empty observation set.
	ErrInputShapeMismatch = errors.New("bgmm: input shape mismatch")

	// ErrInvalidHyperparameter reports a prior that cannot define a proper
	// Normal-Wishart-Dirichlet model (nu <= D-1, beta <= 0, non-PD scale, ...).
	ErrInvalidHyperparameter = errors.New("bgmm: invalid hyperparameter")

	// ErrNumericalDegeneracy is returned when a matrix stays non positive-definite
	// even after symmetrization and the maximum diagonal jitter.
	ErrNumericalDegeneracy = errors.New("bgmm: numerical degeneracy")

	// ErrProbabilityUnderflow is returned when an observation has no finite
	// log-responsibility under any cluster.
	ErrProbabilityUnderflow = errors.New("bgmm: probability underflow")

	// ErrSamplerDone is returned by Sampler.Step once all iterations have run.
	ErrSamplerDone = errors.New("bgmm: sampler is done")
)
