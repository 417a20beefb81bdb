package bgmm

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Config controls a Gibbs sampling run.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Clusters is the fixed number of mixture components K. Must be >= 1.
	// Default: 3.
	Clusters int

	// Iterations is the number of Gibbs sweeps. There is no early stopping.
	// Must be >= 1. Default: 50.
	Iterations int

	// Hyperparameters is the prior. Nil means DefaultHyperparameters(K, D),
	// which can only be built once the dimensionality of the data is known.
	Hyperparameters *Hyperparameters

	// Seed initializes the random stream. Identical seeds, data and
	// hyperparameters reproduce identical traces and assignments.
	Seed uint64

	// Workers is the number of goroutines used for the per-cluster and
	// per-observation stages. The result does not depend on it.
	// 0 means runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// Precision is the number of decimal digits ARI scores are rounded to in
	// the trace. Negative keeps full resolution; 0 means the default.
	// Default: 3.
	Precision int

	// Logger receives run and per-iteration logs. Nil disables logging.
	Logger *zerolog.Logger

	// Observer, if set, is called after every completed iteration.
	Observer Observer
}

// DefaultConfig returns a Config with the defaults described on each field.
func DefaultConfig() Config {
	return Config{
		Clusters:   3,
		Iterations: 50,
		Precision:  3,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config, dims int) {
	if cfg.Hyperparameters == nil && cfg.Clusters >= 1 && dims >= 1 {
		h := DefaultHyperparameters(cfg.Clusters, dims)
		cfg.Hyperparameters = &h
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Precision == 0 {
		cfg.Precision = 3
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config, dims int) error {
	if cfg.Clusters < 1 {
		return fmt.Errorf("%w: Clusters must be >= 1, got %d", ErrInputShapeMismatch, cfg.Clusters)
	}
	if cfg.Iterations < 1 {
		return fmt.Errorf("bgmm: Iterations must be >= 1, got %d", cfg.Iterations)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("bgmm: Workers must be >= 0 (0 means runtime.NumCPU()), got %d", cfg.Workers)
	}
	return cfg.Hyperparameters.Validate(cfg.Clusters, dims)
}

// Result is the output of a completed run.
type Result struct {
	// Trace holds one rounded ARI score per iteration. Empty when no
	// ground-truth labels were supplied.
	Trace []float64

	// Labels is the final hard cluster label of each observation.
	Labels []int

	// Assignment is the final assignment z.
	Assignment *Assignment

	// Parameters is the last posterior draw of {μ_k, Λ_k} and π. It is a
	// single sample from the chain, not a posterior mean.
	Parameters *Parameters

	// Responsibilities is the N×K normalized responsibility matrix of the
	// final iteration.
	Responsibilities [][]float64

	// Iterations is the number of completed iterations.
	Iterations int
}

// IterationStats summarizes one completed iteration for an Observer.
type IterationStats struct {
	Iteration int
	// ARI is the rounded score of this iteration, NaN without ground truth.
	ARI float64
	// Counts is the number of observations in each cluster after the draw.
	Counts []int
	// Jitters counts the diagonal regularizations needed this iteration.
	Jitters  int
	Duration time.Duration
}

// Observer receives per-iteration statistics.
type Observer interface {
	ObserveIteration(stats IterationStats)
}

// ObserverFunc adapts a plain function into an Observer.
type ObserverFunc func(stats IterationStats)

// ObserveIteration calls f(stats).
func (f ObserverFunc) ObserveIteration(stats IterationStats) { f(stats) }

// Fit runs the Gibbs sampler on data for cfg.Iterations sweeps. truth holds
// the ground-truth label of each observation and drives the ARI trace; pass
// nil to skip the diagnostic.
func Fit(data [][]float64, truth []int, cfg Config) (*Result, error) {
	obs, err := NewObservations(data)
	if err != nil {
		return nil, err
	}
	s, err := NewSampler(obs, truth, cfg)
	if err != nil {
		return nil, err
	}
	return s.Run()
}

// Sampler is the Gibbs driver. Every call to Step runs one full iteration:
//
//	SamplingParameters → SamplingWeights → SamplingAssignments → RecordingDiagnostic
//
// after which the sampler either starts the next iteration or is Done.
// A Sampler is not safe for concurrent use.
type Sampler struct {
	cfg   Config
	obs   *Observations
	truth []int
	prior *Prior
	src   rand.Source
	log   zerolog.Logger

	phase Phase
	state *MixtureState
	trace *Trace
}

// NewSampler validates the inputs, then initializes the chain: π is drawn
// from Dirichlet(α) and every observation is assigned by a categorical draw
// under π.
func NewSampler(obs *Observations, truth []int, cfg Config) (*Sampler, error) {
	if obs == nil {
		return nil, fmt.Errorf("%w: no observations", ErrInputShapeMismatch)
	}
	dims := obs.Dims()
	applyDefaults(&cfg, dims)
	if err := validateConfig(&cfg, dims); err != nil {
		return nil, err
	}
	if truth != nil && len(truth) != obs.Len() {
		return nil, fmt.Errorf("%w: %d labels for %d observations", ErrInputShapeMismatch, len(truth), obs.Len())
	}

	prior, err := NewPrior(*cfg.Hyperparameters, cfg.Clusters, dims)
	if err != nil {
		return nil, err
	}

	s := &Sampler{
		cfg:   cfg,
		obs:   obs,
		truth: append([]int(nil), truth...),
		prior: prior,
		src:   rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15),
		log:   cfg.Logger.With().Str("component", "gibbs").Logger(),
		phase: PhaseInitializing,
		trace: NewTrace(cfg.Precision),
	}
	s.state = initialState(obs, prior, s.src, cfg.Workers)
	s.phase = PhaseSamplingParameters

	s.log.Info().
		Int("observations", obs.Len()).
		Int("dims", dims).
		Int("clusters", cfg.Clusters).
		Int("iterations", cfg.Iterations).
		Uint64("seed", cfg.Seed).
		Ints("counts", s.state.Assignment.Counts()).
		Msg("initialized sampler")
	return s, nil
}

// Phase returns where the sampler is in its cycle. Between calls to Step it
// is either PhaseSamplingParameters or PhaseDone.
func (s *Sampler) Phase() Phase { return s.phase }

// State returns the current state. The returned value is never modified by
// later iterations.
func (s *Sampler) State() *MixtureState { return s.state }

// Trace returns the ARI scores recorded so far.
func (s *Sampler) Trace() []float64 { return s.trace.Values() }

// Step runs one full iteration and replaces the state. It returns
// ErrSamplerDone once cfg.Iterations iterations have completed.
func (s *Sampler) Step() error {
	if s.phase == PhaseDone {
		return ErrSamplerDone
	}
	started := time.Now()
	iteration := s.state.Iteration + 1

	s.phase = PhaseSamplingParameters
	post, err := updatePosterior(s.state.Assignment, s.obs, s.prior, s.cfg.Workers)
	if err != nil {
		return s.fail(iteration, err)
	}
	clusters, jitters, err := SampleClusterParameters(post, s.src, s.cfg.Workers)
	if err != nil {
		return s.fail(iteration, err)
	}

	s.phase = PhaseSamplingWeights
	params := &Parameters{
		Clusters: clusters,
		Weights:  SampleWeights(post.Alpha, s.src),
		Jitters:  jitters,
	}

	s.phase = PhaseSamplingAssignments
	z, resp, err := SampleAssignment(s.obs, params, s.src, s.cfg.Workers)
	if err != nil {
		return s.fail(iteration, err)
	}

	s.phase = PhaseRecordingDiagnostic
	ari := math.NaN()
	if s.truth != nil {
		if ari, err = s.trace.Record(s.truth, z.labels); err != nil {
			return s.fail(iteration, err)
		}
	}

	s.state = &MixtureState{
		Iteration:        iteration,
		Assignment:       z,
		Parameters:       params,
		Posterior:        post,
		Responsibilities: resp,
	}

	stats := IterationStats{
		Iteration: iteration,
		ARI:       ari,
		Counts:    z.Counts(),
		Jitters:   post.Jitters + params.Jitters,
		Duration:  time.Since(started),
	}
	if stats.Jitters > 0 {
		s.log.Warn().Int("iteration", iteration).Int("jitters", stats.Jitters).
			Msg("regularized non positive-definite matrices")
	}
	s.log.Debug().
		Int("iteration", iteration).
		Float64("ari", ari).
		Ints("counts", stats.Counts).
		Dur("duration", stats.Duration).
		Msg("completed iteration")
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveIteration(stats)
	}

	if iteration >= s.cfg.Iterations {
		s.phase = PhaseDone
	} else {
		s.phase = PhaseSamplingParameters
	}
	return nil
}

func (s *Sampler) fail(iteration int, err error) error {
	s.log.Error().Err(err).Int("iteration", iteration).Str("phase", s.phase.String()).Msg("iteration failed")
	return fmt.Errorf("bgmm: iteration %d, %s: %w", iteration, s.phase, err)
}

// Run steps the sampler until it is done and returns the result.
func (s *Sampler) Run() (*Result, error) {
	for s.phase != PhaseDone {
		if err := s.Step(); err != nil {
			return nil, err
		}
	}
	s.log.Info().Int("iterations", s.state.Iteration).Float64("ari", s.trace.Last()).Msg("sampling finished")
	return s.Result(), nil
}

// Result returns the output for the iterations completed so far. It returns
// nil before the first iteration.
func (s *Sampler) Result() *Result {
	st := s.state
	if st.Iteration == 0 {
		return nil
	}
	n, k := st.Responsibilities.Dims()
	resp := make([][]float64, n)
	for i := range resp {
		resp[i] = make([]float64, k)
		copy(resp[i], st.Responsibilities.RawRowView(i))
	}
	return &Result{
		Trace:            s.trace.Values(),
		Labels:           st.Assignment.Labels(),
		Assignment:       st.Assignment,
		Parameters:       st.Parameters,
		Responsibilities: resp,
		Iterations:       st.Iteration,
	}
}
