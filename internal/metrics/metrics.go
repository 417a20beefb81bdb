// Package metrics exports sampler progress to Prometheus.
package metrics

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/TrevorS/bgmm"
)

const namespace = "bgmm"

// Prometheus holds the sampler collectors.
type Prometheus struct {
	Iterations  prometheus.Counter
	ARI         prometheus.Gauge
	ClusterSize *prometheus.GaugeVec
	Jitters     prometheus.Counter
	Duration    prometheus.Histogram
}

// NewPrometheusMetrics creates the collectors, labelled with the run id.
func NewPrometheusMetrics(runID string) Prometheus {
	run := prometheus.Labels{"run": runID}
	return Prometheus{
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "iterations_total",
			Help:        "Completed Gibbs iterations.",
			ConstLabels: run,
		}),
		ARI: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "ari",
			Help:        "Adjusted Rand index of the latest iteration.",
			ConstLabels: run,
		}),
		ClusterSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cluster_size",
			Help:        "Observations assigned to each cluster.",
			ConstLabels: run,
		}, []string{"cluster"}),
		Jitters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "jitter_steps_total",
			Help:        "Diagonal regularizations of non positive-definite matrices.",
			ConstLabels: run,
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "iteration_duration_seconds",
			Help:        "Wall time of one Gibbs iteration.",
			ConstLabels: run,
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
	}
}

// Collectors returns every collector for registration.
func (p Prometheus) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.Iterations, p.ARI, p.ClusterSize, p.Jitters, p.Duration}
}

// Observer is a bgmm.Observer that updates the collectors.
type Observer struct {
	prometheus Prometheus
}

// NewObserver creates the collectors for runID and registers them with reg.
func NewObserver(reg prometheus.Registerer, runID string) (*Observer, error) {
	p := NewPrometheusMetrics(runID)
	for _, c := range p.Collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &Observer{prometheus: p}, nil
}

// ObserveIteration implements bgmm.Observer.
func (o *Observer) ObserveIteration(stats bgmm.IterationStats) {
	o.prometheus.Iterations.Inc()
	if !math.IsNaN(stats.ARI) {
		o.prometheus.ARI.Set(stats.ARI)
	}
	for k, n := range stats.Counts {
		o.prometheus.ClusterSize.WithLabelValues(strconv.Itoa(k)).Set(float64(n))
	}
	o.prometheus.Jitters.Add(float64(stats.Jitters))
	o.prometheus.Duration.Observe(stats.Duration.Seconds())
}

// Server exposes a registry on /metrics.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

// NewServer returns a server for addr that serves gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux},
		log: log.With().Str("component", "metrics").Str("addr", addr).Logger(),
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.log.Info().Msg("serving metrics")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// Shutdown stops the server, waiting at most timeout for open requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
