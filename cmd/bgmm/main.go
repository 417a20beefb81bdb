// bgmm fits a Bayesian Gaussian mixture model to an observation file with a
// Gibbs sampler and reports the Adjusted Rand index of every iteration
// against a ground-truth label file.
//
// Usage:
//
//	bgmm -config run.yaml
//	bgmm -data data1.txt -labels true_label.txt -clusters 3 -iterations 50
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/TrevorS/bgmm"
	"github.com/TrevorS/bgmm/internal/config"
	"github.com/TrevorS/bgmm/internal/dataio"
	"github.com/TrevorS/bgmm/internal/metrics"
	"github.com/TrevorS/bgmm/internal/report"
	"github.com/TrevorS/bgmm/internal/traceplot"
)

type options struct {
	configPath string
	initConfig bool
	verbose    bool

	data        string
	labels      string
	clusters    int
	iterations  int
	seed        uint64
	workers     int
	precision   int
	out         string
	plotFormat  string
	noPlot      bool
	metricsAddr string
}

func parseFlags(args []string) (*options, *flag.FlagSet, error) {
	o := &options{}
	fs := flag.NewFlagSet("bgmm", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Run file path (YAML)")
	fs.BoolVar(&o.initConfig, "init", false, "Write a default run file to -config and exit")
	fs.BoolVar(&o.verbose, "v", false, "Log every iteration")
	fs.StringVar(&o.data, "data", "", "Observation file, one whitespace separated row per line")
	fs.StringVar(&o.labels, "labels", "", "Ground-truth label file, one integer per line")
	fs.IntVar(&o.clusters, "clusters", 0, "Number of mixture components K")
	fs.IntVar(&o.iterations, "iterations", 0, "Number of Gibbs iterations")
	fs.Uint64Var(&o.seed, "seed", 0, "Random seed")
	fs.IntVar(&o.workers, "workers", 0, "Worker goroutines (0 = all CPUs)")
	fs.IntVar(&o.precision, "precision", 0, "Decimal digits of the ARI trace")
	fs.StringVar(&o.out, "out", "", "Output directory (empty disables file output)")
	fs.StringVar(&o.plotFormat, "plot-format", "", "Image format of the plots (png, svg, pdf)")
	fs.BoolVar(&o.noPlot, "no-plot", false, "Do not write plot images")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return o, fs, nil
}

// applyFlags overrides cfg with every flag given on the command line.
func applyFlags(cfg *config.Config, o *options, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Data.Observations = o.data
		case "labels":
			cfg.Data.Labels = o.labels
		case "clusters":
			cfg.Clusters = o.clusters
		case "iterations":
			cfg.Iterations = o.iterations
		case "seed":
			cfg.Seed = o.seed
		case "workers":
			cfg.Workers = o.workers
		case "precision":
			cfg.Precision = o.precision
		case "out":
			cfg.Output.Dir = o.out
		case "plot-format":
			cfg.Output.PlotFormat = o.plotFormat
		case "no-plot":
			cfg.Output.Plot = !o.noPlot
		case "metrics-addr":
			cfg.Metrics.Addr = o.metricsAddr
		}
	})
}

func newLogger(w io.Writer, verbose bool, runID string) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Str("run", runID).
		Logger()
}

// observers fans one iteration out to several observers.
type observers []bgmm.Observer

func (obs observers) ObserveIteration(stats bgmm.IterationStats) {
	for _, o := range obs {
		o.ObserveIteration(stats)
	}
}

// progress prints the score of every iteration.
func progress(w io.Writer) bgmm.Observer {
	return bgmm.ObserverFunc(func(stats bgmm.IterationStats) {
		fmt.Fprintf(w, "iteration %4d  ARI %6.3f  counts %v\n", stats.Iteration, stats.ARI, stats.Counts)
	})
}

func run(args []string, stdout, stderr io.Writer) error {
	o, fs, err := parseFlags(args)
	if err != nil {
		return err
	}

	if o.initConfig {
		path := o.configPath
		if path == "" {
			path = "config.yaml"
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Config initialized at: %s\n", path)
		return nil
	}

	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, o, fs)

	runID := uuid.New().String()
	log := newLogger(stderr, o.verbose, runID)

	data, err := dataio.LoadObservations(cfg.Data.Observations)
	if err != nil {
		return fmt.Errorf("loading observations: %w", err)
	}
	obs, err := bgmm.NewObservations(data)
	if err != nil {
		return fmt.Errorf("loading observations: %w", err)
	}
	var truth []int
	if cfg.Data.Labels != "" {
		if truth, err = dataio.LoadLabels(cfg.Data.Labels); err != nil {
			return fmt.Errorf("loading labels: %w", err)
		}
	}
	log.Info().
		Str("observations", cfg.Data.Observations).
		Str("labels", cfg.Data.Labels).
		Int("n", obs.Len()).
		Int("dims", obs.Dims()).
		Msg("loaded data")

	obsv := observers{progress(stdout)}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		m, err := metrics.NewObserver(reg, runID)
		if err != nil {
			return err
		}
		obsv = append(obsv, m)
		srv := metrics.NewServer(cfg.Metrics.Addr, reg, log)
		srv.Start()
		defer func() {
			if err := srv.Shutdown(5 * time.Second); err != nil {
				log.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	samplerCfg, err := cfg.Sampler(obs.Dims(), &log, obsv)
	if err != nil {
		return err
	}
	sampler, err := bgmm.NewSampler(obs, truth, samplerCfg)
	if err != nil {
		return err
	}
	result, err := sampler.Run()
	if err != nil {
		return err
	}

	if chart := traceplot.ASCII(result.Trace, 10); chart != "" {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, chart)
	}
	fmt.Fprintln(stdout)
	report.Run(stdout, runID, cfg.Seed, obs.Len(), result)
	report.Parameters(stdout, result)

	if cfg.Output.Dir != "" {
		if err := writeOutputs(cfg, runID, data, result); err != nil {
			return err
		}
		log.Info().Str("dir", cfg.Output.Dir).Msg("wrote outputs")
	}
	return nil
}

func writeOutputs(cfg *config.Config, runID string, data [][]float64, result *bgmm.Result) error {
	dir := cfg.Output.Dir
	if len(result.Trace) > 0 {
		if err := dataio.SaveFile(filepath.Join(dir, "trace.csv"), func(w io.Writer) error {
			return dataio.WriteTrace(w, result.Trace)
		}); err != nil {
			return err
		}
	}
	if err := dataio.SaveFile(filepath.Join(dir, "labels.txt"), func(w io.Writer) error {
		return dataio.WriteLabels(w, result.Labels)
	}); err != nil {
		return err
	}
	if err := dataio.SaveFile(filepath.Join(dir, "summary.yaml"), func(w io.Writer) error {
		return dataio.WriteSummary(w, dataio.NewSummary(runID, cfg.Seed, result))
	}); err != nil {
		return err
	}
	if !cfg.Output.Plot {
		return nil
	}

	format := traceplot.Format(cfg.Output.PlotFormat)
	if len(result.Trace) > 0 {
		p, err := traceplot.TraceChart(result.Trace)
		if err != nil {
			return err
		}
		if err := traceplot.SavePlot(p, traceplot.Width, traceplot.Height, filepath.Join(dir, "ari."+format), format); err != nil {
			return err
		}
	}
	p, err := traceplot.AssignmentChart(data, result.Labels, len(result.Parameters.Clusters))
	if err != nil {
		return err
	}
	return traceplot.SavePlot(p, traceplot.Width, traceplot.Height, filepath.Join(dir, "assignment."+format), format)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "bgmm: %v\n", err)
		os.Exit(1)
	}
}
