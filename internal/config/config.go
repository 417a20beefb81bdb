// Package config handles loading and saving bgmm run files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/TrevorS/bgmm"
)

// Config is the root run configuration.
type Config struct {
	Clusters        int                   `yaml:"clusters"`
	Iterations      int                   `yaml:"iterations"`
	Seed            uint64                `yaml:"seed"`
	Workers         int                   `yaml:"workers"`
	Precision       int                   `yaml:"precision"`
	Hyperparameters HyperparametersConfig `yaml:"hyperparameters"`
	Data            DataConfig            `yaml:"data"`
	Output          OutputConfig          `yaml:"output"`
	Metrics         MetricsConfig         `yaml:"metrics"`
}

// HyperparametersConfig holds the prior. Fields left empty take the
// library defaults once the data dimensionality is known.
type HyperparametersConfig struct {
	// Alpha is either one value shared by every cluster or one per cluster.
	Alpha []float64 `yaml:"alpha,omitempty"`
	Beta  float64   `yaml:"beta,omitempty"`
	// Mean is either one value repeated in every dimension or a full vector.
	Mean []float64 `yaml:"mean,omitempty"`
	// Scale is the full D×D Wishart scale matrix, row by row.
	Scale [][]float64 `yaml:"scale,omitempty"`
	// Nu is a pointer to distinguish "not set" (use D) from an explicit value.
	Nu *float64 `yaml:"nu,omitempty"`
}

// DataConfig holds input file locations.
type DataConfig struct {
	Observations string `yaml:"observations"`
	Labels       string `yaml:"labels"`
}

// OutputConfig holds output settings. An empty Dir disables file output.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	Plot       bool   `yaml:"plot"`
	PlotFormat string `yaml:"plot_format"`
}

// MetricsConfig holds the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Clusters:   3,
		Iterations: 50,
		Precision:  3,
		Hyperparameters: HyperparametersConfig{
			Alpha: []float64{2},
			Beta:  1,
		},
		Data: DataConfig{
			Observations: "data1.txt",
			Labels:       "true_label.txt",
		},
		Output: OutputConfig{
			Dir:        "output",
			Plot:       true,
			PlotFormat: "png",
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Prior builds the sampler prior for data of the given dimensionality.
// Shape problems are reported together and wrap bgmm.ErrInvalidHyperparameter.
func (c *Config) Prior(dims int) (bgmm.Hyperparameters, error) {
	if c.Clusters < 1 {
		return bgmm.Hyperparameters{}, fmt.Errorf("%w: clusters must be >= 1, got %d", bgmm.ErrInputShapeMismatch, c.Clusters)
	}
	if dims < 1 {
		return bgmm.Hyperparameters{}, fmt.Errorf("%w: dims must be >= 1, got %d", bgmm.ErrInputShapeMismatch, dims)
	}
	h := bgmm.DefaultHyperparameters(c.Clusters, dims)
	hc := c.Hyperparameters
	var result *multierror.Error
	invalid := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{bgmm.ErrInvalidHyperparameter}, args...)...))
	}

	switch len(hc.Alpha) {
	case 0:
	case 1:
		for i := range h.Alpha {
			h.Alpha[i] = hc.Alpha[0]
		}
	case c.Clusters:
		copy(h.Alpha, hc.Alpha)
	default:
		invalid("alpha has %d values, want 1 or %d", len(hc.Alpha), c.Clusters)
	}

	if hc.Beta != 0 {
		h.Beta = hc.Beta
	}

	switch len(hc.Mean) {
	case 0:
	case 1:
		for i := range h.Mean {
			h.Mean[i] = hc.Mean[0]
		}
	case dims:
		copy(h.Mean, hc.Mean)
	default:
		invalid("mean has %d values, want 1 or %d", len(hc.Mean), dims)
	}

	if len(hc.Scale) > 0 {
		scale, err := scaleMatrix(hc.Scale, dims)
		if err != nil {
			invalid("%v", err)
		} else {
			h.Scale = scale
		}
	}

	if hc.Nu != nil {
		h.Nu = *hc.Nu
	}

	return h, result.ErrorOrNil()
}

func scaleMatrix(rows [][]float64, dims int) (*mat.SymDense, error) {
	if len(rows) != dims {
		return nil, fmt.Errorf("scale has %d rows, want %d", len(rows), dims)
	}
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("scale row %d has %d values, want %d", i, len(row), dims)
		}
	}
	scale := mat.NewSymDense(dims, nil)
	for i, row := range rows {
		for j := i; j < dims; j++ {
			if row[j] != rows[j][i] {
				return nil, fmt.Errorf("scale is not symmetric at (%d,%d)", i, j)
			}
			scale.SetSym(i, j, row[j])
		}
	}
	return scale, nil
}

// Sampler converts the file configuration into a bgmm.Config for data of
// the given dimensionality.
func (c *Config) Sampler(dims int, logger *zerolog.Logger, observer bgmm.Observer) (bgmm.Config, error) {
	h, err := c.Prior(dims)
	if err != nil {
		return bgmm.Config{}, err
	}
	return bgmm.Config{
		Clusters:        c.Clusters,
		Iterations:      c.Iterations,
		Hyperparameters: &h,
		Seed:            c.Seed,
		Workers:         c.Workers,
		Precision:       c.Precision,
		Logger:          logger,
		Observer:        observer,
	}, nil
}
