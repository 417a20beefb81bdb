// Package dataio reads observation and label files and writes run outputs.
//
// Input files are plain text: one observation per line as whitespace
// separated numbers, or one integer label per line. Blank lines and lines
// starting with '#' are skipped.
package dataio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/TrevorS/bgmm"
)

// scanLines calls fn with the line number and fields of every data line.
func scanLines(r io.Reader, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := fn(line, strings.Fields(text)); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadObservations parses an N×D observation matrix.
func ReadObservations(r io.Reader) ([][]float64, error) {
	var rows [][]float64
	err := scanLines(r, func(line int, fields []string) error {
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("line %d, column %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return fmt.Errorf("line %d: %w: %d values, want %d",
				line, bgmm.ErrInputShapeMismatch, len(row), len(rows[0]))
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadLabels parses one label per line. Integral floats such as "2.0" are
// accepted.
func ReadLabels(r io.Reader) ([]int, error) {
	var labels []int
	err := scanLines(r, func(line int, fields []string) error {
		if len(fields) != 1 {
			return fmt.Errorf("line %d: %w: %d values, want 1", line, bgmm.ErrInputShapeMismatch, len(fields))
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return fmt.Errorf("line %d: label %s is not an integer", line, fields[0])
		}
		labels = append(labels, int(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}

// LoadObservations reads an observation file.
func LoadObservations(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadObservations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// LoadLabels reads a label file.
func LoadLabels(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	labels, err := ReadLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}

// WriteTrace writes the ARI trace as CSV with an iteration,ari header.
// Iterations are numbered from 1.
func WriteTrace(w io.Writer, trace []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"iteration", "ari"}); err != nil {
		return err
	}
	for i, v := range trace {
		record := []string{strconv.Itoa(i + 1), strconv.FormatFloat(v, 'g', -1, 64)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLabels writes one label per line, in the same format ReadLabels reads.
func WriteLabels(w io.Writer, labels []int) error {
	bw := bufio.NewWriter(w)
	for _, l := range labels {
		if _, err := fmt.Fprintln(bw, l); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Summary describes a finished run and its final parameter draw.
type Summary struct {
	RunID      string           `yaml:"run_id"`
	Seed       uint64           `yaml:"seed"`
	Iterations int              `yaml:"iterations"`
	FinalARI   *float64         `yaml:"final_ari,omitempty"`
	Weights    []float64        `yaml:"weights"`
	Clusters   []ClusterSummary `yaml:"clusters"`
}

// ClusterSummary is one cluster of the final draw.
type ClusterSummary struct {
	Count     int         `yaml:"count"`
	Mean      []float64   `yaml:"mean"`
	Precision [][]float64 `yaml:"precision"`
}

// NewSummary collects the final draw of result.
func NewSummary(runID string, seed uint64, result *bgmm.Result) Summary {
	s := Summary{
		RunID:      runID,
		Seed:       seed,
		Iterations: result.Iterations,
		Weights:    append([]float64(nil), result.Parameters.Weights...),
	}
	if n := len(result.Trace); n > 0 {
		ari := result.Trace[n-1]
		s.FinalARI = &ari
	}
	for k, cp := range result.Parameters.Clusters {
		dims := cp.Mean.Len()
		precision := make([][]float64, dims)
		for i := range precision {
			precision[i] = make([]float64, dims)
			for j := range precision[i] {
				precision[i][j] = cp.Precision.At(i, j)
			}
		}
		s.Clusters = append(s.Clusters, ClusterSummary{
			Count:     result.Assignment.Count(k),
			Mean:      append([]float64(nil), cp.Mean.RawVector().Data...),
			Precision: precision,
		})
	}
	return s
}

// WriteSummary encodes s as YAML.
func WriteSummary(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func combineErrors(errors ...error) (err error) {
	for _, e := range errors {
		switch {
		case e == nil:
			// ignore
		case err == nil:
			err = e
		default:
			err = multierror.Append(err, e)
		}
	}
	return err
}

// SaveFile creates path, including missing parent directories, and fills it
// with write. Close errors are reported together with write errors.
func SaveFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = combineErrors(err, f.Close())
	}()
	return write(f)
}
