package bgmm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// logEpsilon is log(1e-7), the guard added to det Λ_k and π_k before taking
// their logarithms.
var logEpsilon = math.Log(1e-7)

// logPlusEpsilon returns log(exp(logA) + 1e-7) without leaving log space.
func logPlusEpsilon(logA float64) float64 {
	return floats.LogSumExp([]float64{logA, logEpsilon})
}

// SampleAssignment computes the responsibilities of every cluster for every
// observation and draws a new one-hot assignment from them. It returns the
// assignment together with the N×K row-normalized responsibility matrix.
//
// The unnormalized log-responsibility is
//
//	log η_nk = −½ (x_n−μ_k)ᵀ Λ_k (x_n−μ_k) + ½ log(det Λ_k + ε) + log(π_k + ε)
//
// Each row is shifted by its maximum before exponentiating, so observations
// far from every cluster still normalize.
func SampleAssignment(x *Observations, p *Parameters, src rand.Source, workers int) (*Assignment, *mat.Dense, error) {
	k := len(p.Clusters)
	if k == 0 || len(p.Weights) != k {
		return nil, nil, fmt.Errorf("%w: %d clusters with %d weights", ErrInputShapeMismatch, k, len(p.Weights))
	}

	offsets := make([]float64, k)
	for c, cp := range p.Clusters {
		chol, _, err := factorizeSPD(cp.Precision)
		if err != nil {
			return nil, nil, fmt.Errorf("cluster %d precision: %w", c, err)
		}
		offsets[c] = 0.5*logPlusEpsilon(chol.LogDet()) + logPlusEpsilon(math.Log(p.Weights[c]))
	}

	n := x.Len()
	blocks := numBlocks(n)
	sources := splitSources(src, blocks)
	labels := make([]int, n)
	resp := mat.NewDense(n, k, nil)
	errs := make([]error, blocks)

	parallelFor(blocks, workers, func(startBlock, endBlock int) {
		for b := startBlock; b < endBlock; b++ {
			start, end := blockRange(b, n)
			errs[b] = sampleBlock(x, p, offsets, start, end, sources[b], labels, resp)
		}
	})
	if err := firstError(errs); err != nil {
		return nil, nil, err
	}

	return newAssignment(labels, k), resp, nil
}

// sampleBlock fills labels[start:end] and the matching rows of resp.
func sampleBlock(x *Observations, p *Parameters, offsets []float64, start, end int, src rand.Source, labels []int, resp *mat.Dense) error {
	k := len(p.Clusters)
	rows := end - start
	block := x.data.Slice(start, end, 0, x.Dims())

	logEta := mat.NewDense(rows, k, nil)
	diff := mat.NewDense(rows, x.Dims(), nil)
	var weighted mat.Dense
	for c, cp := range p.Clusters {
		mu := cp.Mean.RawVector().Data
		diff.Copy(block)
		for i := 0; i < rows; i++ {
			floats.Sub(diff.RawRowView(i), mu)
		}
		weighted.Reset()
		weighted.Mul(diff, cp.Precision)
		for i := 0; i < rows; i++ {
			quad := floats.Dot(weighted.RawRowView(i), diff.RawRowView(i))
			logEta.Set(i, c, -0.5*quad+offsets[c])
		}
	}

	for i := 0; i < rows; i++ {
		out := resp.RawRowView(start + i)
		if err := normalizeLogRow(logEta.RawRowView(i), out); err != nil {
			return fmt.Errorf("observation %d: %w", start+i, err)
		}
		labels[start+i] = int(distuv.NewCategorical(out, src).Rand())
	}
	return nil
}

// normalizeLogRow writes exp(logRow - max) / Σ exp(logRow - max) into out.
func normalizeLogRow(logRow, out []float64) error {
	for _, v := range logRow {
		if math.IsNaN(v) || math.IsInf(v, 1) {
			return fmt.Errorf("%w: log-responsibility is %v", ErrProbabilityUnderflow, v)
		}
	}
	peak := floats.Max(logRow)
	if math.IsInf(peak, -1) {
		return fmt.Errorf("%w: every cluster has zero responsibility", ErrProbabilityUnderflow)
	}
	for j, v := range logRow {
		out[j] = math.Exp(v - peak)
	}
	floats.Scale(1/floats.Sum(out), out)
	return nil
}
