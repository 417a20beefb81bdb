package bgmm

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func twoClusterParameters(weights ...float64) *Parameters {
	if len(weights) == 0 {
		weights = []float64{0.5, 0.5}
	}
	identity := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	return &Parameters{
		Clusters: []ClusterParameters{
			{Mean: mat.NewVecDense(2, []float64{0, 0}), Precision: identity},
			{Mean: mat.NewVecDense(2, []float64{10, 10}), Precision: identity},
		},
		Weights: weights,
	}
}

func TestSampleAssignment_SeparatedPoints(t *testing.T) {
	x := mustObservations(t, [][]float64{
		{0, 0}, {0.5, -0.5}, {10, 10}, {9.5, 10.2},
	})

	z, resp, err := SampleAssignment(x, twoClusterParameters(), rand.NewPCG(1, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1}, z.Labels())
	requireOneHot(t, z)

	n, k := resp.Dims()
	require.Equal(t, 4, n)
	require.Equal(t, 2, k)
	for i := 0; i < n; i++ {
		assert.InDelta(t, 1.0, resp.At(i, 0)+resp.At(i, 1), 1e-12)
	}
	assert.InDelta(t, 1.0, resp.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, resp.At(2, 1), 1e-12)
}

func TestSampleAssignment_FarOutlierDoesNotUnderflow(t *testing.T) {
	// Every η is exp(-1e8) or smaller; only the shifted log form survives.
	x := mustObservations(t, [][]float64{{1e4, 1e4}, {-1e4, -1e4}})

	z, resp, err := SampleAssignment(x, twoClusterParameters(), rand.NewPCG(2, 2), 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, z.Labels())
	for i := 0; i < 2; i++ {
		row := mat.Row(nil, i, resp)
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
		}
		assert.InDelta(t, 1.0, row[0]+row[1], 1e-12)
	}
}

func TestSampleAssignment_ZeroWeightCluster(t *testing.T) {
	// log π_k is guarded by ε, so the zero-weight cluster keeps a tiny but
	// non-zero responsibility.
	x := mustObservations(t, [][]float64{{0, 0}})
	_, resp, err := SampleAssignment(x, twoClusterParameters(1, 0), rand.NewPCG(3, 3), 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, resp.At(0, 0)+resp.At(0, 1), 1e-12)
	assert.Greater(t, resp.At(0, 1), 0.0)
}

func TestSampleAssignment_WorkersAgree(t *testing.T) {
	data := uniformData(17, 1000, 2)
	x := mustObservations(t, data)
	params := twoClusterParameters()

	wantZ, wantResp, err := SampleAssignment(x, params, rand.NewPCG(8, 9), 1)
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 16} {
		z, resp, err := SampleAssignment(x, params, rand.NewPCG(8, 9), workers)
		require.NoError(t, err)
		assert.Equal(t, wantZ.Labels(), z.Labels(), "workers=%d", workers)
		assert.True(t, mat.Equal(wantResp, resp), "workers=%d", workers)
	}
}

func TestSampleAssignment_ShapeMismatch(t *testing.T) {
	x := mustObservations(t, [][]float64{{0, 0}})
	params := twoClusterParameters(1)
	_, _, err := SampleAssignment(x, params, rand.NewPCG(1, 1), 1)
	assert.True(t, errors.Is(err, ErrInputShapeMismatch))
}

func TestNormalizeLogRow(t *testing.T) {
	out := make([]float64, 3)
	require.NoError(t, normalizeLogRow([]float64{-1000, -1001, math.Inf(-1)}, out))
	e := math.Exp(-1)
	assert.InDelta(t, 1/(1+e), out[0], 1e-12)
	assert.InDelta(t, e/(1+e), out[1], 1e-12)
	assert.Equal(t, 0.0, out[2])

	tests := []struct {
		name string
		row  []float64
	}{
		{"all -Inf", []float64{math.Inf(-1), math.Inf(-1)}},
		{"NaN", []float64{math.NaN(), 0}},
		{"+Inf", []float64{math.Inf(1), 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := normalizeLogRow(tt.row, make([]float64, len(tt.row)))
			assert.True(t, errors.Is(err, ErrProbabilityUnderflow), "got %v", err)
		})
	}
}
