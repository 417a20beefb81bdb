package bgmm

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const floatTol = 1e-10

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// twoBlobs returns n points around (0, 0) followed by n points around
// (sep, sep), both with standard deviation sd, and their true labels.
func twoBlobs(seed uint64, n int, sep, sd float64) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	data := make([][]float64, 0, 2*n)
	truth := make([]int, 0, 2*n)
	for c, center := range []float64{0, sep} {
		for i := 0; i < n; i++ {
			data = append(data, []float64{center + sd*rng.NormFloat64(), center + sd*rng.NormFloat64()})
			truth = append(truth, c)
		}
	}
	return data, truth
}

func uniformData(seed uint64, n, dims int) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, dims)
		for j := range data[i] {
			data[i][j] = rng.Float64() * 10
		}
	}
	return data
}

func mustObservations(t testing.TB, data [][]float64) *Observations {
	t.Helper()
	obs, err := NewObservations(data)
	require.NoError(t, err)
	return obs
}

func mustPrior(t testing.TB, k, dims int) *Prior {
	t.Helper()
	prior, err := NewPrior(DefaultHyperparameters(k, dims), k, dims)
	require.NoError(t, err)
	return prior
}

// requireSPD checks symmetry and strictly positive eigenvalues.
func requireSPD(t *testing.T, name string, a mat.Symmetric) {
	t.Helper()
	n := a.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.Truef(t, almostEqual(a.At(i, j), a.At(j, i), 1e-9), "%s not symmetric at (%d,%d)", name, i, j)
		}
	}
	var eig mat.EigenSym
	require.Truef(t, eig.Factorize(a, false), "%s: eigen decomposition failed", name)
	for i, v := range eig.Values(nil) {
		require.Greaterf(t, v, 0.0, "%s: eigenvalue %d is %g", name, i, v)
	}
}

// requireOneHot checks that every row of z has exactly one 1 and is 0 elsewhere.
func requireOneHot(t *testing.T, z *Assignment) {
	t.Helper()
	ind := z.Indicator()
	n, k := ind.Dims()
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < k; j++ {
			v := ind.At(i, j)
			require.Truef(t, v == 0 || v == 1, "z[%d][%d] = %g", i, j, v)
			sum += v
		}
		require.Equalf(t, 1.0, sum, "row %d of z sums to %g", i, sum)
	}
}

// requireSimplex checks that pi is non-negative and sums to 1.
func requireSimplex(t *testing.T, pi []float64) {
	t.Helper()
	var sum float64
	for i, p := range pi {
		require.GreaterOrEqualf(t, p, 0.0, "pi[%d] = %g", i, p)
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

// labelsEquivalent checks if two label arrays are equivalent under label
// permutation.
func labelsEquivalent(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	forward := make(map[int]int)
	reverse := make(map[int]int)
	for i := range a {
		if mapped, ok := forward[a[i]]; ok && mapped != b[i] {
			return false
		}
		if mapped, ok := reverse[b[i]]; ok && mapped != a[i] {
			return false
		}
		forward[a[i]] = b[i]
		reverse[b[i]] = a[i]
	}
	return true
}
