package bgmm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustedRandIndex_Symmetric(t *testing.T) {
	a := []int{0, 0, 1, 1, 2, 2, 2}
	b := []int{1, 1, 1, 0, 0, 2, 2}
	ab, err := AdjustedRandIndex(a, b)
	require.NoError(t, err)
	ba, err := AdjustedRandIndex(b, a)
	require.NoError(t, err)
	assert.InDelta(t, ab, ba, floatTol)
}

func TestAdjustedRandIndex_RelabelingIsExactlyOne(t *testing.T) {
	truth := []int{0, 0, 0, 1, 1, 2, 2, 2, 2}
	perms := [][3]int{{0, 1, 2}, {2, 0, 1}, {1, 2, 0}, {7, -1, 40}}
	for _, perm := range perms {
		pred := make([]int, len(truth))
		for i, l := range truth {
			pred[i] = perm[l]
		}
		got, err := AdjustedRandIndex(truth, pred)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got, "perm %v", perm)
	}
}

func TestAdjustedRandIndex_Bounds(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		truth := make([]int, 50)
		pred := make([]int, 50)
		for i := range truth {
			truth[i] = int((seed*31 + uint64(i)*7) % 3)
			pred[i] = int((seed*17 + uint64(i)*uint64(i)) % 4)
		}
		got, err := AdjustedRandIndex(truth, pred)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, -1.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestAdjustedRandIndex_SingleClusterBoth(t *testing.T) {
	got, err := AdjustedRandIndex([]int{3, 3, 3}, []int{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestAdjustedRandIndex_LengthMismatch(t *testing.T) {
	_, err := AdjustedRandIndex([]int{0, 1}, []int{0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputShapeMismatch))
}

func TestTrace_RecordRoundsHalfEven(t *testing.T) {
	tr := NewTrace(3)
	assert.True(t, math.IsNaN(tr.Last()))

	// split_class scores 4/7 = 0.571428...
	got, err := tr.Record([]int{0, 0, 1, 2}, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.571, got)

	_, err = tr.Record([]int{0, 0, 1, 1}, []int{1, 1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.571, 1.0}, tr.Values())
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 1.0, tr.Last())

	values := tr.Values()
	values[0] = 42
	assert.Equal(t, 0.571, tr.Values()[0], "Values must return a copy")
}

func TestTrace_NegativePrecisionKeepsFullResolution(t *testing.T) {
	tr := NewTrace(-1)
	got, err := tr.Record([]int{0, 0, 1, 2}, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 4.0/7.0, got, floatTol)
}

func TestTrace_RecordErrorDoesNotAppend(t *testing.T) {
	tr := NewTrace(3)
	_, err := tr.Record([]int{0}, []int{0, 1})
	require.Error(t, err)
	assert.Equal(t, 0, tr.Len())
}
