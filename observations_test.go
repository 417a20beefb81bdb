package bgmm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewObservations(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	obs, err := NewObservations(rows)
	require.NoError(t, err)

	assert.Equal(t, 3, obs.Len())
	assert.Equal(t, 2, obs.Dims())
	assert.Equal(t, []float64{3, 4}, obs.Row(1))

	// The input is copied.
	rows[1][0] = 100
	assert.Equal(t, 3.0, obs.Row(1)[0])
	assert.Equal(t, 5.0, obs.Matrix().At(2, 0))
}

func TestNewObservations_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
	}{
		{"empty", [][]float64{}},
		{"nil", nil},
		{"zero dims", [][]float64{{}, {}}},
		{"ragged", [][]float64{{1, 2}, {3}}},
		{"NaN", [][]float64{{1, 2}, {math.NaN(), 4}}},
		{"Inf", [][]float64{{math.Inf(-1), 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewObservations(tt.rows)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInputShapeMismatch), "got %v", err)
		})
	}
}

func TestNewObservationsDense(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	obs, err := NewObservationsDense(m)
	require.NoError(t, err)
	assert.Equal(t, 2, obs.Len())
	assert.Equal(t, 3, obs.Dims())

	m.Set(0, 0, -1)
	assert.Equal(t, 1.0, obs.Row(0)[0])

	_, err = NewObservationsDense(&mat.Dense{})
	assert.True(t, errors.Is(err, ErrInputShapeMismatch))

	_, err = NewObservationsDense(mat.NewDense(1, 2, []float64{math.NaN(), 1}))
	assert.True(t, errors.Is(err, ErrInputShapeMismatch))
}

func TestAssignment(t *testing.T) {
	z, err := NewAssignment([]int{1, 0, 1, 1}, 3)
	require.NoError(t, err)

	assert.Equal(t, 4, z.Len())
	assert.Equal(t, 3, z.Clusters())
	assert.Equal(t, []int{1, 3, 0}, z.Counts())
	assert.Equal(t, []int{0, 2, 3}, z.Members(1))
	assert.Empty(t, z.Members(2))
	assert.Equal(t, []float64{1, 0, 1, 1}, z.Column(1).RawVector().Data)
	requireOneHot(t, z)

	want := mat.NewDense(4, 3, []float64{
		0, 1, 0,
		1, 0, 0,
		0, 1, 0,
		0, 1, 0,
	})
	assert.True(t, mat.Equal(want, z.Indicator()))

	labels := z.Labels()
	labels[0] = 2
	assert.Equal(t, 1, z.Label(0), "Labels must return a copy")
}

func TestNewAssignment_Errors(t *testing.T) {
	_, err := NewAssignment([]int{0, 3}, 3)
	assert.True(t, errors.Is(err, ErrInputShapeMismatch))
	_, err = NewAssignment([]int{-1}, 3)
	assert.True(t, errors.Is(err, ErrInputShapeMismatch))
	_, err = NewAssignment([]int{0}, 0)
	assert.True(t, errors.Is(err, ErrInputShapeMismatch))
}
