package bgmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Observations is the fixed N×D observation matrix of a run.
// It is never modified after construction.
type Observations struct {
	data *mat.Dense
	n    int
	dims int
}

// NewObservations copies rows into an N×D matrix. All rows must have the
// same non-zero length and contain only finite values; an empty slice is
// rejected with ErrInputShapeMismatch.
func NewObservations(rows [][]float64) (*Observations, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrInputShapeMismatch)
	}
	dims := len(rows[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: observations have zero dimensions", ErrInputShapeMismatch)
	}

	flat := make([]float64, n*dims)
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInputShapeMismatch, i, len(row), dims)
		}
		copy(flat[i*dims:], row)
	}
	if err := checkFinite(flat, dims); err != nil {
		return nil, err
	}

	return &Observations{data: mat.NewDense(n, dims, flat), n: n, dims: dims}, nil
}

// NewObservationsDense wraps a copy of x.
func NewObservationsDense(x mat.Matrix) (*Observations, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: no observations", ErrInputShapeMismatch)
	}
	if d, ok := x.(*mat.Dense); ok && d.IsEmpty() {
		return nil, fmt.Errorf("%w: no observations", ErrInputShapeMismatch)
	}
	n, dims := x.Dims()
	if n == 0 || dims == 0 {
		return nil, fmt.Errorf("%w: observation matrix is %d×%d", ErrInputShapeMismatch, n, dims)
	}
	data := mat.DenseCopyOf(x)
	for i := 0; i < n; i++ {
		if err := checkFinite(data.RawRowView(i), dims); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return &Observations{data: data, n: n, dims: dims}, nil
}

func checkFinite(values []float64, dims int) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value %v at row %d, column %d",
				ErrInputShapeMismatch, v, i/dims, i%dims)
		}
	}
	return nil
}

// Len returns the number of observations N.
func (o *Observations) Len() int { return o.n }

// Dims returns the dimensionality D.
func (o *Observations) Dims() int { return o.dims }

// Row returns observation i. The slice aliases the underlying storage and
// must not be modified.
func (o *Observations) Row(i int) []float64 { return o.data.RawRowView(i) }

// Matrix returns a read-only view of the N×D matrix.
func (o *Observations) Matrix() mat.Matrix { return o.data }
