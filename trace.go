package bgmm

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Trace is the append-only sequence of per-iteration ARI scores.
type Trace struct {
	values    []float64
	precision int
}

// NewTrace returns an empty trace that rounds scores half-to-even to
// precision decimal digits. A negative precision keeps full resolution.
func NewTrace(precision int) *Trace {
	return &Trace{precision: precision}
}

// Record scores pred against truth and appends the rounded ARI.
func (t *Trace) Record(truth, pred []int) (float64, error) {
	ari, err := AdjustedRandIndex(truth, pred)
	if err != nil {
		return 0, err
	}
	if t.precision >= 0 {
		ari = scalar.RoundEven(ari, t.precision)
	}
	t.values = append(t.values, ari)
	return ari, nil
}

// Len returns the number of recorded iterations.
func (t *Trace) Len() int { return len(t.values) }

// Last returns the most recent score, or NaN if nothing was recorded.
func (t *Trace) Last() float64 {
	if len(t.values) == 0 {
		return math.NaN()
	}
	return t.values[len(t.values)-1]
}

// Values returns a copy of all recorded scores in iteration order.
func (t *Trace) Values() []float64 {
	return append([]float64(nil), t.values...)
}
