package bgmm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Assignment maps every observation to exactly one of K clusters. It is the
// hard-label form of the N×K one-hot indicator matrix z; Indicator returns
// the matrix form. An Assignment is never modified once built.
type Assignment struct {
	labels  []int
	k       int
	counts  []int
	members [][]int
}

// NewAssignment builds an assignment from hard labels in [0, k).
func NewAssignment(labels []int, k int) (*Assignment, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: need at least one cluster, got %d", ErrInputShapeMismatch, k)
	}
	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, fmt.Errorf("%w: label %d of observation %d is outside [0, %d)", ErrInputShapeMismatch, l, i, k)
		}
	}
	return newAssignment(append([]int(nil), labels...), k), nil
}

// newAssignment takes ownership of labels, which must already be in range.
func newAssignment(labels []int, k int) *Assignment {
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}
	members := make([][]int, k)
	for c := range members {
		members[c] = make([]int, 0, counts[c])
	}
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	return &Assignment{labels: labels, k: k, counts: counts, members: members}
}

// Len returns the number of observations.
func (a *Assignment) Len() int { return len(a.labels) }

// Clusters returns K.
func (a *Assignment) Clusters() int { return a.k }

// Label returns the cluster of observation n.
func (a *Assignment) Label(n int) int { return a.labels[n] }

// Labels returns a copy of the hard labels.
func (a *Assignment) Labels() []int { return append([]int(nil), a.labels...) }

// Count returns n_k, the number of observations assigned to cluster k.
func (a *Assignment) Count(k int) int { return a.counts[k] }

// Counts returns a copy of the per-cluster membership counts.
func (a *Assignment) Counts() []int { return append([]int(nil), a.counts...) }

// Members returns the indices of the observations in cluster k, ascending.
// The slice must not be modified.
func (a *Assignment) Members(k int) []int { return a.members[k] }

// Column returns z[:, k], the 0/1 indicator column of cluster k.
func (a *Assignment) Column(k int) *mat.VecDense {
	col := mat.NewVecDense(len(a.labels), nil)
	for _, n := range a.members[k] {
		col.SetVec(n, 1)
	}
	return col
}

// Indicator returns the N×K one-hot matrix z.
func (a *Assignment) Indicator() *mat.Dense {
	z := mat.NewDense(len(a.labels), a.k, nil)
	for n, l := range a.labels {
		z.Set(n, l, 1)
	}
	return z
}
