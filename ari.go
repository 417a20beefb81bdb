package bgmm

import "fmt"

// AdjustedRandIndex scores the agreement between two partitions of the same
// observations, corrected for chance. The result is in [-1, 1]; it is 1
// exactly when the partitions are identical up to relabeling. Labels are
// arbitrary integers and need not be contiguous.
//
// It is computed from the pair confusion matrix: tp counts pairs grouped
// together in both partitions, tn pairs separated in both, and fp/fn the
// disagreements.
func AdjustedRandIndex(truth, pred []int) (float64, error) {
	if len(truth) != len(pred) {
		return 0, fmt.Errorf("%w: %d true labels, %d predicted labels", ErrInputShapeMismatch, len(truth), len(pred))
	}
	n := float64(len(truth))

	type cell struct{ t, p int }
	contingency := make(map[cell]float64)
	trueSizes := make(map[int]float64)
	predSizes := make(map[int]float64)
	for i := range truth {
		contingency[cell{truth[i], pred[i]}]++
		trueSizes[truth[i]]++
		predSizes[pred[i]]++
	}

	var sumSquares, trueSquares, predSquares float64
	for _, c := range contingency {
		sumSquares += c * c
	}
	for _, c := range trueSizes {
		trueSquares += c * c
	}
	for _, c := range predSizes {
		predSquares += c * c
	}

	tp := sumSquares - n
	fp := predSquares - sumSquares
	fn := trueSquares - sumSquares
	tn := n*n - fp - fn - sumSquares

	// Identical partitions, including the all-in-one and all-singleton limits.
	if fn == 0 && fp == 0 {
		return 1.0, nil
	}
	return 2 * (tp*tn - fn*fp) / ((tp+fn)*(fn+tn) + (tp+fp)*(fp+tn)), nil
}
