// Package report renders run results as text tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/mat"

	"github.com/TrevorS/bgmm"
)

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'f', 4, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatMatrix(m mat.Matrix) string {
	r, _ := m.Dims()
	rows := make([]string, r)
	for i := 0; i < r; i++ {
		rows[i] = formatVector(mat.Row(nil, i, m))
	}
	return strings.Join(rows, "\n")
}

// Parameters writes one row per cluster of the final draw: its size, its
// mixing weight, its mean and its precision matrix.
func Parameters(w io.Writer, result *bgmm.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Cluster", "Count", "Weight", "Mean", "Precision"})
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for k, cp := range result.Parameters.Clusters {
		table.Append([]string{
			strconv.Itoa(k),
			strconv.Itoa(result.Assignment.Count(k)),
			strconv.FormatFloat(result.Parameters.Weights[k], 'f', 4, 64),
			formatVector(cp.Mean.RawVector().Data),
			formatMatrix(cp.Precision),
		})
	}
	table.Render()
}

// Run writes a key/value summary of a finished run.
func Run(w io.Writer, runID string, seed uint64, observations int, result *bgmm.Result) {
	finalARI := "n/a"
	if n := len(result.Trace); n > 0 {
		finalARI = strconv.FormatFloat(result.Trace[n-1], 'f', -1, 64)
	}
	best := math.Inf(-1)
	for _, v := range result.Trace {
		best = math.Max(best, v)
	}
	bestARI := "n/a"
	if !math.IsInf(best, -1) {
		bestARI = strconv.FormatFloat(best, 'f', -1, 64)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run", "Value"})
	table.AppendBulk([][]string{
		{"id", runID},
		{"seed", strconv.FormatUint(seed, 10)},
		{"observations", strconv.Itoa(observations)},
		{"clusters", strconv.Itoa(len(result.Parameters.Clusters))},
		{"iterations", strconv.Itoa(result.Iterations)},
		{"final ARI", finalARI},
		{"best ARI", bestARI},
		{"jitter steps (last iteration)", fmt.Sprint(result.Parameters.Jitters)},
	})
	table.Render()
}
