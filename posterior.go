package bgmm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ClusterPosterior holds the Normal-Wishart posterior of one cluster.
type ClusterPosterior struct {
	// Count is n_k, the number of observations currently in the cluster.
	Count float64
	// Beta is β̂_k = n_k + β.
	Beta float64
	// Mean is m̂_k = (Σ z_nk x_n + β m) / β̂_k.
	Mean *mat.VecDense
	// Scale is Ŵ_k, the inverse of Σ z_nk x_n x_nᵀ + β m mᵀ − β̂_k m̂_k m̂_kᵀ + W⁻¹.
	Scale *mat.SymDense
	// Nu is ν̂_k = n_k + ν.
	Nu float64
}

// Posterior is the full conditional of the cluster parameters and mixing
// weights given the current assignment. It is recomputed every iteration.
type Posterior struct {
	Clusters []ClusterPosterior
	// Alpha is the Dirichlet posterior α̂ = Σ_n z_n + α over all clusters.
	Alpha []float64
	// Jitters counts the diagonal regularization steps needed to invert the
	// posterior scale matrices.
	Jitters int
}

// UpdatePosterior computes the closed-form posterior of every cluster and of
// the mixing weights. It has no side effects. Empty clusters get the prior
// back: β̂ = β, m̂ = m, Ŵ = W, ν̂ = ν.
func UpdatePosterior(z *Assignment, x *Observations, prior *Prior) (*Posterior, error) {
	return updatePosterior(z, x, prior, 1)
}

func updatePosterior(z *Assignment, x *Observations, prior *Prior, workers int) (*Posterior, error) {
	if z.Len() != x.Len() {
		return nil, fmt.Errorf("%w: assignment covers %d observations, have %d", ErrInputShapeMismatch, z.Len(), x.Len())
	}
	if z.Clusters() != prior.Clusters() || x.Dims() != prior.Dims() {
		return nil, fmt.Errorf("%w: assignment/observations are K=%d, D=%d but prior is K=%d, D=%d",
			ErrInputShapeMismatch, z.Clusters(), x.Dims(), prior.Clusters(), prior.Dims())
	}

	k := z.Clusters()
	post := &Posterior{
		Clusters: make([]ClusterPosterior, k),
		Alpha:    make([]float64, k),
	}
	jitters := make([]int, k)
	errs := make([]error, k)

	parallelFor(k, workers, func(start, end int) {
		for c := start; c < end; c++ {
			post.Clusters[c], jitters[c], errs[c] = clusterPosterior(c, z, x, prior)
		}
	})
	if err := firstError(errs); err != nil {
		return nil, err
	}

	for c := 0; c < k; c++ {
		post.Alpha[c] = float64(z.Count(c)) + prior.Alpha[c]
		post.Jitters += jitters[c]
	}
	return post, nil
}

// clusterPosterior computes the Normal-Wishart posterior of cluster c.
func clusterPosterior(c int, z *Assignment, x *Observations, prior *Prior) (ClusterPosterior, int, error) {
	dims := x.Dims()
	count := float64(z.Count(c))
	beta := count + prior.Beta

	// m̂ = (Xᵀ z_c + β m) / β̂
	mean := mat.NewVecDense(dims, nil)
	mean.MulVec(x.data.T(), z.Column(c))
	mean.AddVec(mean, prior.betaMean)
	mean.ScaleVec(1/beta, mean)

	var meanOuter mat.SymDense
	meanOuter.SymOuterK(beta, mean)

	scaleInv := mat.NewDense(dims, dims, nil)
	scaleInv.Add(scatter(z.Members(c), x), prior.meanOuter)
	scaleInv.Sub(scaleInv, &meanOuter)
	scaleInv.Add(scaleInv, prior.scaleInv)

	scale, jitters, err := invertSPD(symmetrize(scaleInv))
	if err != nil {
		return ClusterPosterior{}, jitters, fmt.Errorf("cluster %d posterior scale: %w", c, err)
	}

	return ClusterPosterior{
		Count: count,
		Beta:  beta,
		Mean:  mean,
		Scale: scale,
		Nu:    count + prior.Nu,
	}, jitters, nil
}

// scatter returns Σ x_n x_nᵀ over the given rows as X_cᵀ X_c, a single
// rank-k update. An empty member set gives the zero matrix.
func scatter(members []int, x *Observations) *mat.SymDense {
	dims := x.Dims()
	if len(members) == 0 {
		return mat.NewSymDense(dims, nil)
	}
	rows := mat.NewDense(len(members), dims, nil)
	for i, n := range members {
		rows.SetRow(i, x.Row(n))
	}
	var s mat.SymDense
	s.SymOuterK(1, rows.T())
	return &s
}
