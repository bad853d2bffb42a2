package index

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Training defaults.
const (
	DefaultIterations = 20
	DefaultSeed       = 1234

	// maxPointsPerCentroid caps the k-means training sample.
	maxPointsPerCentroid = 256
)

// Ensure IVFIndex implements the interface.
var _ driven.VectorIndex = (*IVFIndex)(nil)

// IVFIndex is an inverted-file index over unit vectors. Each vector is
// stored in the list of its most similar centroid.
type IVFIndex struct {
	m         domain.Matrix
	centroids domain.Matrix
	lists     [][]int32
	nprobe    int
}

// TrainOptions control k-means training.
type TrainOptions struct {
	Iterations int
	Seed       uint64
}

// TrainIVF runs spherical k-means on the rows of m and assigns every row
// to its nearest centroid.
func TrainIVF(ctx context.Context, m domain.Matrix, nlist, nprobe int, opts TrainOptions) (*IVFIndex, error) {
	if err := checkMatrix(m); err != nil {
		return nil, err
	}
	if nlist <= 0 || nlist > m.Rows {
		return nil, fmt.Errorf("%w: nlist %d for %d vectors", domain.ErrInvalidInput, nlist, m.Rows)
	}
	if nprobe <= 0 || nprobe > nlist {
		nprobe = nlist
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	sample := trainingSample(m, nlist, rng)
	centroids, err := kmeans(ctx, sample, nlist, opts.Iterations, rng)
	if err != nil {
		return nil, err
	}

	idx := &IVFIndex{
		m:         domain.Matrix{Rows: m.Rows, Dim: m.Dim, Data: append([]float32(nil), m.Data...)},
		centroids: centroids,
		lists:     make([][]int32, nlist),
		nprobe:    nprobe,
	}
	assign := assignAll(idx.m, centroids)
	for i, c := range assign {
		idx.lists[c] = append(idx.lists[c], int32(i))
	}

	empty := 0
	for _, l := range idx.lists {
		if len(l) == 0 {
			empty++
		}
	}
	logger.Debug("ivf: trained %d centroids on %d of %d vectors (%d empty lists)",
		nlist, sample.Rows, m.Rows, empty)
	return idx, nil
}

// Kind returns domain.IndexIVF.
func (x *IVFIndex) Kind() domain.IndexKind { return domain.IndexIVF }

// Len returns the number of indexed vectors.
func (x *IVFIndex) Len() int { return x.m.Rows }

// Dim returns the vector dimension.
func (x *IVFIndex) Dim() int { return x.m.Dim }

// NList returns the number of clusters.
func (x *IVFIndex) NList() int { return x.centroids.Rows }

// NProbe returns the number of clusters searched per query.
func (x *IVFIndex) NProbe() int { return x.nprobe }

// Search scans the nprobe lists whose centroids are most similar to query.
func (x *IVFIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := checkQuery(query, x.m.Dim, k); err != nil {
		return nil, err
	}

	probe := newTopK(x.nprobe)
	for c := 0; c < x.centroids.Rows; c++ {
		probe.push(c, domain.Dot(query, x.centroids.Row(c)))
	}

	top := newTopK(k)
	for _, p := range probe.results() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, pos := range x.lists[p.Position] {
			top.push(int(pos), domain.Dot(query, x.m.Row(int(pos))))
		}
	}
	return top.results(), nil
}

// Save writes the index to path.
func (x *IVFIndex) Save(path string) error {
	return writeFile(path, x.m, x)
}

// Close releases resources.
func (x *IVFIndex) Close() error { return nil }

// trainingSample returns at most maxPointsPerCentroid*nlist rows of m.
func trainingSample(m domain.Matrix, nlist int, rng *rand.Rand) domain.Matrix {
	limit := maxPointsPerCentroid * nlist
	if m.Rows <= limit {
		return m
	}
	perm := rng.Perm(m.Rows)[:limit]
	sort.Ints(perm)
	data := make([]float32, 0, limit*m.Dim)
	for _, i := range perm {
		data = append(data, m.Row(i)...)
	}
	return domain.Matrix{Rows: limit, Dim: m.Dim, Data: data}
}

// kmeans clusters unit vectors by cosine similarity. Centroids are
// renormalised after every update; an emptied cluster is reseeded with a
// random training point.
func kmeans(ctx context.Context, m domain.Matrix, k, iterations int, rng *rand.Rand) (domain.Matrix, error) {
	centroids := domain.Matrix{Rows: k, Dim: m.Dim, Data: make([]float32, k*m.Dim)}
	for c, i := range rng.Perm(m.Rows)[:k] {
		copy(centroids.Row(c), m.Row(i))
	}

	sums := make([]float64, k*m.Dim)
	counts := make([]int, k)
	for iter := 0; iter < iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return domain.Matrix{}, err
		}

		assign := assignAll(m, centroids)

		clear(sums)
		clear(counts)
		for i, c := range assign {
			counts[c]++
			row := m.Row(i)
			base := c * m.Dim
			for d, v := range row {
				sums[base+d] += float64(v)
			}
		}

		for c := 0; c < k; c++ {
			dst := centroids.Row(c)
			if counts[c] == 0 {
				copy(dst, m.Row(rng.IntN(m.Rows)))
				continue
			}
			base := c * m.Dim
			for d := range dst {
				dst[d] = float32(sums[base+d])
			}
			copy(dst, domain.NormalizeL2(dst))
		}
	}
	return centroids, nil
}

// assignAll returns the most similar centroid for every row, computed in
// parallel over contiguous row ranges.
func assignAll(m, centroids domain.Matrix) []int {
	assign := make([]int, m.Rows)
	workers := runtime.GOMAXPROCS(0)
	if workers > m.Rows {
		workers = m.Rows
	}
	chunk := (m.Rows + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < m.Rows; start += chunk {
		end := min(start+chunk, m.Rows)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				assign[i] = nearest(m.Row(i), centroids)
			}
		}(start, end)
	}
	wg.Wait()
	return assign
}

func nearest(v []float32, centroids domain.Matrix) int {
	best, bestSim := 0, -2.0
	for c := 0; c < centroids.Rows; c++ {
		if sim := domain.Dot(v, centroids.Row(c)); sim > bestSim {
			best, bestSim = c, sim
		}
	}
	return best
}
