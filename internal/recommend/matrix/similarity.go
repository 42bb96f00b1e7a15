// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package matrix

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"
)

// Cosine computes the cosine similarity of two equal-length vectors.
// A zero-norm operand yields 0 rather than NaN.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RowCosine returns the n × n cosine similarity matrix between the rows of d.
//
// The result is exactly symmetric: only the upper triangle is computed and
// then mirrored. Diagonal entries are 1 for every row with a non-zero norm
// and 0 for all-zero rows. Work is spread over workers goroutines; a value
// <= 0 uses runtime.NumCPU().
func RowCosine(ctx context.Context, d *Dense, workers int) (*Dense, error) {
	rows, _ := d.Dims()
	if rows == 0 {
		return NewDense(0, 0), nil
	}

	vectors := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		vectors[i] = d.Row(i)
	}
	return pairwiseCosine(ctx, vectors, workers)
}

// ColumnCosine returns the m × m cosine similarity matrix between the
// columns of d. A matrix with no rows yields an empty result, since there
// is no collaborative signal to compare.
func ColumnCosine(ctx context.Context, d *Dense, workers int) (*Dense, error) {
	rows, _ := d.Dims()
	if rows == 0 {
		return NewDense(0, 0), nil
	}

	t := d.T()
	cols, _ := t.Dims()
	vectors := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		vectors[j] = t.Row(j)
	}
	return pairwiseCosine(ctx, vectors, workers)
}

func pairwiseCosine(ctx context.Context, vectors [][]float64, workers int) (*Dense, error) {
	n := len(vectors)
	out := NewDense(n, n)

	norms := make([]float64, n)
	for i, v := range vectors {
		var s float64
		for _, x := range v {
			s += x * x
		}
		norms[i] = math.Sqrt(s)
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	// Rows are handed out one at a time; later rows have less work in the
	// upper triangle, so static chunking would leave workers idle.
	next := make(chan int, n)
	for i := 0; i < n; i++ {
		next <- i
	}
	close(next)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				if ctx.Err() != nil {
					return
				}
				vi := vectors[i]
				if norms[i] == 0 {
					continue
				}
				out.data[i*n+i] = 1
				for j := i + 1; j < n; j++ {
					if norms[j] == 0 {
						continue
					}
					var dot float64
					vj := vectors[j]
					for k := range vi {
						dot += vi[k] * vj[k]
					}
					sim := dot / (norms[i] * norms[j])
					// Each (i, j) pair is owned by exactly one worker.
					out.data[i*n+j] = sim
					out.data[j*n+i] = sim
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Neighbor is an entry of a similarity row: another row/column index and
// its similarity to the source.
type Neighbor struct {
	Index      int
	Similarity float64
}

// TopNeighbors returns the k entries of similarity row i with the highest
// similarity, excluding i itself. Ties are broken by ascending index so the
// selection is deterministic.
func TopNeighbors(sim *Dense, i, k int) []Neighbor {
	n, _ := sim.Dims()
	if k <= 0 || i < 0 || i >= n {
		return nil
	}

	row := sim.Row(i)
	neighbors := make([]Neighbor, 0, n-1)
	for j, s := range row {
		if j == i {
			continue
		}
		neighbors = append(neighbors, Neighbor{Index: j, Similarity: s})
	}

	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].Similarity != neighbors[b].Similarity {
			return neighbors[a].Similarity > neighbors[b].Similarity
		}
		return neighbors[a].Index < neighbors[b].Index
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}
