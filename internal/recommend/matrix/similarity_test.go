// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package matrix

import (
	"context"
	"math"
	"testing"
)

const epsilon = 1e-9

func denseFrom(rows [][]float64) *Dense {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	d := NewDense(len(rows), cols)
	for i, r := range rows {
		for j, v := range r {
			d.Set(i, j, v)
		}
	}
	return d
}

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "scaled", a: []float64{1, 1}, b: []float64{5, 5}, want: 1},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
		{name: "both zero", a: []float64{0, 0}, b: []float64{0, 0}, want: 0},
		{name: "length mismatch", a: []float64{1}, b: []float64{1, 2}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatalf("Cosine() = NaN")
			}
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Cosine() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRowCosine_SymmetricWithUnitDiagonal(t *testing.T) {
	t.Parallel()

	d := denseFrom([][]float64{
		{5, 0, 4, 0},
		{4, 0, 0, 1},
		{0, 3, 0, 0},
		{0, 0, 0, 0}, // user whose only interactions fell outside the catalog
		{1, 1, 1, 1},
	})

	for _, workers := range []int{0, 1, 3, 16} {
		sim, err := RowCosine(context.Background(), d, workers)
		if err != nil {
			t.Fatalf("RowCosine(workers=%d) error = %v", workers, err)
		}

		n, m := sim.Dims()
		if n != 5 || m != 5 {
			t.Fatalf("Dims() = %dx%d, want 5x5", n, m)
		}

		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if sim.At(i, j) != sim.At(j, i) {
					t.Errorf("workers=%d: sim[%d][%d]=%f != sim[%d][%d]=%f", workers, i, j, sim.At(i, j), j, i, sim.At(j, i))
				}
				if math.IsNaN(sim.At(i, j)) {
					t.Errorf("workers=%d: sim[%d][%d] is NaN", workers, i, j)
				}
			}
		}

		for _, i := range []int{0, 1, 2, 4} {
			if sim.At(i, i) != 1 {
				t.Errorf("workers=%d: diagonal[%d] = %f, want 1", workers, i, sim.At(i, i))
			}
		}
		if sim.At(3, 3) != 0 {
			t.Errorf("workers=%d: zero row diagonal = %f, want 0", workers, sim.At(3, 3))
		}

		want := Cosine(d.Row(0), d.Row(1))
		if math.Abs(sim.At(0, 1)-want) > epsilon {
			t.Errorf("workers=%d: sim[0][1] = %f, want %f", workers, sim.At(0, 1), want)
		}
	}
}

func TestColumnCosine(t *testing.T) {
	t.Parallel()

	d := denseFrom([][]float64{
		{5, 5, 0},
		{3, 3, 0},
	})

	sim, err := ColumnCosine(context.Background(), d, 2)
	if err != nil {
		t.Fatalf("ColumnCosine() error = %v", err)
	}

	n, m := sim.Dims()
	if n != 3 || m != 3 {
		t.Fatalf("Dims() = %dx%d, want 3x3", n, m)
	}
	if math.Abs(sim.At(0, 1)-1) > epsilon {
		t.Errorf("identical columns similarity = %f, want 1", sim.At(0, 1))
	}
	if sim.At(0, 2) != 0 || sim.At(2, 2) != 0 {
		t.Errorf("zero column should have zero similarity, got %f / %f", sim.At(0, 2), sim.At(2, 2))
	}
}

func TestSimilarity_EmptyMatrix(t *testing.T) {
	t.Parallel()

	empty := NewDense(0, 4)

	rows, err := RowCosine(context.Background(), empty, 4)
	if err != nil {
		t.Fatalf("RowCosine() error = %v", err)
	}
	if !rows.IsEmpty() {
		t.Error("RowCosine() of empty matrix should be empty")
	}

	cols, err := ColumnCosine(context.Background(), empty, 4)
	if err != nil {
		t.Fatalf("ColumnCosine() error = %v", err)
	}
	if !cols.IsEmpty() {
		t.Error("ColumnCosine() of matrix without rows should be empty")
	}
}

func TestRowCosine_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := denseFrom([][]float64{{1, 0}, {0, 1}, {1, 1}})
	if _, err := RowCosine(ctx, d, 2); err == nil {
		t.Error("RowCosine() with canceled context should fail")
	}
}

func TestTopNeighbors(t *testing.T) {
	t.Parallel()

	sim := denseFrom([][]float64{
		{1, 0.5, 0.9, 0.5, 0},
		{0.5, 1, 0, 0, 0},
		{0.9, 0, 1, 0, 0},
		{0.5, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	})

	tests := []struct {
		name string
		i, k int
		want []int
	}{
		{name: "excludes self and orders by similarity then index", i: 0, k: 3, want: []int{2, 1, 3}},
		{name: "k larger than row", i: 0, k: 10, want: []int{2, 1, 3, 4}},
		{name: "k zero", i: 0, k: 0, want: nil},
		{name: "out of range", i: 9, k: 2, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopNeighbors(sim, tt.i, tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("TopNeighbors() len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for idx, n := range got {
				if n.Index == tt.i {
					t.Errorf("TopNeighbors() included self")
				}
				if n.Index != tt.want[idx] {
					t.Errorf("TopNeighbors()[%d] = %d, want %d", idx, n.Index, tt.want[idx])
				}
			}
		})
	}
}

func TestDense_Transpose(t *testing.T) {
	t.Parallel()

	d := denseFrom([][]float64{{1, 2, 3}, {4, 5, 6}})
	tr := d.T()

	r, c := tr.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("T().Dims() = %dx%d, want 3x2", r, c)
	}
	if tr.At(2, 1) != 6 || tr.At(0, 1) != 4 {
		t.Errorf("T() values wrong: %v", tr.data)
	}

	col := d.Col(1)
	if len(col) != 2 || col[0] != 2 || col[1] != 5 {
		t.Errorf("Col(1) = %v, want [2 5]", col)
	}
}
