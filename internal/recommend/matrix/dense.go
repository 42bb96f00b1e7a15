// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package matrix provides the dense numeric matrices used by the
// recommendation model build: the user × item interaction matrix and the
// user–user / item–item cosine similarity matrices derived from it.
//
// Matrices are row-major and immutable once a build publishes them. All
// exported read methods are safe for concurrent use; Set is only called
// while a matrix is being constructed.
package matrix

import "fmt"

// Dense is a row-major matrix of float64 values.
type Dense struct {
	rows int
	cols int
	data []float64
}

// NewDense returns a zero-filled rows × cols matrix.
// Negative dimensions are treated as zero.
func NewDense(rows, cols int) *Dense {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Dense{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}
}

// Dims returns the number of rows and columns.
func (d *Dense) Dims() (rows, cols int) {
	if d == nil {
		return 0, 0
	}
	return d.rows, d.cols
}

// IsEmpty reports whether the matrix has no cells.
func (d *Dense) IsEmpty() bool {
	return d == nil || d.rows == 0 || d.cols == 0
}

// At returns the value at (i, j). It panics when the index is out of range.
func (d *Dense) At(i, j int) float64 {
	d.check(i, j)
	return d.data[i*d.cols+j]
}

// Set stores v at (i, j). It panics when the index is out of range.
func (d *Dense) Set(i, j int, v float64) {
	d.check(i, j)
	d.data[i*d.cols+j] = v
}

// Row returns a read-only view of row i. Callers must not modify it.
func (d *Dense) Row(i int) []float64 {
	if i < 0 || i >= d.rows {
		panic(fmt.Sprintf("matrix: row %d out of range [0,%d)", i, d.rows))
	}
	return d.data[i*d.cols : (i+1)*d.cols : (i+1)*d.cols]
}

// Col returns a copy of column j.
func (d *Dense) Col(j int) []float64 {
	if j < 0 || j >= d.cols {
		panic(fmt.Sprintf("matrix: column %d out of range [0,%d)", j, d.cols))
	}
	out := make([]float64, d.rows)
	for i := 0; i < d.rows; i++ {
		out[i] = d.data[i*d.cols+j]
	}
	return out
}

// T returns the transpose as a new matrix.
func (d *Dense) T() *Dense {
	t := NewDense(d.cols, d.rows)
	for i := 0; i < d.rows; i++ {
		for j := 0; j < d.cols; j++ {
			t.data[j*t.cols+i] = d.data[i*d.cols+j]
		}
	}
	return t
}

func (d *Dense) check(i, j int) {
	if i < 0 || i >= d.rows || j < 0 || j >= d.cols {
		panic(fmt.Sprintf("matrix: index (%d,%d) out of range for %dx%d", i, j, d.rows, d.cols))
	}
}
