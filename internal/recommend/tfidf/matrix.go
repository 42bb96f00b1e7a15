// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package tfidf

import (
	"math"
	"sort"
)

// Vector is a sparse term-weight vector. Indices are ascending vocabulary
// positions and Values the matching weights.
type Vector struct {
	Indices []int
	Values  []float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vector) Norm() float64 {
	var s float64
	for _, x := range v.Values {
		s += x * x
	}
	return math.Sqrt(s)
}

// Matrix is a fitted TF-IDF model: the vocabulary, its IDF weights and one
// row vector per fitted document.
type Matrix struct {
	terms []string
	vocab map[string]int
	idf   []float64
	rows  []Vector
	stop  map[string]struct{}
}

// Len returns the number of document rows.
func (m *Matrix) Len() int { return len(m.rows) }

// Features returns the vocabulary size.
func (m *Matrix) Features() int { return len(m.terms) }

// Terms returns the vocabulary in column order.
func (m *Matrix) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Row returns document row i. Callers must not modify it.
func (m *Matrix) Row(i int) Vector { return m.rows[i] }

// Transform projects held-out text onto the fitted vocabulary. Terms that
// were not learned are ignored.
func (m *Matrix) Transform(doc string) Vector {
	v := &Vectorizer{StopWords: m.stop}
	return m.weigh(v.Tokenize(doc))
}

// weigh converts tokens into an L2-normalised TF-IDF vector.
func (m *Matrix) weigh(tokens []string) Vector {
	counts := make(map[int]float64)
	for _, t := range tokens {
		if idx, ok := m.vocab[t]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var sumSq float64
	for i, idx := range indices {
		w := counts[idx] * m.idf[idx]
		values[i] = w
		sumSq += w * w
	}

	norm := math.Sqrt(sumSq)
	for i := range values {
		values[i] /= norm
	}
	return Vector{Indices: indices, Values: values}
}

// Mean returns the dense average of the given rows. Out-of-range indices
// are ignored; with no valid rows the result is nil.
func (m *Matrix) Mean(rows []int) []float64 {
	profile := make([]float64, len(m.terms))
	used := 0
	for _, r := range rows {
		if r < 0 || r >= len(m.rows) {
			continue
		}
		used++
		row := m.rows[r]
		for k, idx := range row.Indices {
			profile[idx] += row.Values[k]
		}
	}
	if used == 0 {
		return nil
	}
	for i := range profile {
		profile[i] /= float64(used)
	}
	return profile
}

// Profile is a dense query vector with its norm precomputed, for scoring
// many rows against the same vector.
type Profile struct {
	values []float64
	norm   float64
}

// NewProfile wraps a dense vector such as the result of Mean.
func NewProfile(values []float64) Profile {
	var s float64
	for _, x := range values {
		s += x * x
	}
	return Profile{values: values, norm: math.Sqrt(s)}
}

// Cosine returns the cosine similarity between the profile and a sparse
// row. Zero norms yield 0.
func (p Profile) Cosine(row Vector) float64 {
	if p.norm == 0 {
		return 0
	}
	var dot float64
	for k, idx := range row.Indices {
		if idx < len(p.values) {
			dot += p.values[idx] * row.Values[k]
		}
	}
	if dot == 0 {
		return 0
	}
	rn := row.Norm()
	if rn == 0 {
		return 0
	}
	return dot / (p.norm * rn)
}

// CosineDense returns the cosine similarity between a dense profile and a
// sparse row. Zero norms yield 0.
func CosineDense(profile []float64, row Vector) float64 {
	return NewProfile(profile).Cosine(row)
}
