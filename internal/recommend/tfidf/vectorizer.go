// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package tfidf turns item text into term-weighted vectors.
//
// The vectorizer lowercases text, extracts tokens of two or more word
// characters, drops English stop words and keeps the MaxFeatures most
// frequent terms of the corpus. Weights are raw term counts multiplied by
// the smoothed inverse document frequency
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// and every document vector is L2-normalised, so the cosine similarity of
// two rows is their dot product.
//
// A Vectorizer is refit on every model build; the fitted Matrix keeps its
// vocabulary so held-out text can be projected with Transform.
package tfidf

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxFeatures caps the vocabulary size.
const DefaultMaxFeatures = 1000

// Vectorizer configures TF-IDF fitting.
type Vectorizer struct {
	// MaxFeatures limits the vocabulary to the most frequent terms.
	// Zero or negative means DefaultMaxFeatures.
	MaxFeatures int

	// StopWords are removed before counting. Nil disables stop-word removal.
	StopWords map[string]struct{}
}

// NewVectorizer returns a vectorizer with the English stop list and the
// given vocabulary cap.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{
		MaxFeatures: maxFeatures,
		StopWords:   EnglishStopWords(),
	}
}

// Tokenize splits text into lowercase tokens of at least two letters,
// digits or underscores, with stop words removed.
func (v *Vectorizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := v.StopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// FitTransform learns the vocabulary and IDF weights from docs and returns
// one vector per document, in input order.
func (v *Vectorizer) FitTransform(docs []string) *Matrix {
	maxFeatures := v.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	tokenized := make([][]string, len(docs))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		tokens := v.Tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			corpusFreq[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
	}

	terms := make([]string, 0, len(corpusFreq))
	for t := range corpusFreq {
		terms = append(terms, t)
	}

	if len(terms) > maxFeatures {
		sort.Slice(terms, func(a, b int) bool {
			fa, fb := corpusFreq[terms[a]], corpusFreq[terms[b]]
			if fa != fb {
				return fa > fb
			}
			return terms[a] < terms[b]
		})
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(docs))
	for i, t := range terms {
		vocab[t] = i
		idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}

	m := &Matrix{
		terms: terms,
		vocab: vocab,
		idf:   idf,
		rows:  make([]Vector, len(docs)),
		stop:  v.StopWords,
	}
	for i, tokens := range tokenized {
		m.rows[i] = m.weigh(tokens)
	}
	return m
}
