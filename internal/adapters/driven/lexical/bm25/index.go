package bm25

import (
	"math"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// Index is a read-only BM25 index over item indices 0..Len()-1.
type Index struct {
	params    domain.LexicalParams
	tokenizer driven.Tokenizer

	docLens  []int
	postings map[string][]domain.Posting
	idf      map[string]float64
	avgLen   float64
}

// newIndex derives the per-term idf and the average length.
// postings must already be in ascending index order.
func newIndex(
	params domain.LexicalParams,
	tokenizer driven.Tokenizer,
	docLens []int,
	postings map[string][]domain.Posting,
) *Index {
	n := float64(len(docLens))

	total := 0
	for _, l := range docLens {
		total += l
	}
	avg := 0.0
	if len(docLens) > 0 {
		avg = float64(total) / n
	}

	idf := make(map[string]float64, len(postings))
	for term, list := range postings {
		df := float64(len(list))
		idf[term] = math.Log(1 + (n-df+0.5)/(df+0.5))
	}

	return &Index{
		params:    params,
		tokenizer: tokenizer,
		docLens:   docLens,
		postings:  postings,
		idf:       idf,
		avgLen:    avg,
	}
}

// Len returns the number of indexed items.
func (x *Index) Len() int {
	return len(x.docLens)
}

// Params returns the build parameters.
func (x *Index) Params() domain.LexicalParams {
	return x.params
}

// Terms returns the vocabulary size.
func (x *Index) Terms() int {
	return len(x.postings)
}

// AvgDocLength returns the mean token count per item.
func (x *Index) AvgDocLength() float64 {
	return x.avgLen
}

// Tokenize splits text with the build-time policy.
func (x *Index) Tokenize(text string) []string {
	return x.tokenizer.Tokenize(text)
}

// ScoreAll returns one BM25 score per item. A term repeated in the query
// contributes once per occurrence; unknown terms contribute nothing.
func (x *Index) ScoreAll(tokens []string) []float64 {
	scores := make([]float64, len(x.docLens))
	if len(tokens) == 0 || x.avgLen == 0 {
		return scores
	}

	k1, b := x.params.K1, x.params.B
	for _, term := range tokens {
		list, ok := x.postings[term]
		if !ok {
			continue
		}
		idf := x.idf[term]
		for _, p := range list {
			tf := float64(p.TF)
			norm := k1 * (1 - b + b*float64(x.docLens[p.Index])/x.avgLen)
			scores[p.Index] += idf * tf * (k1 + 1) / (tf + norm)
		}
	}
	return scores
}

// Snapshot exports the postings arena. The returned maps and slices are copies.
func (x *Index) Snapshot() domain.LexicalSnapshot {
	postings := make(map[string][]domain.Posting, len(x.postings))
	for term, list := range x.postings {
		postings[term] = append([]domain.Posting(nil), list...)
	}
	return domain.LexicalSnapshot{
		Params:     x.params,
		DocLengths: append([]int(nil), x.docLens...),
		Postings:   postings,
	}
}
