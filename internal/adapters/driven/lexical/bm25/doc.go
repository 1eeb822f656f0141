// Package bm25 implements driven.LexicalIndex with Okapi BM25 over an
// in-memory postings arena.
//
// Postings map each term to (item index, term frequency) pairs in ascending
// index order. Document lengths are kept per item. Inverse document
// frequencies are derived from the postings, so a snapshot carries only the
// postings, the lengths and the parameters.
//
// Scores use the non-negative idf variant ln(1 + (N - n + 0.5) / (n + 0.5)),
// so every ScoreAll result is >= 0 and items sharing no query term score 0.
package bm25
