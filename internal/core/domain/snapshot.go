package domain

import (
	"slices"
	"time"
)

// LexicalParams are the BM25 parameters fixed at build time.
type LexicalParams struct {
	// K1 controls term-frequency saturation.
	K1 float64

	// B controls document-length normalisation.
	B float64

	// Tokenizer names the tokenization policy used at build time.
	Tokenizer string
}

// GraphParams are the HNSW construction parameters recorded with the index.
type GraphParams struct {
	// M is the neighbour fan-out per layer (layer 0 keeps 2*M).
	M int

	// EfConstruction is the candidate breadth while inserting.
	EfConstruction int

	// EfSearch is the candidate breadth while querying.
	EfSearch int

	// Seed drives the deterministic level assignment.
	Seed uint64

	// Dimension is the vector length, set by the build.
	Dimension int
}

// Posting is one (item index, term frequency) pair.
type Posting struct {
	Index int
	TF    int
}

// LexicalSnapshot is the serialisable state of a BM25 index.
type LexicalSnapshot struct {
	Params LexicalParams

	// DocLengths holds the token count of every item, in item-index order.
	DocLengths []int

	// Postings maps each term to its postings in ascending item-index order.
	Postings map[string][]Posting
}

// GraphSnapshot is the serialisable state of an HNSW graph.
type GraphSnapshot struct {
	Params GraphParams

	// Vectors are the unit-normalised embeddings in item-index order.
	Vectors [][]float32

	// Levels is the top layer of every node.
	Levels []int

	// Neighbors holds, per node, one neighbour list per layer 0..Levels[node].
	Neighbors [][][]int32

	// EntryPoint is the node searches start from, -1 when empty.
	EntryPoint int

	// MaxLevel is the highest layer in the graph.
	MaxLevel int
}

// Snapshot is everything needed to restore a ready engine
// without recomputing embeddings.
type Snapshot struct {
	// BuildID identifies the build that produced the snapshot.
	BuildID string

	// CreatedAt is when the build finished.
	CreatedAt time.Time

	// Items is the corpus in item-index order.
	Items []Item

	// Lexical is the BM25 index state.
	Lexical LexicalSnapshot

	// Vector is the HNSW graph state.
	Vector GraphSnapshot
}

// Clone returns a deep copy, so stores can hand out snapshots
// without sharing backing arrays with the engine.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	out := *s

	out.Items = make([]Item, len(s.Items))
	for i, item := range s.Items {
		item.Options = slices.Clone(item.Options)
		out.Items[i] = item
	}

	out.Lexical.DocLengths = slices.Clone(s.Lexical.DocLengths)
	if s.Lexical.Postings != nil {
		out.Lexical.Postings = make(map[string][]Posting, len(s.Lexical.Postings))
		for term, postings := range s.Lexical.Postings {
			out.Lexical.Postings[term] = slices.Clone(postings)
		}
	}

	out.Vector.Levels = slices.Clone(s.Vector.Levels)
	if s.Vector.Vectors != nil {
		out.Vector.Vectors = make([][]float32, len(s.Vector.Vectors))
		for i, v := range s.Vector.Vectors {
			out.Vector.Vectors[i] = slices.Clone(v)
		}
	}
	if s.Vector.Neighbors != nil {
		out.Vector.Neighbors = make([][][]int32, len(s.Vector.Neighbors))
		for i, layers := range s.Vector.Neighbors {
			out.Vector.Neighbors[i] = make([][]int32, len(layers))
			for l, nbrs := range layers {
				out.Vector.Neighbors[i][l] = slices.Clone(nbrs)
			}
		}
	}

	return &out
}
