package hnsw

import (
	"container/heap"
	"context"
	"slices"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
)

// Ensure Graph implements the interface.
var _ driven.VectorIndex = (*Graph)(nil)

// Graph is a built HNSW index. It is read-only and safe for concurrent Search.
type Graph struct {
	params    domain.GraphParams
	vectors   [][]float32
	levels    []int
	neighbors [][][]int32
	entry     int
	maxLevel  int
}

// Len returns the number of indexed vectors.
func (g *Graph) Len() int {
	return len(g.vectors)
}

// Dimension returns the vector length.
func (g *Graph) Dimension() int {
	return g.params.Dimension
}

// Params returns the construction parameters.
func (g *Graph) Params() domain.GraphParams {
	return g.params
}

// maxNeighbors is the fan-out cap of a layer; layer 0 keeps twice as many.
func (g *Graph) maxNeighbors(layer int) int {
	if layer == 0 {
		return 2 * g.params.M
	}
	return g.params.M
}

func (g *Graph) sim(q []float32, id int32) float64 {
	return dot(q, g.vectors[id])
}

// Search returns up to k nearest items to query by inner product, ordered by
// similarity descending and then by item index. When k covers the whole index
// an exact scan is used so every item appears exactly once.
func (g *Graph) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 || len(g.vectors) == 0 {
		return nil, nil
	}
	if len(query) != g.params.Dimension {
		return nil, &domain.DimensionMismatchError{Index: -1, Want: g.params.Dimension, Got: len(query)}
	}

	q := normalize(query)

	var found []candidate
	if k >= len(g.vectors) {
		found = g.exact(q)
	} else {
		ep := g.greedy(q, int32(g.entry), g.maxLevel, 1) //nolint:gosec // node ids fit in int32
		found = g.searchLayer(q, []int32{ep}, max(g.params.EfSearch, k), 0)
		slices.SortFunc(found, compareCandidates)
		if len(found) > k {
			found = found[:k]
		}
	}

	hits := make([]driven.VectorHit, len(found))
	for i, c := range found {
		hits[i] = driven.VectorHit{Index: int(c.id), Similarity: c.sim}
	}
	return hits, nil
}

// exact scores every node.
func (g *Graph) exact(q []float32) []candidate {
	all := make([]candidate, len(g.vectors))
	for i := range g.vectors {
		id := int32(i) //nolint:gosec // node ids fit in int32
		all[i] = candidate{id: id, sim: g.sim(q, id)}
	}
	slices.SortFunc(all, compareCandidates)
	return all
}

// greedy walks layers from top down to bottom (inclusive), always moving to
// the closest neighbour, and returns the node it settles on.
func (g *Graph) greedy(q []float32, ep int32, top, bottom int) int32 {
	cur := candidate{id: ep, sim: g.sim(q, ep)}
	for layer := top; layer >= bottom; layer-- {
		for changed := true; changed; {
			changed = false
			for _, nb := range g.neighbors[cur.id][layer] {
				c := candidate{id: nb, sim: g.sim(q, nb)}
				if closer(c, cur) {
					cur = c
					changed = true
				}
			}
		}
	}
	return cur.id
}

// searchLayer is the beam search of one layer with breadth ef.
// The result is unordered.
func (g *Graph) searchLayer(q []float32, entries []int32, ef int, layer int) []candidate {
	visited := newBitset(len(g.vectors))
	cands := &nearHeap{}
	results := &farHeap{}

	for _, ep := range entries {
		visited.visit(ep)
		c := candidate{id: ep, sim: g.sim(q, ep)}
		heap.Push(cands, c)
		heap.Push(results, c)
	}

	for cands.Len() > 0 {
		c := heap.Pop(cands).(candidate)
		if results.Len() >= ef && closer((*results)[0], c) {
			break
		}
		for _, nb := range g.neighbors[c.id][layer] {
			if !visited.visit(nb) {
				continue
			}
			n := candidate{id: nb, sim: g.sim(q, nb)}
			if results.Len() < ef || closer(n, (*results)[0]) {
				heap.Push(cands, n)
				heap.Push(results, n)
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	return []candidate(*results)
}

// selectNeighbors keeps up to m candidates that are closer to the base node
// than to any already selected candidate, scanning from the closest.
func (g *Graph) selectNeighbors(cands []candidate, m int) []int32 {
	slices.SortFunc(cands, compareCandidates)
	selected := make([]int32, 0, m)
	for _, c := range cands {
		if len(selected) >= m {
			break
		}
		keep := true
		for _, s := range selected {
			if dot(g.vectors[c.id], g.vectors[s]) > c.sim {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c.id)
		}
	}
	return selected
}

// insert links node id into every layer up to its level.
func (g *Graph) insert(id int32) {
	level := g.levels[id]
	g.neighbors[id] = make([][]int32, level+1)
	for l := range g.neighbors[id] {
		g.neighbors[id][l] = []int32{}
	}

	if g.entry < 0 {
		g.entry = int(id)
		g.maxLevel = level
		return
	}

	q := g.vectors[id]
	ep := int32(g.entry) //nolint:gosec // node ids fit in int32
	if g.maxLevel > level {
		ep = g.greedy(q, ep, g.maxLevel, level+1)
	}

	entries := []int32{ep}
	for layer := min(level, g.maxLevel); layer >= 0; layer-- {
		found := g.searchLayer(q, entries, g.params.EfConstruction, layer)
		selected := g.selectNeighbors(slices.Clone(found), g.params.M)
		g.neighbors[id][layer] = selected

		for _, nb := range selected {
			g.link(nb, id, layer)
		}

		entries = entries[:0]
		for _, c := range found {
			entries = append(entries, c.id)
		}
	}

	if level > g.maxLevel {
		g.entry = int(id)
		g.maxLevel = level
	}
}

// link adds a back-edge from node to id, pruning node's list when it overflows.
func (g *Graph) link(node, id int32, layer int) {
	list := append(g.neighbors[node][layer], id)
	limit := g.maxNeighbors(layer)
	if len(list) > limit {
		base := g.vectors[node]
		cands := make([]candidate, len(list))
		for i, nb := range list {
			cands[i] = candidate{id: nb, sim: dot(base, g.vectors[nb])}
		}
		list = g.selectNeighbors(cands, limit)
	}
	g.neighbors[node][layer] = list
}

// Snapshot exports a deep copy of the graph.
func (g *Graph) Snapshot() domain.GraphSnapshot {
	vectors := make([][]float32, len(g.vectors))
	for i, v := range g.vectors {
		vectors[i] = slices.Clone(v)
	}
	neighbors := make([][][]int32, len(g.neighbors))
	for i, layers := range g.neighbors {
		neighbors[i] = make([][]int32, len(layers))
		for l, list := range layers {
			neighbors[i][l] = slices.Clone(list)
		}
	}
	return domain.GraphSnapshot{
		Params:     g.params,
		Vectors:    vectors,
		Levels:     slices.Clone(g.levels),
		Neighbors:  neighbors,
		EntryPoint: g.entry,
		MaxLevel:   g.maxLevel,
	}
}

func compareCandidates(a, b candidate) int {
	switch {
	case closer(a, b):
		return -1
	case closer(b, a):
		return 1
	default:
		return 0
	}
}
