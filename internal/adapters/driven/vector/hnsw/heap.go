package hnsw

import "container/heap"

// candidate is a node and its similarity to the query.
type candidate struct {
	id  int32
	sim float64
}

// closer reports whether a ranks before b: higher similarity, then lower id.
func closer(a, b candidate) bool {
	if a.sim != b.sim {
		return a.sim > b.sim
	}
	return a.id < b.id
}

// nearHeap pops the closest candidate first.
type nearHeap []candidate

func (h nearHeap) Len() int           { return len(h) }
func (h nearHeap) Less(i, j int) bool { return closer(h[i], h[j]) }
func (h nearHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nearHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *nearHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

// farHeap pops the furthest candidate first; it holds the current result set.
type farHeap []candidate

func (h farHeap) Len() int           { return len(h) }
func (h farHeap) Less(i, j int) bool { return closer(h[j], h[i]) }
func (h farHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *farHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *farHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

var (
	_ heap.Interface = (*nearHeap)(nil)
	_ heap.Interface = (*farHeap)(nil)
)
