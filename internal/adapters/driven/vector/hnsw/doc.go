// Package hnsw implements driven.VectorIndex as a pure-Go Hierarchical
// Navigable Small World graph over unit-normalised vectors.
//
// Similarity is the inner product of unit vectors, accumulated in float64
// and clamped to [-1, 1]. Node levels are drawn from a seeded PCG stream and
// nodes are inserted in item-index order, so two builds over the same input
// produce the same graph. Ties are broken by ascending item index.
//
// The graph is an arena: vectors, levels and per-layer neighbour lists are
// slices indexed by item index, with neighbours stored as int32.
package hnsw
