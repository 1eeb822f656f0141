package hnsw

import "math"

// normalize returns a unit-length copy of v. A zero vector stays zero.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// dot is the inner product accumulated in float64 and clamped to [-1, 1].
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return max(-1, min(1, sum))
}

// bitset marks visited nodes during one search.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

// visit marks i and reports whether it was unmarked.
func (b bitset) visit(i int32) bool {
	word, bit := i/64, uint64(1)<<(uint(i)%64)
	if b[word]&bit != 0 {
		return false
	}
	b[word] |= bit
	return true
}
