package embeddings

import "math"

// NormalizeL2 scales v to unit L2 norm in place. Zero vectors are left
// untouched. Normalized vectors turn inner-product search into cosine
// similarity search.
func NormalizeL2(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
