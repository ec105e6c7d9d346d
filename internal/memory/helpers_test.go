package memory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFloat32BytesRoundTrip verifies BLOB encoding of embedding vectors.
func TestFloat32BytesRoundTrip(t *testing.T) {
	t.Run("typical embedding", func(t *testing.T) {
		input := []float32{0.123, -0.456, 0.789, -0.012, 0.345}

		result := BytesToFloat32Slice(Float32SliceToBytes(input))

		require.Len(t, result, len(input))
		for i := range input {
			assert.Equal(t, input[i], result[i], "value at index %d should match", i)
		}
	})

	t.Run("extreme values", func(t *testing.T) {
		input := []float32{math.MaxFloat32, -math.MaxFloat32, 0, 1e-10}

		result := BytesToFloat32Slice(Float32SliceToBytes(input))

		require.Len(t, result, len(input))
		for i := range input {
			assert.Equal(t, input[i], result[i])
		}
	})

	t.Run("nil slice", func(t *testing.T) {
		assert.Nil(t, Float32SliceToBytes(nil))
		assert.Nil(t, BytesToFloat32Slice(nil))
	})

	t.Run("empty slice decodes to nil", func(t *testing.T) {
		assert.Nil(t, BytesToFloat32Slice(Float32SliceToBytes([]float32{})))
	})

	t.Run("malformed data decodes to nil", func(t *testing.T) {
		assert.Nil(t, BytesToFloat32Slice([]byte{1, 2, 3}))
	})
}

// TestCosineSimilarity verifies vector similarity scoring.
func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0}), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0}), 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0, 0}, []float32{-1, 0, 0}), 1e-9)
	})

	t.Run("45 degree angle", func(t *testing.T) {
		got := CosineSimilarity([]float32{1, 1, 0}, []float32{1, 0, 0})
		assert.InDelta(t, 1.0/math.Sqrt2, got, 1e-9)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	})

	t.Run("empty vectors", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity(nil, nil))
	})

	t.Run("zero norm", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity([]float32{0, 0, 0}, []float32{1, 0, 0}))
	})
}

// TestKeywordOverlap verifies the no-embedder fallback scorer.
func TestKeywordOverlap(t *testing.T) {
	t.Run("all query words present", func(t *testing.T) {
		got := keywordOverlap("python decorators", "we covered python decorators in depth")
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("partial match", func(t *testing.T) {
		got := keywordOverlap("python decorators", "advanced decorators explained")
		assert.InDelta(t, 0.5, got, 1e-9)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Zero(t, keywordOverlap("quantum physics", "fresh pasta needs flour"))
	})

	t.Run("case and punctuation ignored", func(t *testing.T) {
		got := keywordOverlap("Python?", "today we discussed python again")
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("repeated query words count once", func(t *testing.T) {
		got := keywordOverlap("go go go", "learning go today")
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Zero(t, keywordOverlap("", "anything"))
	})
}

// TestTopK verifies top-K selection order and bounds.
func TestTopK(t *testing.T) {
	items := []ScoredItem[string]{
		{Item: "e", Score: 0.1},
		{Item: "a", Score: 0.9},
		{Item: "c", Score: 0.5},
		{Item: "b", Score: 0.7},
		{Item: "d", Score: 0.3},
	}

	t.Run("selects highest scores descending", func(t *testing.T) {
		got := TopK(items, 2)

		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Item)
		assert.Equal(t, "b", got[1].Item)
	})

	t.Run("k larger than input returns all sorted", func(t *testing.T) {
		got := TopK(items, 10)

		require.Len(t, got, 5)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		}
	})

	t.Run("zero k returns nil", func(t *testing.T) {
		assert.Nil(t, TopK(items, 0))
	})

	t.Run("empty input returns nil", func(t *testing.T) {
		assert.Nil(t, TopK[string](nil, 3))
	})
}
