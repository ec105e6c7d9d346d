package memory

import (
	"container/heap"
	"encoding/binary"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Float32SliceToBytes converts a float32 slice to bytes for SQLite BLOB storage.
func Float32SliceToBytes(slice []float32) []byte {
	if slice == nil {
		return nil
	}
	buf := make([]byte, len(slice)*4)
	for i, v := range slice {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// BytesToFloat32Slice converts bytes from SQLite BLOB back to a float32 slice.
// Returns nil for empty or malformed data.
func BytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	result := make([]float32, len(data)/4)
	for i := range result {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		result[i] = math.Float32frombits(bits)
	}
	return result
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// keywordOverlap scores how many of the query's distinct words appear in the
// text, normalized to 0..1. It stands in for embedding similarity when no
// vector is available.
func keywordOverlap(query, text string) float64 {
	queryWords := map[string]bool{}
	for _, w := range tokenize(query) {
		queryWords[w] = true
	}
	if len(queryWords) == 0 {
		return 0
	}

	textWords := map[string]bool{}
	for _, w := range tokenize(text) {
		textWords[w] = true
	}

	matched := 0
	for w := range queryWords {
		if textWords[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// ScoredItem pairs an item with its relevance score.
type ScoredItem[T any] struct {
	Item  T
	Score float64
}

// scoredHeap is a min-heap over scores, used to keep the K best items.
type scoredHeap[T any] []ScoredItem[T]

func (h scoredHeap[T]) Len() int           { return len(h) }
func (h scoredHeap[T]) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h scoredHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *scoredHeap[T]) Push(x any) { *h = append(*h, x.(ScoredItem[T])) }

func (h *scoredHeap[T]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopK returns the k highest-scoring items in descending order. Large
// histories rank in O(n log k) via a min-heap instead of a full sort.
func TopK[T any](items []ScoredItem[T], k int) []ScoredItem[T] {
	if k <= 0 || len(items) == 0 {
		return nil
	}

	if len(items) <= k {
		result := make([]ScoredItem[T], len(items))
		copy(result, items)
		sort.Slice(result, func(i, j int) bool { return result[i].Score > result[j].Score })
		return result
	}

	h := make(scoredHeap[T], k)
	copy(h, items[:k])
	heap.Init(&h)
	for i := k; i < len(items); i++ {
		if items[i].Score > h[0].Score {
			h[0] = items[i]
			heap.Fix(&h, 0)
		}
	}

	result := make([]ScoredItem[T], len(h))
	for i := len(h) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(ScoredItem[T])
	}
	return result
}
