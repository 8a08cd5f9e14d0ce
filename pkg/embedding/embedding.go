// Package embedding provides the text-to-vector boundary: a remote
// OpenAI-backed embedder for production, a deterministic local character
// n-gram embedder for offline use and tests, and a cache layer that exploits
// the determinism guarantee (identical input always yields the same vector).
package embedding

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// ErrUnavailable indicates the embedding backend could not produce a vector.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Embedder converts text to a fixed-length vector. Embed must be
// deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

const localModelDims = 384

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_\-]+`)

// LocalEmbedder is a character-trigram + token hashing embedder. It captures
// lexical similarity only, which is enough for recall over one user's own
// notes, and it needs no network or model files.
type LocalEmbedder struct{}

func NewLocalEmbedder() *LocalEmbedder { return &LocalEmbedder{} }

func (e *LocalEmbedder) Dimensions() int { return localModelDims }

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, localModelDims)
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return vec, nil
	}
	window := "#" + normalized + "#"
	for i := 0; i+3 <= len(window); i++ {
		idx := hashIndex(window[i:i+3], localModelDims)
		vec[idx]++
	}
	for _, token := range tokenize(normalized) {
		idx := hashIndex("tok:"+token, localModelDims)
		vec[idx] += 1.25
	}
	normalizeVector(vec)
	return vec, nil
}

func hashIndex(s string, dims int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(dims))
}

func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}
	return matches
}

func normalizeVector(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	n := math.Sqrt(sum)
	if n == 0 {
		return
	}
	inv := float32(1.0 / n)
	for i := range vec {
		vec[i] *= inv
	}
}
