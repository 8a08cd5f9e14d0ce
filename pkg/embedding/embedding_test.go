package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "what is my phone number?")
	assert.NoError(t, err)
	b, err := e.Embed(ctx, "what is my phone number?")
	assert.NoError(t, err)

	assert.Equal(t, a, b, "identical input must embed identically")
	assert.Len(t, a, e.Dimensions())
}

func TestLocalEmbedderUnitNorm(t *testing.T) {
	e := NewLocalEmbedder()
	vec, err := e.Embed(context.Background(), "the quarterly budget was approved")
	assert.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	e := NewLocalEmbedder()
	vec, err := e.Embed(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Len(t, vec, localModelDims)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestLocalEmbedderLexicalOverlap(t *testing.T) {
	e := NewLocalEmbedder()
	ctx := context.Background()

	query, _ := e.Embed(ctx, "project budget")
	near, _ := e.Embed(ctx, "the project budget was approved at 150k")
	far, _ := e.Embed(ctx, "grandma's pasta recipe with basil")

	assert.Greater(t, dot(query, near), dot(query, far),
		"overlapping tokens must score closer than unrelated text")
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

type failingEmbedder struct{}

func (failingEmbedder) Dimensions() int { return 4 }

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrUnavailable
}

func TestCachedEmbedderDelegates(t *testing.T) {
	cached, err := NewCachedEmbedder(NewLocalEmbedder(), 16)
	assert.NoError(t, err)
	defer cached.Close()

	direct, _ := NewLocalEmbedder().Embed(context.Background(), "hello world")
	got, err := cached.Embed(context.Background(), "hello world")
	assert.NoError(t, err)
	assert.Equal(t, direct, got)
	assert.Equal(t, localModelDims, cached.Dimensions())
}

func TestCachedEmbedderPropagatesErrors(t *testing.T) {
	cached, err := NewCachedEmbedder(failingEmbedder{}, 16)
	assert.NoError(t, err)
	defer cached.Close()

	_, err = cached.Embed(context.Background(), "anything")
	assert.True(t, errors.Is(err, ErrUnavailable))
}
