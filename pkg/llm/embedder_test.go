package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/screener/pkg/llm"
)

// keywordEmbedder embeds text as counts of a few fixed keywords.
type keywordEmbedder struct {
	calls int
	err   error
}

func (k *keywordEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	k.calls++
	if k.err != nil {
		return nil, k.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		t = strings.ToLower(t)
		out[i] = []float32{
			float32(strings.Count(t, "python")),
			float32(strings.Count(t, "aws")),
			float32(strings.Count(t, "chef")),
		}
	}
	return out, nil
}

var config = llm.EmbedderConfig{
	Model:        "nomic-embed-text:latest",
	ChunkSize:    200,
	ChunkOverlap: 20,
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(config)
	require.NoError(t, err)
	assert.NotNil(t, emb)
	assert.Equal(t, "http://localhost:11434", emb.Config.BaseURL)
}

func TestEmbeddingSimilarity(t *testing.T) {
	emb := &keywordEmbedder{}
	sim := llm.NewWithEmbedder(config, emb)
	ctx := context.Background()

	same, err := sim.Similarity(ctx, "Python and AWS", "python, aws")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-6)

	none, err := sim.Similarity(ctx, "Python", "pastry chef")
	require.NoError(t, err)
	assert.Equal(t, 0.0, none)
}

func TestEmbeddingSimilarityEmptyTextSkipsModel(t *testing.T) {
	emb := &keywordEmbedder{}
	sim := llm.NewWithEmbedder(config, emb)

	score, err := sim.Similarity(context.Background(), "", "python")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 1, emb.calls)
}

func TestEmbeddingSimilarityError(t *testing.T) {
	boom := errors.New("connection refused")
	sim := llm.NewWithEmbedder(config, &keywordEmbedder{err: boom})

	_, err := sim.Similarity(context.Background(), "python", "aws")
	assert.ErrorIs(t, err, boom)
}

func TestMeanPool(t *testing.T) {
	pooled, err := llm.MeanPool([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, pooled)

	_, err = llm.MeanPool(nil)
	assert.Error(t, err)

	_, err = llm.MeanPool([][]float32{{1}, {1, 2}})
	assert.Error(t, err)
}
