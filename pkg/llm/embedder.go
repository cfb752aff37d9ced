package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/screener/internal/types"
	"github.com/xhad/screener/pkg/processor"
)

// EmbedderConfig represents the configuration for an Ollama embedding model.
type EmbedderConfig struct {
	Model        string
	BaseURL      string // Ollama server URL
	ChunkSize    int
	ChunkOverlap int
	Logger       *zerolog.Logger
}

// EmbeddingSimilarity scores texts by the cosine of their mean chunk
// embeddings.
type EmbeddingSimilarity struct {
	Config    EmbedderConfig
	embed     types.Embedder
	processor processor.Processor
	logger    zerolog.Logger
}

// NewEmbedderWithConfig connects to the configured Ollama embedding model.
func NewEmbedderWithConfig(config EmbedderConfig) (*EmbeddingSimilarity, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest" // Default Ollama model
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	emb, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}

	return NewWithEmbedder(config, emb), nil
}

// NewWithEmbedder wraps an existing embedding model.
func NewWithEmbedder(config EmbedderConfig, embedder types.Embedder) *EmbeddingSimilarity {
	l := zerolog.Nop()
	if config.Logger != nil {
		l = config.Logger.With().Str("component", "embedder").Str("model", config.Model).Logger()
	}
	return &EmbeddingSimilarity{
		Config: config,
		embed:  embedder,
		processor: processor.NewWithConfig(processor.ProcessorConfig{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
		}),
		logger: l,
	}
}

// Similarity returns the cosine similarity of a and b clamped to [0,1].
// Empty texts score 0 without calling the model.
func (e *EmbeddingSimilarity) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := e.documentVector(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := e.documentVector(ctx, b)
	if err != nil {
		return 0, err
	}
	if va == nil || vb == nil {
		return 0, nil
	}
	if len(va) != len(vb) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(va), len(vb))
	}
	return Cosine(va, vb), nil
}

func (e *EmbeddingSimilarity) documentVector(ctx context.Context, text string) ([]float32, error) {
	chunks := e.processor.Chunks(text)
	if len(chunks) == 0 {
		return nil, nil
	}

	embeddings, err := e.embed.CreateEmbedding(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	e.logger.Debug().Int("chunks", len(chunks)).Msg("embedded document")

	return MeanPool(embeddings)
}

// MeanPool averages equally sized embeddings into one vector.
func MeanPool(embeddings [][]float32) ([]float32, error) {
	if len(embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	dim := len(embeddings[0])
	pooled := make([]float32, dim)
	for _, emb := range embeddings {
		if len(emb) != dim {
			return nil, fmt.Errorf("embedding dimensions differ: %d vs %d", len(emb), dim)
		}
		for i, v := range emb {
			pooled[i] += v
		}
	}
	for i := range pooled {
		pooled[i] /= float32(len(embeddings))
	}
	return pooled, nil
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim < 0 || math.IsNaN(sim) {
		return 0
	}
	return math.Min(sim, 1)
}
