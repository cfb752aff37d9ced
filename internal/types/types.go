package types

import (
	"context"
)

// TextSimilarity scores how alike two texts are, in [0,1].
type TextSimilarity interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// TextExtractor turns a named binary document into plain text.
type TextExtractor interface {
	Extract(filename string, data []byte) (string, error)
}

// Embedder is the subset of an embedding model used for semantic similarity.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}
