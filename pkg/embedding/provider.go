package embedding

import "context"

// Task types hint the provider at how the embedding will be used. Providers
// that do not distinguish tasks ignore them.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingResponse carries one generated embedding vector.
type EmbeddingResponse struct {
	Embedding EmbeddingVector
}

type EmbeddingVector struct {
	Values []float32
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}
