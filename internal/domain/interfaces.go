package domain

import "context"

// Chunker splits a document into overlapping chunks for indexing.
type Chunker interface {
	Chunk(doc Document) ([]Chunk, error)
}

// Embedder converts free text into fixed-dimension vectors. One embedder
// instance serves a single model; every vector it produces has the same
// dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// Index stores chunk vectors and serves similarity queries.
type Index interface {
	Add(chunks []Chunk, vectors [][]float32) error
	Search(vector []float32, topK int) ([]SearchResult, error)
	Len() int
	Dimension() int
}

// Generator produces an answer from a grounded prompt and reports token
// usage.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Generation, error)
	Model() string
}

// QueryLog receives one record per answered query.
type QueryLog interface {
	Log(rec LogRecord) error
}
