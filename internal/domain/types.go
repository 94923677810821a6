package domain

import "time"

// Document represents a single source document loaded at index-build time.
// Documents are immutable once loaded.
type Document struct {
	Source string
	Text   string
}

// Chunk is an overlapping word window cut from a document.
type Chunk struct {
	Source   string
	Position int
	Text     string
}

// SearchResult pairs a chunk with its cosine similarity to a query vector.
// ID is the chunk's insertion order in the index.
type SearchResult struct {
	ID    int
	Chunk Chunk
	Score float64
}

// Generation is the raw output of one generation-model call.
type Generation struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Answer is the complete output of one ask cycle: the synthesized answer,
// the retrieval results it was grounded on, and token/cost accounting.
type Answer struct {
	Query        string
	Text         string
	Results      []SearchResult
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Model        string
}

// SourceRef identifies one retrieved source with its similarity score.
type SourceRef struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// LogRecord is the structured record handed to the query log after each
// answered query.
type LogRecord struct {
	Timestamp    time.Time
	Query        string
	Answer       string
	Sources      []SourceRef
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Model        string
}
