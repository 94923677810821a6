package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docqa/internal/domain"
)

const DefaultTopK = 5

// Pricing is per-million-token USD pricing for one generation model.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// DefaultPricing covers the models this tool is normally run with. Unknown
// models get a zero cost estimate.
var DefaultPricing = map[string]Pricing{
	"claude-sonnet-4-20250514":   {InputPerMTok: 3.0, OutputPerMTok: 15.0},
	"claude-opus-4-20250514":     {InputPerMTok: 15.0, OutputPerMTok: 75.0},
	"claude-3-5-haiku-20241022":  {InputPerMTok: 0.80, OutputPerMTok: 4.0},
	"claude-3-5-sonnet-20241022": {InputPerMTok: 3.0, OutputPerMTok: 15.0},
}

// Config tunes the retrieval side of the service.
type Config struct {
	TopK int
	// MinScore drops retrieved chunks scoring below it. Zero disables
	// the threshold.
	MinScore float64
	Pricing  map[string]Pricing
}

// Service ties the pipeline together: embed the query, retrieve the closest
// chunks, and ask the generation model for an answer grounded in them.
type Service struct {
	chunker   domain.Chunker
	embedder  domain.Embedder
	index     domain.Index
	generator domain.Generator
	queryLog  domain.QueryLog
	topK      int
	minScore  float64
	pricing   map[string]Pricing
}

// New creates a service. queryLog may be nil, in which case answered queries
// are not recorded.
func New(chunker domain.Chunker, embedder domain.Embedder, index domain.Index, generator domain.Generator, queryLog domain.QueryLog, cfg Config) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Pricing == nil {
		cfg.Pricing = DefaultPricing
	}
	return &Service{
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		generator: generator,
		queryLog:  queryLog,
		topK:      cfg.TopK,
		minScore:  cfg.MinScore,
		pricing:   cfg.Pricing,
	}
}

// Ingest chunks and embeds documents into the index. It runs once at build
// time; the index serves reads only afterwards. Returns the number of chunks
// added.
func (s *Service) Ingest(ctx context.Context, documents []domain.Document) (int, error) {
	if len(documents) == 0 {
		return 0, fmt.Errorf("%w: no documents", domain.ErrInvalidInput)
	}
	var chunks []domain.Chunk
	for _, doc := range documents {
		docChunks, err := s.chunker.Chunk(doc)
		if err != nil {
			return 0, fmt.Errorf("chunk %s: %w", doc.Source, err)
		}
		chunks = append(chunks, docChunks...)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if err := s.index.Add(chunks, vectors); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Ask answers a question over the indexed corpus. topK <= 0 uses the
// configured default. The returned answer is always complete: on any failure
// along the pipeline the error comes back alone.
func (s *Service) Ask(ctx context.Context, query string, topK int) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}
	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.index.Search(vector, topK)
	if err != nil {
		return nil, err
	}
	if s.minScore > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= s.minScore {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no chunks above score threshold %.3f", domain.ErrEmptyIndex, s.minScore)
	}

	gen, err := s.generator.Generate(ctx, buildPrompt(query, results))
	if err != nil {
		if _, ok := err.(*domain.GenerationError); ok {
			return nil, err
		}
		return nil, &domain.GenerationError{Transient: false, Err: err}
	}

	answer := &domain.Answer{
		Query:        query,
		Text:         gen.Text,
		Results:      results,
		InputTokens:  gen.InputTokens,
		OutputTokens: gen.OutputTokens,
		CostUSD:      s.cost(gen.InputTokens, gen.OutputTokens),
		Model:        s.generator.Model(),
	}
	if s.queryLog != nil {
		if err := s.queryLog.Log(record(answer)); err != nil {
			return nil, fmt.Errorf("log query: %w", err)
		}
	}
	return answer, nil
}

func (s *Service) cost(inputTokens, outputTokens int) float64 {
	p, ok := s.pricing[s.generator.Model()]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1e6*p.InputPerMTok + float64(outputTokens)/1e6*p.OutputPerMTok
}

func record(a *domain.Answer) domain.LogRecord {
	sources := make([]domain.SourceRef, len(a.Results))
	for i, r := range a.Results {
		sources[i] = domain.SourceRef{Source: r.Chunk.Source, Score: r.Score}
	}
	return domain.LogRecord{
		Timestamp:    time.Now().UTC(),
		Query:        a.Query,
		Answer:       a.Text,
		Sources:      sources,
		InputTokens:  a.InputTokens,
		OutputTokens: a.OutputTokens,
		CostUSD:      a.CostUSD,
		Model:        a.Model,
	}
}

func buildPrompt(query string, results []domain.SearchResult) string {
	var passages strings.Builder
	for i, r := range results {
		fmt.Fprintf(&passages, "\n[Source %d: %s, similarity=%.3f]\n%s\n", i+1, r.Chunk.Source, r.Score, r.Chunk.Text)
	}
	return fmt.Sprintf(`You are a helpful assistant answering questions about a document collection.

Here are the most relevant excerpts:
%s
Answer the question using only these excerpts. Be specific and cite the sources that support your answer. If the excerpts do not contain the answer, say so.

Question: %s

Answer:`, passages.String(), query)
}
