package chunker

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

const (
	DefaultTargetWords  = 200
	DefaultOverlapWords = 50

	// Tails shorter than this carry too little context to embed on their
	// own; they are folded into the previous chunk instead.
	minViableWords = 10
)

// WordChunker splits text into overlapping fixed-size word windows. The
// window advances by targetWords-overlapWords, so consecutive chunks share
// exactly overlapWords words.
type WordChunker struct {
	targetWords  int
	overlapWords int
}

func New(targetWords, overlapWords int) (*WordChunker, error) {
	if targetWords <= 0 {
		targetWords = DefaultTargetWords
	}
	if overlapWords < 0 {
		overlapWords = DefaultOverlapWords
	}
	if overlapWords >= targetWords {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than window %d",
			domain.ErrInvalidInput, overlapWords, targetWords)
	}
	return &WordChunker{targetWords: targetWords, overlapWords: overlapWords}, nil
}

func (c *WordChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	words := strings.Fields(document.Text)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: document %q has no text", domain.ErrInvalidInput, document.Source)
	}
	step := c.targetWords - c.overlapWords
	var chunks []domain.Chunk
	for start := 0; start < len(words); start += step {
		end := start + c.targetWords
		if end > len(words) {
			end = len(words)
		}
		if end-start < minViableWords && len(chunks) > 0 {
			// Degenerate tail: append only the words the previous
			// window has not seen yet.
			prevEnd := start - step + c.targetWords
			if prevEnd < end {
				prev := &chunks[len(chunks)-1]
				prev.Text += " " + strings.Join(words[prevEnd:end], " ")
			}
			break
		}
		chunks = append(chunks, domain.Chunk{
			Source:   document.Source,
			Position: len(chunks),
			Text:     strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}
