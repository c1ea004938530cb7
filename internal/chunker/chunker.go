// Package chunker defines how an uploaded document is split into indexable
// passages. The retrieval contract is the same for every policy.
package chunker

import (
	"regexp"
	"strings"
)

// Chunker splits document text into passage-sized pieces.
type Chunker interface {
	Chunk(text string) []string
}

// WholeDocument indexes each document as a single passage.
type WholeDocument struct{}

// NewWholeDocument creates the single-passage chunker.
func NewWholeDocument() *WholeDocument { return &WholeDocument{} }

// Chunk returns the trimmed document as one piece, or nothing when blank.
func (*WholeDocument) Chunk(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	return []string{trimmed}
}

// Sentence splits text into sentence-based chunks with overlap.
type Sentence struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// NewSentence creates a sentence chunker.
func NewSentence(sentencesPerChunk, overlapSentences int) *Sentence {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	return &Sentence{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits the text into overlapping sentence windows.
func (c *Sentence) Chunk(text string) []string {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		if i < 0 {
			i = 0
		}
	}
	return chunks
}
