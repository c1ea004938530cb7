// Package ingest turns uploaded files into indexed passages tied to a
// chatbot scope.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/chunker"
	"github.com/chinpeerapat/assistant-builder/internal/domain"
	"github.com/chinpeerapat/assistant-builder/internal/summarizer"
	"github.com/chinpeerapat/assistant-builder/internal/vectorindex"
)

// Receipt describes a completed ingestion.
type Receipt struct {
	PassageID string `json:"passageId"`
	Passages  int    `json:"passages"`
	Summary   string `json:"summary"`
}

// Pipeline chunks a document and upserts the pieces into the vector index.
type Pipeline struct {
	index      vectorindex.Index
	chunker    chunker.Chunker
	summarizer *summarizer.FrequencySummarizer
	logger     *zap.Logger
	now        func() time.Time
}

// NewPipeline creates an ingestion pipeline with injected dependencies.
func NewPipeline(index vectorindex.Index, ch chunker.Chunker, logger *zap.Logger) *Pipeline {
	if ch == nil {
		ch = chunker.NewWholeDocument()
	}
	return &Pipeline{
		index:      index,
		chunker:    ch,
		summarizer: summarizer.NewFrequencySummarizer(),
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest indexes one document under the chatbot's scope and returns a
// receipt carrying the base passage id. The id is scope plus a timestamp
// suffix, so re-ingesting the same file never collides. The pipeline does
// not retry: an index failure surfaces as domain.ErrStorageUnavailable and
// retry is the caller's decision.
func (p *Pipeline) Ingest(ctx context.Context, chatbotID, filename, content string) (Receipt, error) {
	if strings.TrimSpace(content) == "" {
		return Receipt{}, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(filename) == "" {
		return Receipt{}, fmt.Errorf("%w: missing filename", domain.ErrInvalidInput)
	}

	baseID := fmt.Sprintf("%s-%d", chatbotID, p.now().UnixNano())
	pieces := p.chunker.Chunk(content)
	if len(pieces) == 0 {
		return Receipt{}, fmt.Errorf("%w: document has no indexable text", domain.ErrInvalidInput)
	}
	for i, piece := range pieces {
		id := baseID
		if len(pieces) > 1 {
			id = fmt.Sprintf("%s:%d", baseID, i)
		}
		passage := domain.IndexedPassage{
			ID:        id,
			ChatbotID: chatbotID,
			Content:   piece,
			Filename:  filename,
		}
		if err := p.index.Upsert(ctx, passage); err != nil {
			p.logger.Error("passage upsert failed",
				zap.String("chatbot_id", chatbotID),
				zap.String("passage_id", id),
				zap.Error(err))
			return Receipt{}, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
	}
	p.logger.Info("document ingested",
		zap.String("chatbot_id", chatbotID),
		zap.String("filename", filename),
		zap.Int("passages", len(pieces)))
	return Receipt{
		PassageID: baseID,
		Passages:  len(pieces),
		Summary:   p.summarizer.Summarize(content, 2),
	}, nil
}
