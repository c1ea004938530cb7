// Package retrieval finds the best-matching passage for a user utterance
// within one chatbot's scope.
package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
	"github.com/chinpeerapat/assistant-builder/internal/vectorindex"
)

// Engine queries the vector index with a distance cutoff and a bounded
// timeout. It fails open: a chatbot with a broken index must still answer
// from persona and history alone, so index errors never leave this package.
type Engine struct {
	index       vectorindex.Index
	maxDistance float64
	timeout     time.Duration
	logger      *zap.Logger
}

// Config tunes the retrieval engine.
type Config struct {
	// MaxDistance is the similarity cutoff on a 0-1 scale, lower = more
	// similar. Passages beyond it are treated as irrelevant.
	MaxDistance float64
	// Timeout bounds each index query; exceeding it counts as a failure.
	Timeout time.Duration
}

// NewEngine creates a retrieval engine over the given index.
func NewEngine(index vectorindex.Index, cfg Config, logger *zap.Logger) *Engine {
	if cfg.MaxDistance == 0 {
		cfg.MaxDistance = 0.7
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Engine{
		index:       index,
		maxDistance: cfg.MaxDistance,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Retrieve returns the single nearest passage within the cutoff, or an
// empty result when nothing qualifies or the index is unreachable. It
// never returns an error.
func (e *Engine) Retrieve(ctx context.Context, chatbotID, query string) domain.RetrievalResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	matches, err := e.index.Query(ctx, chatbotID, query, e.maxDistance, 1)
	if err != nil {
		e.logger.Warn("retrieval unavailable, continuing without context",
			zap.String("chatbot_id", chatbotID),
			zap.Error(err))
		return domain.RetrievalResult{ChatbotID: chatbotID}
	}
	if len(matches) == 0 {
		return domain.RetrievalResult{ChatbotID: chatbotID}
	}
	best := matches[0]
	// Backends are asked to filter by distance, but don't trust them to.
	if best.Distance > e.maxDistance {
		return domain.RetrievalResult{ChatbotID: chatbotID}
	}
	return domain.RetrievalResult{
		ChatbotID: chatbotID,
		Content:   best.Content,
		Filename:  best.Filename,
		Found:     true,
	}
}
