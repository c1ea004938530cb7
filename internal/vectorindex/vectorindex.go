package vectorindex

import (
	"context"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// Match is one passage returned by a similarity query. Distance is on a
// 0-1 semantic scale where lower means more similar.
type Match struct {
	Content  string
	Filename string
	Distance float64
}

// Index is the consumed vector-store capability: upsert by id, nearest
// neighbor query by text within one chatbot scope. Each call is atomic
// from the core's perspective; the store is externally synchronized.
type Index interface {
	Upsert(ctx context.Context, passage domain.IndexedPassage) error
	Query(ctx context.Context, chatbotID, text string, maxDistance float64, limit int) ([]Match, error)
}
