// Package memory is an in-memory vector index used in tests and local
// mode. Passages are vectorized with a TF-IDF model rebuilt per scope on
// query, and ranked by cosine distance.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
	"github.com/chinpeerapat/assistant-builder/internal/vectorindex"
)

// Index is a mutex-guarded brute-force index keyed by chatbot scope.
type Index struct {
	mu       sync.RWMutex
	passages map[string][]domain.IndexedPassage
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{passages: make(map[string][]domain.IndexedPassage)}
}

// Upsert stores a passage under its chatbot scope, replacing any passage
// with the same id.
func (x *Index) Upsert(_ context.Context, p domain.IndexedPassage) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	scope := x.passages[p.ChatbotID]
	for i := range scope {
		if scope[i].ID == p.ID {
			scope[i] = p
			return nil
		}
	}
	x.passages[p.ChatbotID] = append(scope, p)
	return nil
}

// Query ranks the scope's passages against the query text by TF-IDF cosine
// distance and returns those within maxDistance, nearest first.
func (x *Index) Query(_ context.Context, chatbotID, text string, maxDistance float64, limit int) ([]vectorindex.Match, error) {
	if limit <= 0 {
		limit = 1
	}
	x.mu.RLock()
	scope := append([]domain.IndexedPassage(nil), x.passages[chatbotID]...)
	x.mu.RUnlock()
	if len(scope) == 0 {
		return nil, nil
	}

	corpus := make([]string, len(scope))
	for i, p := range scope {
		corpus[i] = p.Content
	}
	model := newTFIDF(corpus)

	qv := model.vectorize(text)
	type scored struct {
		idx      int
		distance float64
	}
	scores := make([]scored, 0, len(scope))
	for i := range scope {
		d := 1 - dot(model.vectorize(scope[i].Content), qv)
		if d <= maxDistance {
			scores = append(scores, scored{idx: i, distance: d})
		}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].distance < scores[j].distance })
	if limit > len(scores) {
		limit = len(scores)
	}
	matches := make([]vectorindex.Match, 0, limit)
	for _, s := range scores[:limit] {
		p := scope[s.idx]
		matches = append(matches, vectorindex.Match{
			Content:  p.Content,
			Filename: p.Filename,
			Distance: s.distance,
		})
	}
	return matches, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
