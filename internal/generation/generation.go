package generation

import (
	"context"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// Generator is the consumed language-model capability: given an ordered
// message sequence, return a single completion.
type Generator interface {
	Complete(ctx context.Context, model string, messages []domain.Message) (domain.Message, error)
}
