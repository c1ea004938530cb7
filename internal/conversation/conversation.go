// Package conversation assembles grounded prompts and produces assistant
// replies.
package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
	"github.com/chinpeerapat/assistant-builder/internal/generation"
)

// Retriever is the orchestrator-facing subset of the retrieval engine.
// It has no error return: retrieval fails open by contract.
type Retriever interface {
	Retrieve(ctx context.Context, chatbotID, query string) domain.RetrievalResult
}

// Orchestrator coordinates retrieval and generation for one turn.
type Orchestrator struct {
	retriever    Retriever
	generator    generation.Generator
	defaultModel string
	logger       *zap.Logger
}

// New creates an orchestrator with injected dependencies. defaultModel is
// used when a chatbot has no model configured.
func New(retriever Retriever, generator generation.Generator, defaultModel string, logger *zap.Logger) *Orchestrator {
	if defaultModel == "" {
		defaultModel = "gpt-3.5-turbo"
	}
	return &Orchestrator{
		retriever:    retriever,
		generator:    generator,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// Respond produces the assistant reply for the latest user turn. The
// prompt is deterministic: persona, a context slot (empty when retrieval
// found nothing or failed open), then the history verbatim. Generation
// failures are fatal to the turn and surface as domain.ErrGenerationFailed.
func (o *Orchestrator) Respond(ctx context.Context, cfg domain.ChatbotConfig, history []domain.Message) (domain.Message, error) {
	if err := domain.ValidateHistory(history); err != nil {
		return domain.Message{}, err
	}
	query := history[len(history)-1].Content

	result := o.retriever.Retrieve(ctx, cfg.ID, query)

	prompt := make([]domain.Message, 0, len(history)+2)
	prompt = append(prompt,
		domain.Message{Role: domain.RoleSystem, Content: cfg.Prompt},
		domain.Message{Role: domain.RoleSystem, Content: "Relevant context: " + result.Content},
	)
	prompt = append(prompt, history...)

	model := cfg.Model
	if model == "" {
		model = o.defaultModel
	}

	reply, err := o.generator.Complete(ctx, model, prompt)
	if err != nil {
		o.logger.Error("completion failed",
			zap.String("chatbot_id", cfg.ID),
			zap.String("model", model),
			zap.Error(err))
		return domain.Message{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if strings.TrimSpace(reply.Content) == "" {
		return domain.Message{}, fmt.Errorf("%w: empty completion", domain.ErrGenerationFailed)
	}
	if reply.Role != domain.RoleAssistant {
		// An absent role is tolerated; any other role is malformed output.
		if reply.Role != "" {
			return domain.Message{}, fmt.Errorf("%w: unexpected completion role %q", domain.ErrGenerationFailed, reply.Role)
		}
		reply.Role = domain.RoleAssistant
	}
	return reply, nil
}
