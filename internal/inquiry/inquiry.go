// Package inquiry records user-initiated handoffs to a human operator.
package inquiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// Store persists inquiry records. Records are terminal once created.
type Store interface {
	Create(ctx context.Context, inq domain.Inquiry) error
}

// Service validates and records inquiries.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an inquiry service over the given store.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// Submit validates the inquiry, assigns identity and records it. Store
// failures surface as domain.ErrEscalationFailed so the caller keeps the
// form open for a manual retry.
func (s *Service) Submit(ctx context.Context, inq domain.Inquiry) (domain.Inquiry, error) {
	if err := inq.Validate(); err != nil {
		return domain.Inquiry{}, err
	}
	inq.ID = uuid.NewString()
	inq.CreatedAt = s.now()
	if err := s.store.Create(ctx, inq); err != nil {
		s.logger.Error("inquiry create failed",
			zap.String("chatbot_id", inq.ChatbotID),
			zap.Error(err))
		return domain.Inquiry{}, fmt.Errorf("%w: %v", domain.ErrEscalationFailed, err)
	}
	s.logger.Info("inquiry recorded",
		zap.String("chatbot_id", inq.ChatbotID),
		zap.String("inquiry_id", inq.ID))
	return inq, nil
}

// MemoryStore keeps inquiries in memory. It stands in for the external
// inquiry backend in local mode and in tests.
type MemoryStore struct {
	mu        sync.Mutex
	inquiries []domain.Inquiry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Create appends the inquiry.
func (m *MemoryStore) Create(_ context.Context, inq domain.Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inquiries = append(m.inquiries, inq)
	return nil
}

// All returns a copy of the recorded inquiries.
func (m *MemoryStore) All() []domain.Inquiry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Inquiry(nil), m.inquiries...)
}
