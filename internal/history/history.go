package history

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

// Store persists the full history list as one durable slot. A whole-list
// overwrite is the only write primitive; bank counts stay small by design.
type Store interface {
	Load(ctx context.Context) ([]quiz.QuestionBank, error)
	Save(ctx context.Context, banks []quiz.QuestionBank) error
}

// Service keeps the in-memory history list, most-recent-first, and writes it
// through on every append. There is no update or delete.
type Service struct {
	mu     sync.Mutex
	store  Store
	banks  []quiz.QuestionBank
	logger zerolog.Logger
}

// NewService loads persisted history once. Absent or corrupt data is treated
// as empty history and never blocks startup.
func NewService(ctx context.Context, store Store, logger zerolog.Logger) *Service {
	svc := &Service{
		store:  store,
		logger: logger.With().Str("component", "history").Logger(),
	}
	banks, err := store.Load(ctx)
	if err != nil {
		svc.logger.Warn().Err(err).Msg("failed to load persisted history, starting empty")
		banks = nil
	}
	svc.banks = banks
	return svc
}

// Append prepends the bank and persists the full list. On a persistence error
// the in-memory list keeps the bank; the caller decides whether to surface it.
func (s *Service) Append(ctx context.Context, bank quiz.QuestionBank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.banks = append([]quiz.QuestionBank{bank}, s.banks...)
	if err := s.store.Save(ctx, s.banks); err != nil {
		s.logger.Error().Err(err).Str("bank_id", bank.ID).Msg("failed to persist history")
		return err
	}
	return nil
}

// All returns a copy of the history list, most-recent-first.
func (s *Service) All() []quiz.QuestionBank {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]quiz.QuestionBank, len(s.banks))
	copy(out, s.banks)
	return out
}

// Get looks a bank up by id.
func (s *Service) Get(id string) (quiz.QuestionBank, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.banks {
		if b.ID == id {
			return b, true
		}
	}
	return quiz.QuestionBank{}, false
}

// Len reports the number of stored banks.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.banks)
}
