package history

import (
	"context"
	"sync"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

// MemoryStore is a non-durable Store for tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.Mutex
	banks []quiz.QuestionBank
	set   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) ([]quiz.QuestionBank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, nil
	}
	out := make([]quiz.QuestionBank, len(s.banks))
	copy(out, s.banks)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, banks []quiz.QuestionBank) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks = make([]quiz.QuestionBank, len(banks))
	copy(s.banks, banks)
	s.set = true
	return nil
}
