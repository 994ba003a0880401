package history

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

type failingStore struct{}

func (failingStore) Load(context.Context) ([]quiz.QuestionBank, error) {
	return nil, errors.New("corrupt payload")
}

func (failingStore) Save(context.Context, []quiz.QuestionBank) error {
	return errors.New("disk full")
}

func testBank(source string) quiz.QuestionBank {
	questions := []quiz.Question{
		quiz.NewMultipleChoice("q-0-1", "pick", []string{"a", "b", "c", "d"}, 1, "why", quiz.DifficultyMedium),
		quiz.NewTrueFalse("q-1-1", "really", true, "because", quiz.DifficultyMedium),
	}
	cfg := quiz.GenerationConfig{MultipleChoiceCount: 1, TrueFalseCount: 1, Difficulty: quiz.DifficultyMedium, Language: quiz.LanguageEnglish}
	return quiz.NewBank(source, questions, cfg, time.Now().UTC().Truncate(time.Second))
}

func TestServiceAppendRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(ctx, store, zerolog.New(io.Discard))

	first := testBank("first source text")
	second := testBank("second source text")
	assert.NoError(t, svc.Append(ctx, first))
	assert.NoError(t, svc.Append(ctx, second))

	banks := svc.All()
	assert.Len(t, banks, 2)
	assert.Equal(t, second.ID, banks[0].ID, "most recent bank comes first")
	assert.Equal(t, first.ID, banks[1].ID)

	// A fresh service sees the persisted list.
	reloaded := NewService(ctx, store, zerolog.New(io.Discard))
	assert.Equal(t, svc.All(), reloaded.All())
}

func TestServiceAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ctx, NewMemoryStore(), zerolog.New(io.Discard))
	assert.NoError(t, svc.Append(ctx, testBank("some text")))

	assert.Equal(t, svc.All(), svc.All())
}

func TestServiceGetByID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ctx, NewMemoryStore(), zerolog.New(io.Discard))
	bank := testBank("lookup me")
	assert.NoError(t, svc.Append(ctx, bank))

	got, ok := svc.Get(bank.ID)
	assert.True(t, ok)
	assert.Equal(t, bank.ID, got.ID)

	_, ok = svc.Get("missing")
	assert.False(t, ok)
}

func TestServiceCorruptStoreStartsEmpty(t *testing.T) {
	svc := NewService(context.Background(), failingStore{}, zerolog.New(io.Discard))
	assert.Empty(t, svc.All())
}

func TestServiceKeepsBankWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ctx, failingStore{}, zerolog.New(io.Discard))

	bank := testBank("will not persist")
	assert.Error(t, svc.Append(ctx, bank))
	assert.Equal(t, 1, svc.Len(), "in-memory list still holds the bank")
}
