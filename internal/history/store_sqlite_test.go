package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := OpenSQLite(path)
	assert.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Empty(t, loaded, "fresh slot is empty")

	banks := []quiz.QuestionBank{testBank("sqlite round trip")}
	assert.NoError(t, store.Save(ctx, banks))

	loaded, err = store.Load(ctx)
	assert.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, banks[0].ID, loaded[0].ID)
	assert.Equal(t, banks[0].Questions, loaded[0].Questions)
}

func TestSQLiteStoreOverwritesSlot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := OpenSQLite(path)
	assert.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Save(ctx, []quiz.QuestionBank{testBank("one")}))
	second := []quiz.QuestionBank{testBank("two"), testBank("one")}
	assert.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Len(t, loaded, 2, "save replaces the whole slot, not appends rows")
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := OpenSQLite(path)
	assert.NoError(t, err)
	bank := testBank("durable")
	assert.NoError(t, store.Save(ctx, []quiz.QuestionBank{bank}))
	assert.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	assert.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx)
	assert.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, bank.ID, loaded[0].ID)
}
