package history

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "")
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Empty(t, loaded)

	banks := []quiz.QuestionBank{testBank("redis round trip")}
	assert.NoError(t, store.Save(ctx, banks))

	loaded, err = store.Load(ctx)
	assert.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, banks[0].ID, loaded[0].ID)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, mr.Set(DefaultRedisKey, "{{not json"))

	store := NewRedisStore(client, "")
	_, err := store.Load(ctx)
	assert.Error(t, err, "service layer treats this as empty history")
}
