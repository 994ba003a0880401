package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

// DefaultRedisKey is the single durable slot holding the serialized history.
const DefaultRedisKey = "edugenie:history:v1"

// RedisStore persists the history list as one JSON value under a fixed key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]quiz.QuestionBank, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history key: %w", err)
	}

	var banks []quiz.QuestionBank
	if err := json.Unmarshal(data, &banks); err != nil {
		return nil, fmt.Errorf("decode history payload: %w", err)
	}
	return banks, nil
}

func (s *RedisStore) Save(ctx context.Context, banks []quiz.QuestionBank) error {
	data, err := json.Marshal(banks)
	if err != nil {
		return fmt.Errorf("encode history payload: %w", err)
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}
