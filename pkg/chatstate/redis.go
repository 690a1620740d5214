package chatstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

// RedisStore keeps session state in Redis so multiple engine instances share
// one conversation. Entries carry the session TTL and are refreshed on every
// write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) GetContext(ctx context.Context, sessionID string) (*models.ChatContext, error) {
	var chatCtx models.ChatContext
	found, err := s.get(ctx, contextKeyPrefix+sessionID, &chatCtx)
	if err != nil {
		return nil, err
	}
	if !found {
		return models.NewChatContext(), nil
	}
	if chatCtx.Filters == nil {
		chatCtx.Filters = make(map[string]models.FilterLock)
	}
	return &chatCtx, nil
}

func (s *RedisStore) SetContext(ctx context.Context, sessionID string, chatCtx *models.ChatContext) error {
	return s.set(ctx, contextKeyPrefix+sessionID, chatCtx)
}

func (s *RedisStore) GetPending(ctx context.Context, sessionID string) (*models.PendingPick, error) {
	var pick models.PendingPick
	found, err := s.get(ctx, pendingKeyPrefix+sessionID, &pick)
	if err != nil || !found {
		return nil, err
	}
	return &pick, nil
}

func (s *RedisStore) SetPending(ctx context.Context, sessionID string, pick *models.PendingPick) error {
	return s.set(ctx, pendingKeyPrefix+sessionID, pick)
}

func (s *RedisStore) ClearPending(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, pendingKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear pending pick: %w", err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session state: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode session state: %w", err)
	}
	return true, nil
}

func (s *RedisStore) set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	return nil
}
