package chatstate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

// maxEntries caps the number of live entries so an abusive client cannot
// grow the process heap without bound. On overflow the entry closest to
// expiry is dropped.
const maxEntries = 10000

// MemoryStore keeps session state in process memory. It is the default
// backend for single-instance deployments and for tests.
type MemoryStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryStore builds an in-memory store where every session entry expires
// ttl after its last write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, ttl),
		ttl:   ttl,
	}
}

func (s *MemoryStore) GetContext(_ context.Context, sessionID string) (*models.ChatContext, error) {
	v, ok := s.cache.Get(contextKeyPrefix + sessionID)
	if !ok {
		return models.NewChatContext(), nil
	}
	chatCtx, ok := v.(*models.ChatContext)
	if !ok {
		return models.NewChatContext(), nil
	}
	// Clone so callers never mutate the stored value in place.
	return chatCtx.Clone(), nil
}

func (s *MemoryStore) SetContext(_ context.Context, sessionID string, chatCtx *models.ChatContext) error {
	s.evictIfFull()
	s.cache.Set(contextKeyPrefix+sessionID, chatCtx.Clone(), s.ttl)
	return nil
}

func (s *MemoryStore) GetPending(_ context.Context, sessionID string) (*models.PendingPick, error) {
	v, ok := s.cache.Get(pendingKeyPrefix + sessionID)
	if !ok {
		return nil, nil
	}
	pick, ok := v.(*models.PendingPick)
	if !ok {
		return nil, nil
	}
	return pick, nil
}

func (s *MemoryStore) SetPending(_ context.Context, sessionID string, pick *models.PendingPick) error {
	s.evictIfFull()
	s.cache.Set(pendingKeyPrefix+sessionID, pick, s.ttl)
	return nil
}

func (s *MemoryStore) ClearPending(_ context.Context, sessionID string) error {
	s.cache.Delete(pendingKeyPrefix + sessionID)
	return nil
}

func (s *MemoryStore) evictIfFull() {
	if s.cache.ItemCount() < maxEntries {
		return
	}
	var oldestKey string
	var oldest int64
	for key, item := range s.cache.Items() {
		if oldestKey == "" || item.Expiration < oldest {
			oldestKey = key
			oldest = item.Expiration
		}
	}
	if oldestKey != "" {
		s.cache.Delete(oldestKey)
	}
}
