package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

const challengeKeyPrefix = "challenge:"

// ChallengeStore retains pending challenges until they are answered or expire.
// Take removes the challenge it returns.
type ChallengeStore interface {
	Save(ctx context.Context, challenge models.PendingChallenge) error
	Take(ctx context.Context, id string) (*models.PendingChallenge, error)
}

// MemoryChallengeStore keeps pending challenges in process memory.
type MemoryChallengeStore struct {
	mu    sync.Mutex
	items map[string]models.PendingChallenge
	now   func() time.Time
}

// NewMemoryChallengeStore constructs an empty in-memory store.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		items: make(map[string]models.PendingChallenge),
		now:   time.Now,
	}
}

// Save stores the challenge and sweeps expired ones.
func (s *MemoryChallengeStore) Save(ctx context.Context, challenge models.PendingChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, item := range s.items {
		if now.After(item.ExpiresAt) {
			delete(s.items, id)
		}
	}
	s.items[challenge.ID] = challenge
	return nil
}

// Take returns and forgets the challenge. Unknown and expired ids are NOT_FOUND.
func (s *MemoryChallengeStore) Take(ctx context.Context, id string) (*models.PendingChallenge, error) {
	s.mu.Lock()
	item, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if !ok || s.now().After(item.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "challenge not found or expired")
	}
	return &item, nil
}

type keyValueStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Take(ctx context.Context, key string, dest interface{}) error
}

// RedisChallengeStore keeps pending challenges in Redis so any replica can grade an answer.
type RedisChallengeStore struct {
	kv  keyValueStore
	now func() time.Time
}

// NewRedisChallengeStore wraps the cache repository.
func NewRedisChallengeStore(kv keyValueStore) *RedisChallengeStore {
	return &RedisChallengeStore{kv: kv, now: time.Now}
}

// Save stores the challenge until it expires.
func (s *RedisChallengeStore) Save(ctx context.Context, challenge models.PendingChallenge) error {
	ttl := challenge.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "challenge already expired")
	}
	if err := s.kv.Set(ctx, challengeKeyPrefix+challenge.ID, challenge, ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store challenge")
	}
	return nil
}

// Take atomically reads and deletes the challenge.
func (s *RedisChallengeStore) Take(ctx context.Context, id string) (*models.PendingChallenge, error) {
	var item models.PendingChallenge
	if err := s.kv.Take(ctx, challengeKeyPrefix+id, &item); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "challenge not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load challenge")
	}
	if s.now().After(item.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "challenge not found or expired")
	}
	return &item, nil
}
