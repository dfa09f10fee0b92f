// Package memory is an in-memory implementation of the storage interface
// for testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/storage"
)

// Store is an in-memory implementation of the storage interface.
type Store struct {
	mu sync.RWMutex

	collections map[string]*domain.Collection // key: profileID
	apiKeys     map[string]*domain.APIKey     // key: id

	quotaBytes int64

	failWrites int
	writeErr   error
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		collections: make(map[string]*domain.Collection),
		apiKeys:     make(map[string]*domain.APIKey),
	}
}

// NewWithQuota creates an in-memory store that enforces the same write
// quota the SQL store does.
func NewWithQuota(quotaBytes int64) *Store {
	s := New()
	s.quotaBytes = quotaBytes
	return s
}

// FailWrites makes the next n collection writes fail with err. Used by
// tests to exercise the retry policy.
func (s *Store) FailWrites(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = n
	s.writeErr = err
}

func (s *Store) Close() error { return nil }

func (s *Store) LoadCollection(ctx context.Context, profileID string) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[profileID]
	if !ok {
		return &domain.Collection{}, nil
	}
	return c.Clone(), nil
}

func (s *Store) SaveCollection(ctx context.Context, profileID string, c *domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites > 0 {
		s.failWrites--
		return s.writeErr
	}

	payload, err := storage.EncodeCollection(c)
	if err != nil {
		return err
	}
	if err := storage.CheckQuota(payload, s.quotaBytes); err != nil {
		return err
	}

	s.collections[profileID] = c.Clone()
	return nil
}

func (s *Store) ResetCollection(ctx context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites > 0 {
		s.failWrites--
		return s.writeErr
	}

	delete(s.collections, profileID)
	return nil
}

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *key
	s.apiKeys[key.ID] = &cp
	return nil
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.apiKeys {
		if key.KeyHash == keyHash {
			cp := *key
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]*domain.APIKey, 0, len(s.apiKeys))
	for _, key := range s.apiKeys {
		cp := *key
		keys = append(keys, &cp)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apiKeys[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.apiKeys, id)
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.apiKeys[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	key.LastUsedAt = &now
	return nil
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.apiKeys), nil
}
