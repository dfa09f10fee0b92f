// Package service owns the read-mutate-persist pipeline behind each popup
// action. Every mutation runs load, change, persist as one sequential step
// under a per-profile lock, so two rapid interactions cannot interleave
// and drop each other's writes.
package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/match"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/storage"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/tabs"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/validation"
)

// retryBackoff is the pause before the single automatic retry of a failed
// storage write.
const retryBackoff = 100 * time.Millisecond

// MatchResult is what the popup needs to render: the tab's location, the
// set it belongs to (nil when none, a normal state), and the switch
// targets in insertion order.
type MatchResult struct {
	Location tabs.Location
	Matched  *domain.VariantSet
	Others   []domain.Variant
}

// Switcher coordinates the matcher and the store.
type Switcher struct {
	store   storage.Storage
	matcher match.Matcher
	logger  *zap.Logger

	mu       sync.Mutex
	profiles map[string]*sync.Mutex
}

// New creates a new Switcher.
func New(store storage.Storage, matcher match.Matcher, logger *zap.Logger) *Switcher {
	return &Switcher{
		store:    store,
		matcher:  matcher,
		logger:   logger,
		profiles: make(map[string]*sync.Mutex),
	}
}

// profileLock returns the mutex serializing operations for one profile.
func (s *Switcher) profileLock(profileID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.profiles[profileID]
	if !ok {
		lock = &sync.Mutex{}
		s.profiles[profileID] = lock
	}
	return lock
}

// persist writes the collection, retrying a failed write exactly once.
// Quota failures are terminal: a retry cannot shrink the payload.
func (s *Switcher) persist(ctx context.Context, profileID string, c *domain.Collection) error {
	b := retry.WithMaxRetries(1, retry.NewConstant(retryBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := s.store.SaveCollection(ctx, profileID, c)
		if err == nil || errors.Is(err, domain.ErrQuotaExceeded) {
			return err
		}
		s.logger.Warn("collection write failed, retrying once",
			zap.String("profile", profileID), zap.Error(err))
		return retry.RetryableError(err)
	})
}

// Collection returns the stored collection for a profile. A profile that
// has never saved anything gets the empty collection.
func (s *Switcher) Collection(ctx context.Context, profileID string) (*domain.Collection, error) {
	return s.store.LoadCollection(ctx, profileID)
}

// AddVariantSet validates the candidate variants and appends them to the
// profile's collection as a new set. A validation failure aborts before
// anything is read or written; no partial set is ever persisted.
func (s *Switcher) AddVariantSet(ctx context.Context, profileID string, variants []domain.Variant) (*domain.VariantSet, error) {
	if verr := validation.ValidateVariants(variants); verr != nil {
		return nil, verr
	}

	lock := s.profileLock(profileID)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.store.LoadCollection(ctx, profileID)
	if err != nil {
		return nil, err
	}

	set := domain.VariantSet{
		ID:        uuid.New().String(),
		Variants:  slices.Clone(variants),
		CreatedAt: time.Now().UTC(),
	}
	c.Sets = append(c.Sets, set)

	if err := s.persist(ctx, profileID, c); err != nil {
		return nil, err
	}

	s.logger.Info("variant set added",
		zap.String("profile", profileID),
		zap.String("set_id", set.ID),
		zap.Int("variants", len(set.Variants)))
	return &set, nil
}

// Match decides which set the tab belongs to and what to offer as switch
// targets. No match is reported with a nil Matched, not an error; the
// popup renders it as a prompt to add the domain.
func (s *Switcher) Match(ctx context.Context, profileID, rawURL string) (*MatchResult, error) {
	loc, err := tabs.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	c, err := s.store.LoadCollection(ctx, profileID)
	if err != nil {
		return nil, err
	}

	res := &MatchResult{Location: loc}
	if set, ok := s.matcher.FindMatchingSet(loc.Protocol, loc.Host, c); ok {
		res.Matched = set
		res.Others = s.matcher.OtherVariants(set, loc.Protocol, loc.Host)
	}
	return res, nil
}

// SwitchURL rewrites the tab URL onto the target variant, touching only
// scheme and host. The target pair is validated with the same rules as
// stored variants.
func (s *Switcher) SwitchURL(rawURL, protocol, targetDomain string) (string, error) {
	if err := validation.ValidateProtocol(protocol); err != nil {
		return "", validation.NewValidationError("protocol", protocol, err.Error())
	}
	if err := validation.ValidateDomain(targetDomain); err != nil {
		return "", validation.NewValidationError("domain", targetDomain, err.Error())
	}
	return tabs.Rewrite(rawURL, protocol, targetDomain)
}

// DeleteSet removes one set wholesale by ID.
func (s *Switcher) DeleteSet(ctx context.Context, profileID, id string) error {
	lock := s.profileLock(profileID)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.store.LoadCollection(ctx, profileID)
	if err != nil {
		return err
	}

	before := len(c.Sets)
	c.Sets = slices.DeleteFunc(c.Sets, func(set domain.VariantSet) bool {
		return set.ID == id
	})
	if len(c.Sets) == before {
		return domain.ErrNotFound
	}

	if err := s.persist(ctx, profileID, c); err != nil {
		return err
	}

	s.logger.Info("variant set deleted",
		zap.String("profile", profileID), zap.String("set_id", id))
	return nil
}

// DeleteMatchedSet removes the set the tab belongs to, wholesale, leaving
// every other set untouched. ErrNotFound when the tab matches nothing.
func (s *Switcher) DeleteMatchedSet(ctx context.Context, profileID, rawURL string) (*domain.VariantSet, error) {
	loc, err := tabs.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	lock := s.profileLock(profileID)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.store.LoadCollection(ctx, profileID)
	if err != nil {
		return nil, err
	}

	set, ok := s.matcher.FindMatchingSet(loc.Protocol, loc.Host, c)
	if !ok {
		return nil, domain.ErrNotFound
	}
	removed := *set
	c.Sets = slices.DeleteFunc(c.Sets, func(candidate domain.VariantSet) bool {
		return candidate.ID == removed.ID
	})

	if err := s.persist(ctx, profileID, c); err != nil {
		return nil, err
	}

	s.logger.Info("matched variant set deleted",
		zap.String("profile", profileID),
		zap.String("set_id", removed.ID),
		zap.String("host", loc.Host))
	return &removed, nil
}

// Reset unconditionally empties the profile's collection. The write is
// retried once like any other.
func (s *Switcher) Reset(ctx context.Context, profileID string) error {
	lock := s.profileLock(profileID)
	lock.Lock()
	defer lock.Unlock()

	b := retry.WithMaxRetries(1, retry.NewConstant(retryBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.store.ResetCollection(ctx, profileID); err != nil {
			s.logger.Warn("collection reset failed, retrying once",
				zap.String("profile", profileID), zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("collection reset", zap.String("profile", profileID))
	return nil
}
