package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/match"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/storage/memory"
)

const testProfile = "default"

func newSwitcher(store *memory.Store) *Switcher {
	return New(store, match.Matcher{}, zap.NewNop())
}

func liveTestVariants() []domain.Variant {
	return []domain.Variant{
		{Name: "Live", Protocol: "https", Domain: "example.com"},
		{Name: "Test", Protocol: "https", Domain: "test.example.com"},
	}
}

func TestAddVariantSet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSwitcher(store)

	set, err := s.AddVariantSet(ctx, testProfile, liveTestVariants())
	require.NoError(t, err)
	require.NotEmpty(t, set.ID)

	c, err := s.Collection(ctx, testProfile)
	require.NoError(t, err)
	require.Len(t, c.Sets, 1)
	require.Equal(t, set.ID, c.Sets[0].ID)
	require.Equal(t, liveTestVariants(), c.Sets[0].Variants)
}

func TestAddVariantSet_ValidationAbortsBeforeWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSwitcher(store)

	_, err := s.AddVariantSet(ctx, testProfile, []domain.Variant{
		{Name: "Live", Protocol: "https", Domain: "example.com"},
		{Name: "Bad", Protocol: "https", Domain: "example.com/path"},
	})
	require.Error(t, err)

	// Nothing was persisted, not even the valid first variant.
	c, err := s.Collection(ctx, testProfile)
	require.NoError(t, err)
	require.Empty(t, c.Sets)
}

func TestMatch(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSwitcher(store)

	_, err := s.AddVariantSet(ctx, testProfile, liveTestVariants())
	require.NoError(t, err)

	res, err := s.Match(ctx, testProfile, "https://example.com/checkout?step=2")
	require.NoError(t, err)
	require.NotNil(t, res.Matched)
	require.Equal(t, "example.com", res.Location.Host)
	require.Len(t, res.Others, 1)
	require.Equal(t, "Test", res.Others[0].Name)

	// An unrelated tab matches nothing; that is a normal result.
	res, err = s.Match(ctx, testProfile, "https://unrelated.com")
	require.NoError(t, err)
	require.Nil(t, res.Matched)
	require.Empty(t, res.Others)
}

func TestMatch_RejectsNonWebTab(t *testing.T) {
	ctx := context.Background()
	s := newSwitcher(memory.New())

	_, err := s.Match(ctx, testProfile, "chrome://settings")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSwitchURL(t *testing.T) {
	s := newSwitcher(memory.New())

	got, err := s.SwitchURL("https://example.com/orders/42?tab=items#top", "https", "test.example.com")
	require.NoError(t, err)
	require.Equal(t, "https://test.example.com/orders/42?tab=items#top", got)

	_, err = s.SwitchURL("https://example.com", "ftp", "test.example.com")
	require.Error(t, err)

	_, err = s.SwitchURL("https://example.com", "https", "test.example.com/path")
	require.Error(t, err)
}

func TestDeleteMatchedSet_LeavesOthersUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSwitcher(store)

	_, err := s.AddVariantSet(ctx, testProfile, liveTestVariants())
	require.NoError(t, err)
	other, err := s.AddVariantSet(ctx, testProfile, []domain.Variant{
		{Name: "Docs", Protocol: "https", Domain: "docs.example.com"},
	})
	require.NoError(t, err)

	removed, err := s.DeleteMatchedSet(ctx, testProfile, "https://test.example.com/page")
	require.NoError(t, err)
	require.Equal(t, liveTestVariants(), removed.Variants)

	c, err := s.Collection(ctx, testProfile)
	require.NoError(t, err)
	require.Len(t, c.Sets, 1)
	require.Equal(t, other.ID, c.Sets[0].ID)
	require.Equal(t, other.Variants, c.Sets[0].Variants)
}

func TestDeleteMatchedSet_NoMatch(t *testing.T) {
	ctx := context.Background()
	s := newSwitcher(memory.New())

	_, err := s.DeleteMatchedSet(ctx, testProfile, "https://unrelated.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteSet(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSwitcher(store)

	set, err := s.AddVariantSet(ctx, testProfile, liveTestVariants())
	require.NoError(t, err)

	require.NoError(t, s.DeleteSet(ctx, testProfile, set.ID))
	require.ErrorIs(t, s.DeleteSet(ctx, testProfile, set.ID), domain.ErrNotFound)
}

func TestReset_YieldsEmptyCollection(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSwitcher(store)

	_, err := s.AddVariantSet(ctx, testProfile, liveTestVariants())
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx, testProfile))

	c, err := s.Collection(ctx, testProfile)
	require.NoError(t, err)
	require.Empty(t, c.Sets)
}

func TestPersist_RetriesFailedWriteOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSwitcher(store)

	// One transient failure: the single retry covers it.
	store.FailWrites(1, domain.ErrStorageUnavailable)
	_, err := s.AddVariantSet(ctx, testProfile, liveTestVariants())
	require.NoError(t, err)

	// Two consecutive failures exhaust the retry and surface the error.
	store.FailWrites(2, domain.ErrStorageUnavailable)
	_, err = s.AddVariantSet(ctx, testProfile, liveTestVariants())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestPersist_QuotaErrorIsNotRetried(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithQuota(64)
	s := newSwitcher(store)

	_, err := s.AddVariantSet(ctx, testProfile, liveTestVariants())
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
}
