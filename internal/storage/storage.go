package storage

import (
	"context"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
)

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Collections. Each profile owns exactly one collection stored under a
	// single logical key; writes replace the whole value, last writer
	// wins. A profile that has never saved anything loads as the empty
	// collection - absence of data is not an error.
	LoadCollection(ctx context.Context, profileID string) (*domain.Collection, error)
	SaveCollection(ctx context.Context, profileID string, c *domain.Collection) error
	ResetCollection(ctx context.Context, profileID string) error

	// API Keys
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
	CountAPIKeys(ctx context.Context) (int, error)
}
