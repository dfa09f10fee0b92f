// Package storage defines the persistence interface for variant
// collections and API keys, plus the versioned wire shape collections are
// stored in.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
)

// SchemaVersion is the current version of the stored collection shape.
const SchemaVersion = 1

// storedCollection is the persisted envelope. The version field exists so
// the shape can migrate without guessing.
type storedCollection struct {
	SchemaVersion int                 `json:"schema_version"`
	Sets          []domain.VariantSet `json:"sets"`
}

// legacyVariant is the record shape the original popup persisted: a bare
// array of arrays of these, with no envelope and no set metadata.
type legacyVariant struct {
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Domain   string `json:"domain"`
}

// EncodeCollection serializes a collection into its stored form.
func EncodeCollection(c *domain.Collection) ([]byte, error) {
	env := storedCollection{SchemaVersion: SchemaVersion}
	if c != nil {
		env.Sets = c.Sets
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}
	return b, nil
}

// DecodeCollection deserializes a stored payload. A payload whose top
// level is an array is treated as the unversioned legacy shape and
// migrated in place: each inner array becomes a set with a generated ID.
func DecodeCollection(payload []byte) (*domain.Collection, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return &domain.Collection{}, nil
	}

	if trimmed[0] == '[' {
		return decodeLegacy(trimmed)
	}

	var env storedCollection
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	if env.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("decoding collection: unsupported schema version %d", env.SchemaVersion)
	}
	return &domain.Collection{Sets: env.Sets}, nil
}

func decodeLegacy(payload []byte) (*domain.Collection, error) {
	var groups [][]legacyVariant
	if err := json.Unmarshal(payload, &groups); err != nil {
		return nil, fmt.Errorf("decoding legacy collection: %w", err)
	}

	c := &domain.Collection{Sets: make([]domain.VariantSet, 0, len(groups))}
	for _, group := range groups {
		set := domain.VariantSet{
			ID:        uuid.New().String(),
			Variants:  make([]domain.Variant, 0, len(group)),
			CreatedAt: time.Now().UTC(),
		}
		for _, v := range group {
			set.Variants = append(set.Variants, domain.Variant{
				Name:     v.Name,
				Protocol: v.Protocol,
				Domain:   v.Domain,
			})
		}
		c.Sets = append(c.Sets, set)
	}
	return c, nil
}

// CheckQuota returns domain.ErrQuotaExceeded when the encoded payload is
// larger than quotaBytes. A quota of zero or less disables the check.
func CheckQuota(payload []byte, quotaBytes int64) error {
	if quotaBytes > 0 && int64(len(payload)) > quotaBytes {
		return fmt.Errorf("%w: collection is %d bytes, quota is %d",
			domain.ErrQuotaExceeded, len(payload), quotaBytes)
	}
	return nil
}
