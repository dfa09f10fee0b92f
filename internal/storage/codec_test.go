package storage

import (
	"strings"
	"testing"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
)

func TestEncodeDecodeCollection(t *testing.T) {
	c := &domain.Collection{
		Sets: []domain.VariantSet{
			{
				ID: "set-1",
				Variants: []domain.Variant{
					{Name: "Live", Protocol: "https", Domain: "example.com"},
					{Name: "Test", Protocol: "https", Domain: "test.example.com"},
				},
			},
		},
	}

	payload, err := EncodeCollection(c)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(string(payload), `"schema_version":1`) {
		t.Errorf("expected payload to carry the schema version, got %s", payload)
	}

	got, err := DecodeCollection(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got.Sets) != 1 || got.Sets[0].ID != "set-1" {
		t.Errorf("round-trip lost the set: %+v", got)
	}
	if got.Sets[0].Variants[1].Name != "Test" {
		t.Errorf("round-trip lost variant order: %+v", got.Sets[0].Variants)
	}
}

func TestDecodeCollection_Empty(t *testing.T) {
	got, err := DecodeCollection(nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got.Sets) != 0 {
		t.Errorf("expected an empty collection, got %+v", got)
	}
}

func TestDecodeCollection_LegacyShape(t *testing.T) {
	// The original popup stored a bare array of arrays of records with no
	// envelope. Such a payload migrates: sets come back in order, with
	// generated IDs.
	payload := `[[{"name":"Live","protocol":"https","domain":"example.com"},
		{"name":"Test","protocol":"https","domain":"test.example.com"}],
		[{"name":"Docs","protocol":"http","domain":"docs.example.com"}]]`

	got, err := DecodeCollection([]byte(payload))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got.Sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(got.Sets))
	}
	if got.Sets[0].ID == "" || got.Sets[1].ID == "" {
		t.Error("expected migrated sets to be assigned IDs")
	}
	if got.Sets[0].Variants[0].Name != "Live" || got.Sets[1].Variants[0].Name != "Docs" {
		t.Errorf("migration reordered sets: %+v", got.Sets)
	}
}

func TestDecodeCollection_UnknownFutureVersion(t *testing.T) {
	if _, err := DecodeCollection([]byte(`{"schema_version":99,"sets":[]}`)); err == nil {
		t.Error("expected a payload from a future schema version to be rejected")
	}
}

func TestCheckQuota(t *testing.T) {
	payload := []byte(strings.Repeat("x", 100))

	if err := CheckQuota(payload, 100); err != nil {
		t.Errorf("payload at exactly the quota should pass, got %v", err)
	}
	if err := CheckQuota(payload, 99); err == nil {
		t.Error("payload over the quota should fail")
	}
	if err := CheckQuota(payload, 0); err != nil {
		t.Errorf("zero quota disables the check, got %v", err)
	}
}
