package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/plantit/internal/core/schema/registry"
	"github.com/zeusync/plantit/pkg/encoding"
)

const (
	// FormatName marks a file as a component store snapshot.
	FormatName = "plantit.snapshot"
	// FormatVersion is the envelope layout version this package writes and reads.
	FormatVersion = 1

	checksumPrefix = "xxh64:"
)

// Document is one full snapshot of a store.
type Document struct {
	Format        string         `json:"format" yaml:"format"`
	FormatVersion int            `json:"format_version" yaml:"format_version"`
	Checksum      string         `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	Entities      []EntityRecord `json:"entities" yaml:"entities"`
}

// EntityRecord holds one entity and its components keyed by type tag.
type EntityRecord struct {
	ID         uint64                     `json:"id" yaml:"id"`
	Components map[string]registry.Record `json:"components" yaml:"components"`
}

// Encode serializes doc with codec.
func Encode(codec encoding.Codec, doc *Document) ([]byte, error) {
	data, err := codec.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", codec.Name(), err)
	}
	return data, nil
}

// Parse deserializes a document. Any syntax or shape error wraps
// ErrMalformedDocument.
func Parse(codec encoding.Codec, data []byte) (*Document, error) {
	var doc Document
	if err := codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedDocument, codec.Name(), err)
	}
	return &doc, nil
}

// Checksum hashes the canonical JSON form of the entity list. JSON object
// keys are sorted, so the value depends only on the data, not on the codec the
// document was read with.
func Checksum(entities []EntityRecord) (string, error) {
	if entities == nil {
		entities = []EntityRecord{}
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return "", fmt.Errorf("checksum: %w", err)
	}
	return fmt.Sprintf("%s%016x", checksumPrefix, xxhash.Sum64(data)), nil
}
