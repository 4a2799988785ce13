package snapshot

import (
	"fmt"

	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/schema/registry"
)

// Writer turns a store into a Document.
type Writer struct {
	registry *registry.Registry
	checksum bool
}

type WriterOption func(*Writer)

// WithChecksum embeds an xxhash64 checksum of the entity list.
func WithChecksum(enabled bool) WriterOption {
	return func(w *Writer) {
		w.checksum = enabled
	}
}

// NewWriter creates a writer that encodes components through reg.
func NewWriter(reg *registry.Registry, opts ...WriterOption) *Writer {
	w := &Writer{registry: reg}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write emits every live entity in the store's persistence order (see
// ecs.Store.Order), including entities without components, each with one record per present component
// encoded at the current schema version. Every pool of the store must have a
// registered codec.
func (w *Writer) Write(store *ecs.Store) (*Document, error) {
	tags := w.registry.Tags()
	for _, tag := range store.Tags() {
		if _, err := w.registry.Lookup(tag); err != nil {
			return nil, fmt.Errorf("write: pool %q: %w", tag, ErrUnboundComponent)
		}
	}

	doc := &Document{
		Format:        FormatName,
		FormatVersion: FormatVersion,
		Entities:      make([]EntityRecord, 0, store.Len()),
	}

	for _, id := range store.Order() {
		entity := EntityRecord{
			ID:         id.Uint64(),
			Components: make(map[string]registry.Record),
		}
		for _, tag := range tags {
			value, ok, err := store.Get(tag, id)
			if err != nil {
				return nil, fmt.Errorf("write %s: %w: %w", id, ErrUnboundComponent, err)
			}
			if !ok {
				continue
			}
			rec, err := w.registry.Encode(tag, value)
			if err != nil {
				return nil, fmt.Errorf("write %s: %w", id, err)
			}
			entity.Components[tag] = rec
		}
		doc.Entities = append(doc.Entities, entity)
	}

	if w.checksum {
		sum, err := Checksum(doc.Entities)
		if err != nil {
			return nil, err
		}
		doc.Checksum = sum
	}
	return doc, nil
}
