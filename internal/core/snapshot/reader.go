package snapshot

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/schema/registry"
	"github.com/zeusync/plantit/pkg/concurrent"
)

// Reader loads a Document into a store, migrating old component records to
// their current shape.
type Reader struct {
	registry       *registry.Registry
	workers        int
	verifyChecksum bool
}

type ReaderOption func(*Reader)

// WithDecodeWorkers decodes records on up to n goroutines. n <= 0 decodes
// on the calling goroutine.
func WithDecodeWorkers(n int) ReaderOption {
	return func(r *Reader) {
		r.workers = n
	}
}

// WithChecksumVerification rejects documents whose checksum does not match.
// Documents without a checksum are always accepted.
func WithChecksumVerification(enabled bool) ReaderOption {
	return func(r *Reader) {
		r.verifyChecksum = enabled
	}
}

// NewReader creates a reader that decodes components through reg.
func NewReader(reg *registry.Registry, opts ...ReaderOption) *Reader {
	r := &Reader{registry: reg, verifyChecksum: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats summarizes one load.
type Stats struct {
	Entities   int
	Components int
	// Migrated counts records read from an older version, by tag then version.
	Migrated map[string]map[int]int
}

// MigratedTotal returns the number of records decoded from an older version.
func (s Stats) MigratedTotal() int {
	total := 0
	for _, byVersion := range s.Migrated {
		for _, n := range byVersion {
			total += n
		}
	}
	return total
}

type decodeJob struct {
	entity int
	tag    string
	record registry.Record
}

type decoded struct {
	value   any
	version int
}

// Read replaces the contents of store with doc. Entities are recreated in
// document order with fresh handles. Nothing in store changes unless every
// record decodes.
func (r *Reader) Read(ctx context.Context, doc *Document, store *ecs.Store) (Stats, error) {
	if err := r.validate(doc); err != nil {
		return Stats{}, err
	}

	var jobs []decodeJob
	for i, entity := range doc.Entities {
		for _, tag := range slices.Sorted(maps.Keys(entity.Components)) {
			rec := entity.Components[tag]
			if rec == nil {
				return Stats{}, malformed("entity #%d component %q is not a record", i, tag)
			}
			jobs = append(jobs, decodeJob{entity: i, tag: tag, record: rec})
		}
	}

	values, err := concurrent.MapOrdered(ctx, jobs, r.workers, func(_ context.Context, _ int, job decodeJob) (decoded, error) {
		return r.decode(doc, job)
	})
	if err != nil {
		return Stats{}, err
	}

	staging := store.NewStaging()
	ids := make([]ecs.EntityID, len(doc.Entities))
	for i := range doc.Entities {
		ids[i] = staging.Create()
	}

	stats := Stats{
		Entities:   len(doc.Entities),
		Components: len(jobs),
		Migrated:   make(map[string]map[int]int),
	}
	for i, job := range jobs {
		if err := staging.Attach(job.tag, ids[job.entity], values[i].value); err != nil {
			return Stats{}, r.recordError(doc, job, values[i].version, fmt.Errorf("%w: %w", ErrUnboundComponent, err))
		}
		current, _ := r.registry.CurrentVersion(job.tag)
		if values[i].version < current {
			if stats.Migrated[job.tag] == nil {
				stats.Migrated[job.tag] = make(map[int]int)
			}
			stats.Migrated[job.tag][values[i].version]++
		}
	}

	if err := store.Replace(staging); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (r *Reader) decode(doc *Document, job decodeJob) (decoded, error) {
	version, err := job.record.Version()
	if err != nil {
		return decoded{}, r.recordError(doc, job, -1, err)
	}
	value, err := r.registry.Decode(job.tag, version, job.record)
	if err != nil {
		return decoded{}, r.recordError(doc, job, version, err)
	}
	return decoded{value: value, version: version}, nil
}

func (r *Reader) recordError(doc *Document, job decodeJob, version int, err error) error {
	return &RecordError{
		Entity:  job.entity,
		ID:      doc.Entities[job.entity].ID,
		Tag:     job.tag,
		Version: version,
		Err:     err,
	}
}

func (r *Reader) validate(doc *Document) error {
	if doc == nil {
		return malformed("nil document")
	}
	if doc.Format != FormatName {
		return malformed("format %q, want %q", doc.Format, FormatName)
	}
	if doc.FormatVersion < 1 || doc.FormatVersion > FormatVersion {
		return fmt.Errorf("%w: %w: format version %d, supported 1..%d", ErrMalformedDocument, ErrUnsupportedFormat, doc.FormatVersion, FormatVersion)
	}

	seen := make(map[uint64]int, len(doc.Entities))
	for i, entity := range doc.Entities {
		if prev, dup := seen[entity.ID]; dup {
			return malformed("entity #%d repeats id %d of entity #%d", i, entity.ID, prev)
		}
		seen[entity.ID] = i
	}

	if r.verifyChecksum && doc.Checksum != "" {
		sum, err := Checksum(doc.Entities)
		if err != nil {
			return errors.Join(ErrMalformedDocument, err)
		}
		if sum != doc.Checksum {
			return fmt.Errorf("%w: %w: stored %s, computed %s", ErrMalformedDocument, ErrChecksumMismatch, doc.Checksum, sum)
		}
	}
	return nil
}
