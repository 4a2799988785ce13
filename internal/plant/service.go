package plant

import (
	"context"
	"fmt"
	"time"

	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/observability/log"
	"github.com/zeusync/plantit/pkg/sequence"
)

// Saver persists the whole store to path.
type Saver interface {
	Save(ctx context.Context, store *ecs.Store, path string) error
}

// Service is the plant catalogue. Every mutating call saves the store before
// returning. It is not safe for concurrent use.
type Service struct {
	store  *ecs.Store
	plants *ecs.Pool[Plant]
	saver  Saver
	path   string
	now    func() time.Time
	logger log.Log
}

type Option func(*Service)

// WithClock replaces the wall clock used by Water.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger log.Log) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a service over the plant pool of store. Snapshots are
// written to path through saver.
func NewService(store *ecs.Store, plants *ecs.Pool[Plant], saver Saver, path string, opts ...Option) *Service {
	s := &Service{
		store:  store,
		plants: plants,
		saver:  saver,
		path:   path,
		now:    time.Now,
		logger: log.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the snapshot path the service saves to.
func (s *Service) Path() string {
	return s.path
}

// Add creates a new plant entity. Duplicate keys are allowed.
func (s *Service) Add(ctx context.Context, key, description string) (ecs.EntityID, error) {
	if key == "" {
		return ecs.EntityID{}, ErrEmptyKey
	}
	if description == "" {
		description = EmptyDescription
	}

	id := s.store.Create()
	if err := s.plants.Attach(id, Plant{Key: key, Description: description, WateredAt: []time.Time{}}); err != nil {
		_ = s.store.Destroy(id)
		return ecs.EntityID{}, err
	}
	s.logger.Debug("plant added", log.String("key", key), log.String("entity", id.String()))

	return id, s.Save(ctx)
}

// Delete destroys every plant entity with key and returns how many there were.
func (s *Service) Delete(ctx context.Context, key string) (int, error) {
	ids := sequence.Map(s.matching(key), func(e ecs.Entry[Plant]) ecs.EntityID {
		return e.ID
	}).Collect()
	if len(ids) == 0 {
		return 0, fmt.Errorf("%q: %w", key, ErrPlantNotFound)
	}

	for _, id := range ids {
		if err := s.store.Destroy(id); err != nil {
			return 0, err
		}
	}
	s.logger.Debug("plants deleted", log.String("key", key), log.Int("count", len(ids)))

	return len(ids), s.Save(ctx)
}

// Water records a watering of the first plant with key and returns its new state.
func (s *Service) Water(ctx context.Context, key string) (Plant, error) {
	entry, ok := s.first(key)
	if !ok {
		return Plant{}, fmt.Errorf("%q: %w", key, ErrPlantNotFound)
	}

	at := s.now().UTC().Truncate(time.Second)
	var watered Plant
	s.plants.Update(entry.ID, func(p *Plant) {
		p.WateredAt = append(p.WateredAt, at)
		watered = p.Clone()
	})
	s.logger.Debug("plant watered", log.String("key", key), log.String("at", at.Format(time.RFC3339)))

	return watered, s.Save(ctx)
}

// Info returns the first plant with key.
func (s *Service) Info(key string) (Plant, error) {
	entry, ok := s.first(key)
	if !ok {
		return Plant{}, fmt.Errorf("%q: %w", key, ErrPlantNotFound)
	}
	return entry.Value.Clone(), nil
}

// List returns every plant in attachment order.
func (s *Service) List() []Plant {
	return sequence.Map(s.plants.Entries(), func(e ecs.Entry[Plant]) Plant {
		return e.Value.Clone()
	}).Collect()
}

func (s *Service) Count() int {
	return s.plants.Len()
}

// Save writes the store to the service path.
func (s *Service) Save(ctx context.Context) error {
	if err := s.saver.Save(ctx, s.store, s.path); err != nil {
		return fmt.Errorf("save plants: %w", err)
	}
	return nil
}

func (s *Service) first(key string) (ecs.Entry[Plant], bool) {
	return s.plants.FindFirst(func(p Plant) bool {
		return p.Key == key
	})
}

func (s *Service) matching(key string) *sequence.Iterator[ecs.Entry[Plant]] {
	return s.plants.Entries().Filter(func(e ecs.Entry[Plant]) bool {
		return e.Value.Key == key
	})
}
