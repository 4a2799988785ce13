package ecs

import (
	"fmt"
	"iter"
	"slices"
)

// Store owns an entity allocator and one pool per registered component type.
// Destroying an entity releases every component attached to it.
//
// Store is single-threaded: callers sharing it across goroutines must hold
// one exclusive lock around every mutation and snapshot.
type Store struct {
	entities *EntityRegistry
	pools    map[string]componentPool
	tags     []string
	origin   *Store
}

// NewStore constructs an empty store with no registered component types.
func NewStore() *Store {
	return &Store{
		entities: NewEntityRegistry(),
		pools:    make(map[string]componentPool),
	}
}

// Register adds a pool for component type T under tag.
func Register[T any](s *Store, tag string) (*Pool[T], error) {
	if tag == "" {
		return nil, ErrEmptyComponentTag
	}
	if _, exists := s.pools[tag]; exists {
		return nil, fmt.Errorf("register %q: %w", tag, ErrComponentAlreadyRegistered)
	}

	pool := newPool[T](tag, s.entities)
	s.pools[tag] = pool
	s.tags = append(s.tags, tag)
	return pool, nil
}

// PoolOf returns the typed pool registered under tag.
func PoolOf[T any](s *Store, tag string) (*Pool[T], error) {
	p, ok := s.pools[tag]
	if !ok {
		return nil, fmt.Errorf("pool %q: %w", tag, ErrComponentNotRegistered)
	}
	typed, ok := p.(*Pool[T])
	if !ok {
		return nil, fmt.Errorf("pool %q: %w", tag, ErrComponentTypeMismatch)
	}
	return typed, nil
}

// Entities exposes the allocator.
func (s *Store) Entities() *EntityRegistry {
	return s.entities
}

// Create allocates a new entity with no components.
func (s *Store) Create() EntityID {
	return s.entities.Create()
}

// Destroy removes every component of id and releases the handle.
func (s *Store) Destroy(id EntityID) error {
	if !s.entities.IsAlive(id) {
		return fmt.Errorf("destroy %s: %w", id, ErrEntityNotFound)
	}
	for _, tag := range s.tags {
		s.pools[tag].Remove(id)
	}
	s.entities.Destroy(id)
	return nil
}

// IsAlive reports whether id names a live entity.
func (s *Store) IsAlive(id EntityID) bool {
	return s.entities.IsAlive(id)
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return s.entities.Count()
}

// Live yields live entities in ascending handle order.
func (s *Store) Live() iter.Seq[EntityID] {
	return s.entities.Live()
}

// Order returns every live entity in persistence order: the attachment order
// of each pool in registration order, skipping entities already listed, then
// entities without components in ascending handle order. Recreating entities
// in this order and attaching their components entity by entity rebuilds the
// iteration order of the first registered pool exactly.
func (s *Store) Order() []EntityID {
	order := make([]EntityID, 0, s.entities.Count())
	seen := make(map[EntityID]struct{}, s.entities.Count())
	for _, tag := range s.tags {
		for _, id := range s.pools[tag].attached() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			order = append(order, id)
		}
	}
	for id := range s.entities.Live() {
		if _, ok := seen[id]; !ok {
			order = append(order, id)
		}
	}
	return order
}

// Tags returns the registered component tags in registration order.
func (s *Store) Tags() []string {
	return slices.Clone(s.tags)
}

// ComponentsOf returns the tags of the components attached to id.
func (s *Store) ComponentsOf(id EntityID) []string {
	var tags []string
	for _, tag := range s.tags {
		if s.pools[tag].Has(id) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Get returns the component stored under tag on id as an untyped value.
func (s *Store) Get(tag string, id EntityID) (any, bool, error) {
	p, ok := s.pools[tag]
	if !ok {
		return nil, false, fmt.Errorf("get %q: %w", tag, ErrComponentNotRegistered)
	}
	v, found := p.getAny(id)
	return v, found, nil
}

// Attach stores an untyped value under tag on id. The value must have the
// pool's component type.
func (s *Store) Attach(tag string, id EntityID, value any) error {
	p, ok := s.pools[tag]
	if !ok {
		return fmt.Errorf("attach %q: %w", tag, ErrComponentNotRegistered)
	}
	return p.attachAny(id, value)
}

// Remove detaches the component stored under tag from id.
func (s *Store) Remove(tag string, id EntityID) (bool, error) {
	p, ok := s.pools[tag]
	if !ok {
		return false, fmt.Errorf("remove %q: %w", tag, ErrComponentNotRegistered)
	}
	return p.Remove(id), nil
}

// Clear destroys every entity. Handles issued before Clear stay stale.
func (s *Store) Clear() {
	for _, tag := range s.tags {
		s.pools[tag].Clear()
	}
	*s.entities = *s.entities.retire()
}

// NewStaging returns an empty store with the same pool layout as s. Handles
// issued by s are stale in the staging store. Use Replace to commit it.
func (s *Store) NewStaging() *Store {
	staging := &Store{
		entities: s.entities.retire(),
		pools:    make(map[string]componentPool, len(s.pools)),
		tags:     slices.Clone(s.tags),
		origin:   s,
	}
	for _, tag := range s.tags {
		staging.pools[tag] = s.pools[tag].empty(staging.entities)
	}
	return staging
}

// Replace swaps the contents of s for those of a staging store created by
// s.NewStaging. Typed pools obtained from s stay valid. On error s is unchanged.
func (s *Store) Replace(staging *Store) error {
	if staging == nil || staging.origin != s || !slices.Equal(staging.tags, s.tags) {
		return ErrStagingMismatch
	}

	for _, tag := range s.tags {
		if !s.pools[tag].accepts(staging.pools[tag]) {
			return fmt.Errorf("replace %q: %w", tag, ErrStagingMismatch)
		}
	}
	for _, tag := range s.tags {
		if err := s.pools[tag].adopt(staging.pools[tag]); err != nil {
			return err
		}
	}
	*s.entities = *staging.entities
	staging.entities = s.entities.retire()
	return nil
}
