package ecs

import (
	"fmt"
	"iter"
	"slices"

	"github.com/zeusync/plantit/pkg/sequence"
)

// Entry pairs an entity with its component value.
type Entry[T any] struct {
	ID    EntityID
	Value T
}

// Pool stores components of one type keyed by entity handle.
//
// Iteration follows attachment order. Replacing a value keeps its position;
// removing and re-attaching moves the entity to the end. Pools must not be
// mutated while an iteration over them is in progress.
type Pool[T any] struct {
	tag      string
	entities *EntityRegistry
	order    []EntityID
	position map[EntityID]int
	values   map[EntityID]*T
}

func newPool[T any](tag string, entities *EntityRegistry) *Pool[T] {
	return &Pool[T]{
		tag:      tag,
		entities: entities,
		position: make(map[EntityID]int),
		values:   make(map[EntityID]*T),
	}
}

// Tag returns the component type tag the pool was registered under.
func (p *Pool[T]) Tag() string {
	return p.tag
}

// Len returns the number of entities carrying the component.
func (p *Pool[T]) Len() int {
	return len(p.order)
}

// Has reports whether id carries the component.
func (p *Pool[T]) Has(id EntityID) bool {
	_, ok := p.values[id]
	return ok
}

// Attach stores value on id, replacing any existing value.
func (p *Pool[T]) Attach(id EntityID, value T) error {
	if id.IsZero() {
		return ErrZeroEntity
	}
	if !p.entities.IsAlive(id) {
		return fmt.Errorf("attach %s to %s: %w", p.tag, id, ErrEntityNotFound)
	}

	if existing, ok := p.values[id]; ok {
		*existing = value
		return nil
	}

	v := value
	p.values[id] = &v
	p.position[id] = len(p.order)
	p.order = append(p.order, id)
	return nil
}

// Get returns a copy of the component stored on id.
func (p *Pool[T]) Get(id EntityID) (T, bool) {
	if v, ok := p.values[id]; ok {
		return *v, true
	}
	var zero T
	return zero, false
}

// GetMut returns a pointer to the stored component. The pointer stays valid
// until the component is removed or its entity destroyed.
func (p *Pool[T]) GetMut(id EntityID) (*T, bool) {
	v, ok := p.values[id]
	return v, ok
}

// Update applies fn to the stored component in place.
func (p *Pool[T]) Update(id EntityID, fn func(*T)) bool {
	v, ok := p.values[id]
	if !ok {
		return false
	}
	fn(v)
	return true
}

// Remove detaches the component from id.
func (p *Pool[T]) Remove(id EntityID) bool {
	pos, ok := p.position[id]
	if !ok {
		return false
	}

	p.order = slices.Delete(p.order, pos, pos+1)
	for i := pos; i < len(p.order); i++ {
		p.position[p.order[i]] = i
	}
	delete(p.position, id)
	delete(p.values, id)
	return true
}

// Clear removes every component from the pool.
func (p *Pool[T]) Clear() {
	p.order = nil
	clear(p.position)
	clear(p.values)
}

// All yields (entity, value) pairs in attachment order.
func (p *Pool[T]) All() iter.Seq2[EntityID, T] {
	return func(yield func(EntityID, T) bool) {
		for _, id := range p.order {
			if !yield(id, *p.values[id]) {
				return
			}
		}
	}
}

// Entries returns the pool contents as a chainable iterator in attachment order.
func (p *Pool[T]) Entries() *sequence.Iterator[Entry[T]] {
	return sequence.FromSeq2(p.All(), func(id EntityID, v T) Entry[T] {
		return Entry[T]{ID: id, Value: v}
	})
}

// FindFirst returns the first entry in attachment order matching pred.
func (p *Pool[T]) FindFirst(pred func(T) bool) (Entry[T], bool) {
	return p.Entries().Find(func(e Entry[T]) bool { return pred(e.Value) })
}

func (p *Pool[T]) getAny(id EntityID) (any, bool) {
	v, ok := p.values[id]
	if !ok {
		return nil, false
	}
	return *v, true
}

func (p *Pool[T]) attachAny(id EntityID, value any) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf("attach %s: got %T: %w", p.tag, value, ErrComponentTypeMismatch)
	}
	return p.Attach(id, v)
}

func (p *Pool[T]) empty(entities *EntityRegistry) componentPool {
	return newPool[T](p.tag, entities)
}

func (p *Pool[T]) attached() []EntityID {
	return p.order
}

func (p *Pool[T]) accepts(other componentPool) bool {
	src, ok := other.(*Pool[T])
	return ok && src.tag == p.tag
}

func (p *Pool[T]) adopt(other componentPool) error {
	if !p.accepts(other) {
		return fmt.Errorf("adopt %s: %w", p.tag, ErrStagingMismatch)
	}
	src := other.(*Pool[T])
	p.order, p.position, p.values = src.order, src.position, src.values
	src.order, src.position, src.values = nil, make(map[EntityID]int), make(map[EntityID]*T)
	return nil
}

// componentPool is the type-erased view of Pool used by Store.
type componentPool interface {
	Tag() string
	Len() int
	Has(EntityID) bool
	Remove(EntityID) bool
	Clear()

	getAny(EntityID) (any, bool)
	attachAny(EntityID, any) error
	attached() []EntityID
	empty(*EntityRegistry) componentPool
	accepts(componentPool) bool
	adopt(componentPool) error
}

var _ componentPool = (*Pool[int])(nil)
