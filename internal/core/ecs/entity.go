package ecs

import (
	"cmp"
	"fmt"
	"iter"
)

// EntityID identifies an entity and carries a generation for stale-handle detection.
// The zero value is never issued.
type EntityID struct {
	index      uint32
	generation uint32
}

// Index returns the backing slot of the entity.
func (id EntityID) Index() uint32 {
	return id.index
}

// Generation returns the generation counter of the slot when the handle was issued.
func (id EntityID) Generation() uint32 {
	return id.generation
}

// IsZero reports whether the identifier is the zero value.
func (id EntityID) IsZero() bool {
	return id.index == 0 && id.generation == 0
}

// Compare orders handles by slot, then generation.
func (id EntityID) Compare(other EntityID) int {
	if c := cmp.Compare(id.index, other.index); c != 0 {
		return c
	}
	return cmp.Compare(id.generation, other.generation)
}

// Uint64 packs the handle into one opaque integer.
func (id EntityID) Uint64() uint64 {
	return uint64(id.index)<<32 | uint64(id.generation)
}

func (id EntityID) String() string {
	if id.IsZero() {
		return "EntityID(0:0)"
	}
	return fmt.Sprintf("EntityID(%d:%d)", id.index, id.generation)
}

// EntityIDFromUint64 reverses EntityID.Uint64.
func EntityIDFromUint64(v uint64) EntityID {
	return EntityID{index: uint32(v >> 32), generation: uint32(v)}
}

// EntityRegistry allocates and recycles entity handles.
//
// A slot is live while its generation is odd: Create and Destroy each bump
// the generation, so a destroyed handle can never match its slot again.
// EntityRegistry is not safe for concurrent use.
type EntityRegistry struct {
	generations []uint32
	free        []uint32
	alive       int
}

// NewEntityRegistry constructs an empty registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{}
}

// Create issues a new entity handle, reusing the most recently freed slot first.
func (r *EntityRegistry) Create() EntityID {
	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.generations))
		r.generations = append(r.generations, 0)
	}

	r.generations[index]++
	r.alive++
	return EntityID{index: index, generation: r.generations[index]}
}

// Destroy releases the handle. It returns false, leaving state untouched,
// when the handle is zero, stale or already destroyed.
func (r *EntityRegistry) Destroy(id EntityID) bool {
	if !r.IsAlive(id) {
		return false
	}

	r.generations[id.index]++
	r.free = append(r.free, id.index)
	r.alive--
	return true
}

// IsAlive reports whether the handle refers to a currently allocated entity.
func (r *EntityRegistry) IsAlive(id EntityID) bool {
	if id.IsZero() || id.index >= uint32(len(r.generations)) {
		return false
	}
	gen := r.generations[id.index]
	return gen == id.generation && gen%2 == 1
}

// Count returns the number of live entities.
func (r *EntityRegistry) Count() int {
	return r.alive
}

// Live yields every live handle in ascending slot order.
func (r *EntityRegistry) Live() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		for idx, gen := range r.generations {
			if gen%2 == 0 {
				continue
			}
			if !yield(EntityID{index: uint32(idx), generation: gen}) {
				return
			}
		}
	}
}

// retire returns a registry in which every handle issued by r is dead and
// every slot is free, lowest slot first. Generations carry over so handles
// issued by r stay stale against the new registry.
func (r *EntityRegistry) retire() *EntityRegistry {
	next := &EntityRegistry{
		generations: make([]uint32, len(r.generations)),
		free:        make([]uint32, 0, len(r.generations)),
	}
	for idx, gen := range r.generations {
		if gen%2 == 1 {
			gen++
		}
		next.generations[idx] = gen
	}
	for idx := len(r.generations) - 1; idx >= 0; idx-- {
		next.free = append(next.free, uint32(idx))
	}
	return next
}
