package registry

import (
	"errors"

	"github.com/zeusync/plantit/internal/core/ecs"
)

// Bind registers desc with reg and makes sure store has a pool for it.
// Binding a newer version of an already bound type reuses the existing pool.
func Bind[T any](reg *Registry, store *ecs.Store, desc *Descriptor[T]) (*ecs.Pool[T], error) {
	if err := reg.Register(desc); err != nil {
		return nil, err
	}

	pool, err := ecs.PoolOf[T](store, desc.Tag)
	if errors.Is(err, ecs.ErrComponentNotRegistered) {
		return ecs.Register[T](store, desc.Tag)
	}
	return pool, err
}
