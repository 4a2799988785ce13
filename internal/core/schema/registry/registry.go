package registry

import (
	"errors"
	"fmt"
	"slices"
)

// Registry maps component tags to their descriptors.
//
// Register is not safe for concurrent use; once registration is done,
// Encode and Decode may be called from several goroutines.
type Registry struct {
	types map[string]ComponentType
	tags  []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]ComponentType)}
}

// Register adds a component type. Registering a tag again with a higher
// current version replaces the descriptor; this is how a schema change is
// declared.
func (r *Registry) Register(ct ComponentType) error {
	if ct == nil {
		return fmt.Errorf("nil component type: %w", ErrInvalidDescriptor)
	}
	if err := ct.Validate(); err != nil {
		return err
	}

	tag := ct.Name()
	existing, ok := r.types[tag]
	if !ok {
		r.types[tag] = ct
		r.tags = append(r.tags, tag)
		return nil
	}

	switch {
	case !existing.sameType(ct):
		return fmt.Errorf("register %q: %w", tag, ErrTypeMismatch)
	case ct.CurrentVersion() == existing.CurrentVersion():
		return fmt.Errorf("register %q v%d: %w", tag, ct.CurrentVersion(), ErrTypeAlreadyRegistered)
	case ct.CurrentVersion() < existing.CurrentVersion():
		return fmt.Errorf("register %q v%d over v%d: %w", tag, ct.CurrentVersion(), existing.CurrentVersion(), ErrVersionRegression)
	}

	r.types[tag] = ct
	return nil
}

// Lookup returns the descriptor registered under tag.
func (r *Registry) Lookup(tag string) (ComponentType, error) {
	ct, ok := r.types[tag]
	if !ok {
		return nil, fmt.Errorf("%q: %w", tag, ErrUnknownComponentType)
	}
	return ct, nil
}

// Tags returns registered tags in first-registration order.
func (r *Registry) Tags() []string {
	return slices.Clone(r.tags)
}

// CurrentVersion returns the version Encode writes for tag.
func (r *Registry) CurrentVersion(tag string) (int, error) {
	ct, err := r.Lookup(tag)
	if err != nil {
		return 0, err
	}
	return ct.CurrentVersion(), nil
}

// Encode writes value with the current version of tag. The returned record
// always carries the version field.
func (r *Registry) Encode(tag string, value any) (Record, error) {
	ct, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}
	rec, err := ct.EncodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", tag, err)
	}
	rec[VersionField] = ct.CurrentVersion()
	return rec, nil
}

// Decode reads a record written by version of tag into the current shape.
// Failures wrap ErrUnknownSchemaVersion or ErrMalformedPayload.
func (r *Registry) Decode(tag string, version int, rec Record) (any, error) {
	ct, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}

	v, err := ct.DecodeValue(version, rec)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrUnknownSchemaVersion), errors.Is(err, ErrMalformedPayload):
		return nil, fmt.Errorf("decode %s v%d: %w", tag, version, err)
	default:
		return nil, fmt.Errorf("decode %s v%d: %w: %w", tag, version, ErrMalformedPayload, err)
	}
}
