package registry

import (
	"fmt"
	"maps"
	"slices"
)

// EncodeFunc encodes a value into a record of the current schema version.
// The registry sets the version field.
type EncodeFunc[T any] func(T) (Record, error)

// DecodeFunc decodes a record of one schema version into the current shape.
type DecodeFunc[T any] func(Record) (T, error)

// Rule decodes one historical schema version.
type Rule[T any] struct {
	Decode DecodeFunc[T]
	// Defaults names the fields of the current shape that this version did not
	// record and that Decode fills with their declared default.
	Defaults []string
}

// Descriptor describes one component type: its tag, the range of schema
// versions it can read and how to write the current one.
type Descriptor[T any] struct {
	Tag     string
	First   int
	Current int
	Encode  EncodeFunc[T]
	Rules   map[int]Rule[T]
}

// ComponentType is the type-erased view of a Descriptor held by Registry.
type ComponentType interface {
	Name() string
	CurrentVersion() int
	Versions() []int
	Defaults(version int) []string
	Validate() error

	EncodeValue(value any) (Record, error)
	DecodeValue(version int, rec Record) (any, error)

	sameType(other ComponentType) bool
}

var _ ComponentType = (*Descriptor[struct{}])(nil)

func (d *Descriptor[T]) Name() string {
	return d.Tag
}

func (d *Descriptor[T]) CurrentVersion() int {
	return d.Current
}

// Versions returns every decodable version in ascending order.
func (d *Descriptor[T]) Versions() []int {
	return slices.Sorted(maps.Keys(d.Rules))
}

func (d *Descriptor[T]) Defaults(version int) []string {
	return slices.Clone(d.Rules[version].Defaults)
}

// Validate checks that the descriptor can decode every version from First
// through Current and nothing outside that range.
func (d *Descriptor[T]) Validate() error {
	switch {
	case d.Tag == "":
		return fmt.Errorf("empty tag: %w", ErrInvalidDescriptor)
	case d.Encode == nil:
		return fmt.Errorf("%s: nil encode func: %w", d.Tag, ErrInvalidDescriptor)
	case d.First < 0 || d.Current < d.First:
		return fmt.Errorf("%s: version range %d..%d: %w", d.Tag, d.First, d.Current, ErrInvalidDescriptor)
	}

	for v := d.First; v <= d.Current; v++ {
		rule, ok := d.Rules[v]
		if !ok || rule.Decode == nil {
			return fmt.Errorf("%s: no decode rule for version %d: %w", d.Tag, v, ErrInvalidDescriptor)
		}
	}
	for v := range d.Rules {
		if v < d.First || v > d.Current {
			return fmt.Errorf("%s: decode rule for version %d outside %d..%d: %w", d.Tag, v, d.First, d.Current, ErrInvalidDescriptor)
		}
	}
	return nil
}

// EncodeValue encodes value, which must be a T.
func (d *Descriptor[T]) EncodeValue(value any) (Record, error) {
	v, ok := value.(T)
	if !ok {
		return nil, fmt.Errorf("%s: got %T: %w", d.Tag, value, ErrValueTypeMismatch)
	}
	rec, err := d.Encode(v)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = Record{}
	}
	return rec, nil
}

// DecodeValue decodes rec with the rule registered for version.
func (d *Descriptor[T]) DecodeValue(version int, rec Record) (any, error) {
	rule, ok := d.Rules[version]
	if !ok || rule.Decode == nil {
		return nil, fmt.Errorf("%s: version %d (current %d): %w", d.Tag, version, d.Current, ErrUnknownSchemaVersion)
	}
	return rule.Decode(rec)
}

func (d *Descriptor[T]) sameType(other ComponentType) bool {
	_, ok := other.(*Descriptor[T])
	return ok
}
