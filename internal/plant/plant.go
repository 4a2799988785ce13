package plant

import (
	"fmt"
	"slices"
	"time"

	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/schema/registry"
)

const (
	// Tag names the plant component in snapshots.
	Tag = "plant"

	// EmptyDescription is stored when a plant is added without a description.
	EmptyDescription = "(Empty)"

	// nanosThreshold separates Unix seconds from Unix nanoseconds in version 1
	// records. The first release wrote raw clock ticks in nanoseconds.
	nanosThreshold = 1_000_000_000_000_000
)

// Version 1 timestamps outside [v1Earliest, v1Latest) are rejected. Clock
// ticks in any unit other than seconds or nanoseconds land outside it.
var (
	v1Earliest = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	v1Latest   = time.Date(2200, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Plant is the plant component.
type Plant struct {
	Key         string
	Description string
	// WateredAt holds watering times in the order they happened.
	WateredAt []time.Time
}

// LastWatered returns the most recent watering time.
func (p Plant) LastWatered() (time.Time, bool) {
	if len(p.WateredAt) == 0 {
		return time.Time{}, false
	}
	return p.WateredAt[len(p.WateredAt)-1], true
}

// Clone returns a copy that shares no memory with p.
func (p Plant) Clone() Plant {
	p.WateredAt = slices.Clone(p.WateredAt)
	if p.WateredAt == nil {
		p.WateredAt = []time.Time{}
	}
	return p
}

// Descriptor returns the schema descriptor of the plant component.
//
//	v1: key, description, watered_at as integer Unix seconds or nanoseconds
//	    (values from 1e15 up are nanoseconds). Files holding clock ticks of
//	    another unit, such as 100 ns Windows ticks, decode to dates before 2000
//	    and are rejected as malformed.
//	v2: key, description (watering history was not recorded)
//	v3: key, description, watered_at as RFC 3339 strings
func Descriptor() *registry.Descriptor[Plant] {
	return &registry.Descriptor[Plant]{
		Tag:     Tag,
		First:   1,
		Current: 3,
		Encode:  encode,
		Rules: map[int]registry.Rule[Plant]{
			1: {Decode: decodeV1},
			2: {Decode: decodeV2, Defaults: []string{"watered_at"}},
			3: {Decode: decodeV3},
		},
	}
}

// Register binds the plant descriptor to reg and returns the plant pool of store.
func Register(reg *registry.Registry, store *ecs.Store) (*ecs.Pool[Plant], error) {
	return registry.Bind(reg, store, Descriptor())
}

func encode(p Plant) (registry.Record, error) {
	watered := make([]string, 0, len(p.WateredAt))
	for _, t := range p.WateredAt {
		watered = append(watered, t.UTC().Format(time.RFC3339Nano))
	}
	return registry.Record{
		"key":         p.Key,
		"description": p.Description,
		"watered_at":  watered,
	}, nil
}

func decodeHeader(rec registry.Record) (Plant, error) {
	key, err := rec.String("key")
	if err != nil {
		return Plant{}, err
	}
	description, err := rec.String("description")
	if err != nil {
		return Plant{}, err
	}
	return Plant{Key: key, Description: description}, nil
}

func decodeV1(rec registry.Record) (Plant, error) {
	p, err := decodeHeader(rec)
	if err != nil {
		return Plant{}, err
	}
	raw, err := rec.Int64s("watered_at")
	if err != nil {
		return Plant{}, err
	}

	p.WateredAt = make([]time.Time, 0, len(raw))
	for i, v := range raw {
		if v < 0 {
			return Plant{}, fmt.Errorf("field \"watered_at[%d]\": negative timestamp %d: %w", i, v, registry.ErrMalformedPayload)
		}
		var at time.Time
		if v >= nanosThreshold {
			at = time.Unix(0, v).UTC()
		} else {
			at = time.Unix(v, 0).UTC()
		}
		if at.Before(v1Earliest) || !at.Before(v1Latest) {
			return Plant{}, fmt.Errorf("field \"watered_at[%d]\": timestamp %d decodes to %s: %w", i, v, at.Format(time.RFC3339), registry.ErrMalformedPayload)
		}
		p.WateredAt = append(p.WateredAt, at)
	}
	return p, nil
}

func decodeV2(rec registry.Record) (Plant, error) {
	p, err := decodeHeader(rec)
	if err != nil {
		return Plant{}, err
	}
	p.WateredAt = []time.Time{}
	return p, nil
}

func decodeV3(rec registry.Record) (Plant, error) {
	p, err := decodeHeader(rec)
	if err != nil {
		return Plant{}, err
	}
	raw, err := rec.Strings("watered_at")
	if err != nil {
		return Plant{}, err
	}

	p.WateredAt = make([]time.Time, 0, len(raw))
	for i, s := range raw {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Plant{}, fmt.Errorf("field \"watered_at[%d]\": %w: %w", i, registry.ErrMalformedPayload, err)
		}
		p.WateredAt = append(p.WateredAt, t.UTC())
	}
	return p, nil
}
