package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
)

// VersionField is the record field holding the schema version.
const VersionField = "version"

// Record is the encoded form of one component: a flat mapping of field names
// to plain values (strings, numbers, bools, slices and nested records).
// Records decoded by the JSON codec carry json.Number values; records decoded
// by the YAML codec carry native integers. The accessors accept both.
type Record map[string]any

// Has reports whether field is present.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Version returns the schema version stored in the record. A non-negative
// integer too large for any registered version wraps ErrUnknownSchemaVersion;
// anything else that is not a non-negative integer wraps ErrMalformedPayload.
func (r Record) Version() (int, error) {
	v, err := r.Int64(VersionField)
	if err != nil {
		if hugeUnsigned(r[VersionField]) {
			return 0, fmt.Errorf("field %q: version %v: %w", VersionField, r[VersionField], ErrUnknownSchemaVersion)
		}
		return 0, err
	}
	switch {
	case v < 0:
		return 0, fmt.Errorf("field %q: negative version %d: %w", VersionField, v, ErrMalformedPayload)
	case v > math.MaxInt32:
		return 0, fmt.Errorf("field %q: version %d: %w", VersionField, v, ErrUnknownSchemaVersion)
	}
	return int(v), nil
}

// String returns a required string field.
func (r Record) String(field string) (string, error) {
	raw, err := r.field(field)
	if err != nil {
		return "", err
	}
	s, ok := raw.(string)
	if !ok {
		return "", mistyped(field, "string", raw)
	}
	return s, nil
}

// Int64 returns a required integer field.
func (r Record) Int64(field string) (int64, error) {
	raw, err := r.field(field)
	if err != nil {
		return 0, err
	}
	v, ok := toInt64(raw)
	if !ok {
		return 0, mistyped(field, "integer", raw)
	}
	return v, nil
}

// Int64s returns a required list of integers. An empty list is valid.
func (r Record) Int64s(field string) ([]int64, error) {
	raw, err := r.field(field)
	if err != nil {
		return nil, err
	}
	switch list := raw.(type) {
	case []int64:
		return append([]int64(nil), list...), nil
	case []any:
		out := make([]int64, 0, len(list))
		for i, item := range list {
			v, ok := toInt64(item)
			if !ok {
				return nil, mistyped(fmt.Sprintf("%s[%d]", field, i), "integer", item)
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, mistyped(field, "list", raw)
	}
}

// Strings returns a required list of strings. An empty list is valid.
func (r Record) Strings(field string) ([]string, error) {
	raw, err := r.field(field)
	if err != nil {
		return nil, err
	}
	switch list := raw.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, mistyped(fmt.Sprintf("%s[%d]", field, i), "string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, mistyped(field, "list", raw)
	}
}

func (r Record) field(field string) (any, error) {
	raw, ok := r[field]
	if !ok {
		return nil, fmt.Errorf("missing field %q: %w", field, ErrMalformedPayload)
	}
	if raw == nil {
		return nil, fmt.Errorf("field %q is null: %w", field, ErrMalformedPayload)
	}
	return raw, nil
}

func mistyped(field, want string, got any) error {
	return fmt.Errorf("field %q: expected %s, got %T: %w", field, want, got, ErrMalformedPayload)
}

// hugeUnsigned reports whether raw is an integer above math.MaxInt64.
func hugeUnsigned(raw any) bool {
	switch v := raw.(type) {
	case json.Number:
		n, ok := new(big.Int).SetString(v.String(), 10)
		return ok && n.Sign() > 0
	case uint64:
		return v > math.MaxInt64
	default:
		return false
	}
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
