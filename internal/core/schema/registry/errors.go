package registry

import "errors"

var (
	// Registration errors

	ErrInvalidDescriptor     = errors.New("invalid component descriptor")
	ErrTypeAlreadyRegistered = errors.New("component type already registered at this version")
	ErrVersionRegression     = errors.New("component type re-registered with an older version")
	ErrTypeMismatch          = errors.New("component type re-registered with a different value type")

	// Lookup errors

	ErrUnknownComponentType = errors.New("unknown component type")
	ErrValueTypeMismatch    = errors.New("value does not match component type")

	// Decode errors

	ErrUnknownSchemaVersion = errors.New("unknown schema version")
	ErrMalformedPayload     = errors.New("malformed component payload")
)
