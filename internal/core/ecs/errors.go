package ecs

import "errors"

var (
	// Entity errors

	ErrEntityNotFound = errors.New("entity not found")
	ErrZeroEntity     = errors.New("zero entity handle")

	// Component errors

	ErrComponentNotRegistered     = errors.New("component not registered")
	ErrComponentAlreadyRegistered = errors.New("component already registered")
	ErrComponentTypeMismatch      = errors.New("component value has wrong type")
	ErrEmptyComponentTag          = errors.New("component tag is empty")

	// Staging errors

	ErrStagingMismatch = errors.New("staging store does not match target layout")
)
