package entity

import "errors"

var (
	// ErrConfiguration is returned for invalid type or registry declarations.
	ErrConfiguration = errors.New("loam: invalid configuration")

	// ErrDuplicateAttribute is returned when two attributes of one type share a name.
	ErrDuplicateAttribute = errors.New("loam: duplicate attribute name")

	// ErrDuplicateType is returned when a type name is registered twice.
	ErrDuplicateType = errors.New("loam: entity type already registered")

	// ErrUnknownType is returned when a session operation names an unregistered type.
	ErrUnknownType = errors.New("loam: unknown entity type")

	// ErrUnknownAttribute is returned on access to an attribute the type does not declare.
	ErrUnknownAttribute = errors.New("loam: unknown attribute")

	// ErrNotFound is returned when the fetcher finds no row for a key.
	// Fetcher implementations must return it (possibly wrapped) for missing rows.
	ErrNotFound = errors.New("loam: row not found")

	// ErrDuplicateKey is returned when a new instance is registered under a key
	// that already has a live instance in the session.
	ErrDuplicateKey = errors.New("loam: entity already registered for key")

	// ErrMissingAttribute is returned when a required attribute has no value.
	ErrMissingAttribute = errors.New("loam: required attribute missing")

	// ErrValueKind is returned when a value does not conform to the
	// attribute's declared kind.
	ErrValueKind = errors.New("loam: value does not match declared kind")

	// ErrSessionClosed is returned from all session operations after Close.
	ErrSessionClosed = errors.New("loam: session is closed")

	// ErrInternal indicates a broken invariant inside the entity layer or a
	// misbehaving fetcher, not bad user input. Callers should abort the
	// surrounding operation rather than retry.
	ErrInternal = errors.New("loam: internal consistency fault")
)
