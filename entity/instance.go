package entity

import (
	"context"
	"fmt"

	"github.com/jacentio/loam/internal/ref"
)

// Instance is the in-memory representation of one persisted row. At most one
// live Instance exists per (type, key) within a session; all lookups through
// the session's identity map resolve to the same pointer.
//
// An Instance owns its value store exclusively. Reads of a lazy attribute
// that has not been fetched yet have the visible side effect of a
// single-attribute fetch through the session's Fetcher.
type Instance struct {
	typ     *Type
	key     Key
	vals    *values
	session *Session
}

// Type returns the entity type of this instance.
func (x *Instance) Type() *Type {
	return x.typ
}

// Key returns the primary key. Immutable once assigned.
func (x *Instance) Key() Key {
	return x.key
}

// EntityRef returns the type-qualified reference (e.g. "user#42").
func (x *Instance) EntityRef() string {
	return ref.Entity(x.typ.name, x.key)
}

// Get returns the value of the named attribute.
//
// A loaded attribute is returned straight from the value store with no side
// effects. An unloaded lazy attribute is fetched from storage first — one
// attribute, this instance only — and cached, so a second Get never fetches
// again. The caller never observes a "not loaded" state: Get returns either
// a value (nil means database NULL) or an error.
func (x *Instance) Get(ctx context.Context, name string) (any, error) {
	attr, ok := x.typ.Attribute(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, x.typ.name, name)
	}
	if val, loaded := x.vals.get(name); loaded {
		return val, nil
	}
	if !attr.Lazy {
		// Eager attributes are installed at construction and can only be
		// missing if that invariant was broken.
		return nil, fmt.Errorf("%w: eager attribute %s.%s is not loaded", ErrInternal, x.typ.name, name)
	}
	return x.session.load(ctx, x, attr)
}

// Set writes the value of the named attribute, marking it loaded whether or
// not it was ever fetched. The value must conform to the attribute's
// declared kind; nil is rejected for required attributes.
func (x *Instance) Set(name string, value any) error {
	attr, ok := x.typ.Attribute(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, x.typ.name, name)
	}
	if err := checkValue(x.typ.name, attr, value); err != nil {
		return err
	}
	x.vals.set(name, value)
	return nil
}

// IsLoaded reports whether the named attribute currently has a value in the
// value store, without triggering a fetch. Write-flush logic uses it to
// decide which attributes belong in an update statement.
func (x *Instance) IsLoaded(name string) (bool, error) {
	if _, ok := x.typ.Attribute(name); !ok {
		return false, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, x.typ.name, name)
	}
	return x.vals.contains(name), nil
}

// checkValue validates a value against an attribute's declaration.
func checkValue(typeName string, attr Attribute, value any) error {
	if value == nil {
		if attr.Required {
			return fmt.Errorf("%w: %s.%s", ErrMissingAttribute, typeName, attr.Name)
		}
		return nil
	}
	if !attr.matches(value) {
		return fmt.Errorf("%w: %s.%s expects %s, got %T", ErrValueKind, typeName, attr.Name, attr.Kind, value)
	}
	return nil
}
