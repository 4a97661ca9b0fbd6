package entity

import "context"

// Key identifies a row within its entity type. Keys must be comparable
// (strings, integers, or a comparable struct for composite keys) and must
// not change for the lifetime of the row.
type Key = any

// Fetcher retrieves raw attribute values for one row from backing storage.
// It is the only way the entity layer touches storage.
//
// The entity layer issues two shapes of call: all non-lazy attributes when an
// instance is first materialized, and exactly one attribute when a lazy
// attribute is read for the first time. A Fetcher must return at most the
// requested attributes; in strict mode, extra attributes on a single
// attribute fetch fail the load with ErrInternal.
//
// Missing rows must be reported as ErrNotFound (possibly wrapped).
type Fetcher interface {
	Fetch(ctx context.Context, entityType string, key Key, attributes []string) (map[string]any, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, entityType string, key Key, attributes []string) (map[string]any, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, entityType string, key Key, attributes []string) (map[string]any, error) {
	return f(ctx, entityType, key, attributes)
}
