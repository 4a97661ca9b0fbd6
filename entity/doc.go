// Package entity provides a session-scoped identity map with per-attribute
// lazy loading for database-mapped rows.
//
// Loam is the in-memory half of a data mapper: it keeps exactly one live
// [Instance] per (entity type, primary key) within a [Session], tracks per
// attribute whether a value has been loaded, and defers fetching of lazy
// attributes until they are first read. Storage access goes through a single
// narrow [Fetcher] interface; SQL generation, schema DDL, and transaction
// mechanics live elsewhere.
//
// # Key Guarantees
//
//   - Identity: two Gets for the same key in one session return the same
//     pointer, never a copy
//   - Eager completeness: every non-lazy attribute is loaded immediately
//     after materialization
//   - Load-once: a lazy attribute is fetched at most once per instance,
//     even under concurrent first reads
//   - Isolation: loading an attribute on one instance never changes the
//     loaded state of any other instance
//   - No partial writes: a failed lazy load leaves the value store
//     untouched, so the next read retries
//
// # Declaring Types
//
// Attribute descriptors are plain values compiled into a [Type] at
// registration time:
//
//	user := entity.MustType("user",
//	    entity.Attribute{Name: "name", Kind: entity.KindString, Required: true},
//	    entity.Attribute{Name: "bio", Kind: entity.KindString, Lazy: true},
//	)
//	registry := entity.NewRegistry()
//	if err := registry.Register(user); err != nil {
//	    // duplicate type name
//	}
//
// # Sessions
//
// A Session is one unit of work. Its identity map lives exactly as long as
// the session does — there is no cross-session caching:
//
//	sess := entity.Open(registry, fetcher, entity.DefaultConfig())
//	defer sess.Close()
//
//	u, err := sess.Get(ctx, "user", 42)   // eager fetch, registers instance
//	bio, err := u.Get(ctx, "bio")         // first read triggers a lazy fetch
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - no row for the key
//   - [ErrDuplicateKey] - New for a key with a live instance
//   - [ErrUnknownType], [ErrUnknownAttribute] - undeclared type or attribute
//   - [ErrDuplicateAttribute], [ErrDuplicateType] - bad registration
//   - [ErrMissingAttribute], [ErrValueKind] - value does not satisfy the declaration
//   - [ErrSessionClosed] - operation after Close
//   - [ErrInternal] - broken invariant; a bug, not bad input
package entity
