package entity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jacentio/loam/internal/ref"
)

// ident is the identity-map key for one row.
type ident struct {
	typeName string
	key      Key
}

// Session is one unit of work: an identity map over entity instances plus the
// lazy loader that fills their attribute values on demand. The map's lifetime
// equals the session's — nothing is cached across sessions, and Close
// discards all instances.
//
// Sessions are safe for concurrent use. Materialization of an unseen key and
// the first read of a lazy attribute are each deduplicated, so concurrent
// callers share one fetch and observe one instance.
type Session struct {
	id       string
	registry *Registry
	fetcher  Fetcher
	config   Config
	logger   *slog.Logger

	mu       sync.RWMutex
	entities map[ident]*Instance
	closed   bool

	rows  singleflight.Group // materialization, keyed per (type, key)
	loads singleflight.Group // lazy loads, keyed per (instance, attribute)
}

// Open starts a new session over the given registry and fetcher.
func Open(registry *Registry, fetcher Fetcher, config Config) *Session {
	config.validate()
	s := &Session{
		id:       uuid.New().String(),
		registry: registry,
		fetcher:  fetcher,
		config:   config,
		logger:   config.Logger,
		entities: make(map[ident]*Instance),
	}
	s.logger.Debug("session opened", "session", s.id)
	return s
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// Registry returns the entity type registry this session was opened with.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Get returns the live instance for (entityType, key), materializing it on
// first use. A cached instance is returned as-is with no fetch. Otherwise the
// non-lazy attributes are fetched, a fresh instance is registered, and every
// later Get for the same key returns that same instance for the session's
// lifetime. Concurrent Gets for an unseen key perform exactly one fetch.
func (s *Session) Get(ctx context.Context, entityType string, key Key) (*Instance, error) {
	if inst, ok := s.Lookup(entityType, key); ok {
		return inst, nil
	}
	if err := s.check(); err != nil {
		return nil, err
	}

	v, err, _ := s.rows.Do(ref.Ident(entityType, key), func() (any, error) {
		return s.materialize(ctx, entityType, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Instance), nil
}

// Lookup returns the cached instance for (entityType, key) if one is live.
// It never fetches and never materializes.
func (s *Session) Lookup(entityType string, key Key) (*Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.entities[ident{typeName: entityType, key: key}]
	return inst, ok
}

// New registers an application-created row that has no backing row yet.
// All attributes, lazy or not, are set from vals: there is nothing to defer
// to, so omitted optional attributes are installed as NULL and omitted
// required attributes fail with ErrMissingAttribute. Fails with
// ErrDuplicateKey if the key already has a live instance.
func (s *Session) New(entityType string, key Key, vals map[string]any) (*Instance, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	t, ok := s.registry.Type(entityType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, entityType)
	}
	for name := range vals {
		if _, ok := t.Attribute(name); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, entityType, name)
		}
	}

	inst := &Instance{typ: t, key: key, vals: newValues(), session: s}
	for _, attr := range t.Attributes() {
		val := vals[attr.Name]
		if err := checkValue(entityType, attr, val); err != nil {
			return nil, err
		}
		inst.vals.set(attr.Name, val)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	id := ident{typeName: entityType, key: key}
	if _, exists := s.entities[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, inst.EntityRef())
	}
	s.entities[id] = inst
	return inst, nil
}

// Evict removes the instance for (entityType, key) from the identity map,
// reporting whether one was present. Used on row deletion: a later Get
// materializes an entirely new instance and never resurrects the old one.
// References already handed out keep their loaded values but are no longer
// reachable through the session.
func (s *Session) Evict(entityType string, key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ident{typeName: entityType, key: key}
	if _, ok := s.entities[id]; !ok {
		return false
	}
	delete(s.entities, id)
	s.logger.Debug("evicted entity", "session", s.id, "ref", ref.Entity(entityType, key))
	return true
}

// Len returns the number of live instances in the identity map.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Close ends the unit of work and discards the identity map. All further
// session operations, including lazy loads on instances obtained earlier,
// fail with ErrSessionClosed. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	count := len(s.entities)
	s.entities = nil
	s.logger.Debug("session closed", "session", s.id, "entities", count)
}

// check returns ErrSessionClosed once Close has run.
func (s *Session) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// materialize fetches the non-lazy attributes for a key and registers a
// fresh instance. Runs inside the per-ref singleflight, so at most one
// materialization is in flight per key.
func (s *Session) materialize(ctx context.Context, entityType string, key Key) (*Instance, error) {
	// Re-check under the flight: a racing materialization or New may have won.
	if inst, ok := s.Lookup(entityType, key); ok {
		return inst, nil
	}

	t, ok := s.registry.Type(entityType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, entityType)
	}

	row, err := s.fetcher.Fetch(ctx, entityType, key, t.EagerNames())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref.Entity(entityType, key), err)
	}

	inst := &Instance{typ: t, key: key, vals: newValues(), session: s}
	for _, attr := range t.Attributes() {
		if attr.Lazy {
			// Deliberately left unset even if the fetcher returned it:
			// lazy attributes are loaded on first read only.
			continue
		}
		val := row[attr.Name]
		if err := checkValue(entityType, attr, val); err != nil {
			return nil, err
		}
		inst.vals.set(attr.Name, val)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	id := ident{typeName: entityType, key: key}
	if existing, exists := s.entities[id]; exists {
		// New raced ahead of us; the identity map wins.
		return existing, nil
	}
	s.entities[id] = inst
	return inst, nil
}

// load resolves one lazy-attribute miss for one instance. It fetches exactly
// that attribute for exactly that row — loading x1.b never touches x2.b —
// and installs the result before returning. On failure the value store is
// left unchanged, so the next read retries the fetch.
func (s *Session) load(ctx context.Context, inst *Instance, attr Attribute) (any, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if !attr.Lazy {
		return nil, fmt.Errorf("%w: eager attribute %s.%s reached the lazy loader", ErrInternal, inst.typ.name, attr.Name)
	}

	// The flight is scoped to this instance, not to the row: after an Evict,
	// a stale instance and its replacement must never share a load, or the
	// loser would return a value its own value store never received.
	flight := fmt.Sprintf("%p#%s", inst, attr.Name)
	v, err, _ := s.loads.Do(flight, func() (any, error) {
		// A concurrent load or an explicit write may have filled it already.
		if val, loaded := inst.vals.get(attr.Name); loaded {
			return val, nil
		}

		row, err := s.fetcher.Fetch(ctx, inst.typ.name, inst.key, []string{attr.Name})
		if err != nil {
			return nil, fmt.Errorf("load %s.%s: %w", inst.EntityRef(), attr.Name, err)
		}
		if s.config.Strict {
			for name := range row {
				if name != attr.Name {
					return nil, fmt.Errorf("%w: fetcher returned %q while loading %s.%s", ErrInternal, name, inst.EntityRef(), attr.Name)
				}
			}
		}

		val := row[attr.Name]
		if err := checkValue(inst.typ.name, attr, val); err != nil {
			return nil, err
		}

		inst.vals.set(attr.Name, val)
		s.logger.Debug("loaded lazy attribute",
			"session", s.id,
			"ref", inst.EntityRef(),
			"attribute", attr.Name,
		)
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
