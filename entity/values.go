package entity

import "sync"

// values is the per-instance record of loaded attribute values.
// Presence of a name means the attribute is loaded, even when the stored
// value is nil (a database NULL). Absence means "not yet fetched", which is
// a valid state only for lazy attributes.
//
// values never fetches: reads are side-effect free, and only the session's
// lazy loader, eager construction, and explicit writes mutate it. Safe for
// concurrent use so that independent lazy loads on one instance do not
// serialize against each other.
type values struct {
	mu sync.RWMutex
	m  map[string]any
}

func newValues() *values {
	return &values{m: make(map[string]any)}
}

// get returns the stored value and whether the attribute is loaded.
func (v *values) get(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.m[name]
	return val, ok
}

// set stores a value, marking the attribute loaded.
func (v *values) set(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.m[name] = value
}

// contains reports whether the attribute is loaded, without reading it.
func (v *values) contains(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.m[name]
	return ok
}

// len returns the number of loaded attributes.
func (v *values) len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.m)
}
