package entity

import "fmt"

// Type is the compiled schema of one entity type: a fixed set of attribute
// descriptors resolved at registration time. Attribute lookup is a direct
// map access, not reflection.
type Type struct {
	name  string
	attrs map[string]Attribute
	order []string
	eager []string
	lazy  []string
}

// NewType compiles a type from its attribute declarations.
// It fails with ErrDuplicateAttribute if two attributes share a name.
func NewType(name string, attrs ...Attribute) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty type name", ErrConfiguration)
	}
	t := &Type{
		name:  name,
		attrs: make(map[string]Attribute, len(attrs)),
	}
	for _, a := range attrs {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: type %q has an attribute with an empty name", ErrConfiguration, name)
		}
		if _, exists := t.attrs[a.Name]; exists {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateAttribute, name, a.Name)
		}
		t.attrs[a.Name] = a
		t.order = append(t.order, a.Name)
		if a.Lazy {
			t.lazy = append(t.lazy, a.Name)
		} else {
			t.eager = append(t.eager, a.Name)
		}
	}
	return t, nil
}

// MustType is like NewType but panics on a configuration error.
// Intended for package-level type declarations.
func MustType(name string, attrs ...Attribute) *Type {
	t, err := NewType(name, attrs...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the entity type name.
func (t *Type) Name() string {
	return t.name
}

// Attribute returns the descriptor for the named attribute.
func (t *Type) Attribute(name string) (Attribute, bool) {
	a, ok := t.attrs[name]
	return a, ok
}

// Attributes returns all descriptors in declaration order.
func (t *Type) Attributes() []Attribute {
	result := make([]Attribute, 0, len(t.order))
	for _, name := range t.order {
		result = append(result, t.attrs[name])
	}
	return result
}

// EagerNames returns the names of all non-lazy attributes in declaration order.
// These form the attribute set of the initial row fetch.
func (t *Type) EagerNames() []string {
	return append([]string(nil), t.eager...)
}

// LazyNames returns the names of all lazy attributes in declaration order.
func (t *Type) LazyNames() []string {
	return append([]string(nil), t.lazy...)
}

// Registry holds all entity types known to a mapping configuration.
// Types are registered once, typically during program initialization,
// and the registry is read-only afterwards.
type Registry struct {
	types map[string]*Type
	order []string
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*Type),
	}
}

// Register adds a type to the registry.
// It fails with ErrDuplicateType if the type name is already taken.
func (r *Registry) Register(t *Type) error {
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrConfiguration)
	}
	if _, exists := r.types[t.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, t.name)
	}
	r.types[t.name] = t
	r.order = append(r.order, t.name)
	return nil
}

// Type returns the registered type with the given name.
func (r *Registry) Type(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns all registered types in registration order.
func (r *Registry) Types() []*Type {
	result := make([]*Type, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.types[name])
	}
	return result
}
