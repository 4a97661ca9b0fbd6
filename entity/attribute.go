package entity

import "time"

// Kind identifies the declared value type of an attribute.
type Kind int

const (
	// KindAny accepts any value. Useful for attributes whose column type
	// is not known to the mapping layer.
	KindAny Kind = iota

	// KindString accepts string values.
	KindString

	// KindInt accepts any integer value (signed or unsigned).
	KindInt

	// KindFloat accepts float32 and float64 values.
	KindFloat

	// KindBool accepts bool values.
	KindBool

	// KindBytes accepts []byte values.
	KindBytes

	// KindTime accepts time.Time values.
	KindTime
)

// String returns the kind name for logging and error messages.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	}
	return "unknown"
}

// Attribute describes one column of an entity type. Attributes are pure
// metadata: they are registered once per type via NewType and shared,
// unmodified, by every instance of that type.
type Attribute struct {
	// Name is the attribute identifier, unique within the owning type.
	Name string

	// Kind is the declared value type. Values that do not match the kind
	// are rejected on write and on fetch with ErrValueKind.
	Kind Kind

	// Required marks the attribute as non-nullable. A nil value for a
	// required attribute is rejected with ErrMissingAttribute.
	Required bool

	// Lazy excludes the attribute from the eager fetch performed when an
	// instance is first materialized. It is loaded on first read instead,
	// one attribute and one instance at a time.
	Lazy bool
}

// matches reports whether value conforms to the attribute's kind.
// Nil is handled by the caller, which knows whether the attribute is required.
func (a Attribute) matches(value any) bool {
	if value == nil {
		return true
	}
	switch a.Kind {
	case KindAny:
		return true
	case KindString:
		_, ok := value.(string)
		return ok
	case KindInt:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case KindFloat:
		switch value.(type) {
		case float32, float64:
			return true
		}
		return false
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindBytes:
		_, ok := value.([]byte)
		return ok
	case KindTime:
		_, ok := value.(time.Time)
		return ok
	}
	return false
}
