// Package ref builds canonical references for entities and their attributes.
package ref

import "fmt"

// Entity returns the type-qualified reference for a row, e.g. "user#42".
// Keys are rendered with %v, so composite struct keys produce a stable
// reference as long as their field values are stable.
func Entity(entityType string, key any) string {
	return fmt.Sprintf("%s#%v", entityType, key)
}

// Ident returns the deduplication key for materializing a row. Unlike
// Entity it includes the key's dynamic type, so a type keyed by int(1)
// and one keyed by "1" never share a materialization.
func Ident(entityType string, key any) string {
	return fmt.Sprintf("%s#%T#%v", entityType, key, key)
}
