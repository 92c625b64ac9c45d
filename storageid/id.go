// Package storageid defines the pluggable identifier abstraction shared by
// every storage backend: an opaque, orderable, serializable key type with
// generation and parsing.
package storageid

import "fmt"

// ID is the contract every identifier variant must satisfy: displayable,
// totally ordered, and comparable for equality. Concrete variants
// (RandomID, SequentialID, ExternalID, SimpleExternalID) are plain value
// types, not pointers, so they are cloneable by assignment.
type ID interface {
	fmt.Stringer

	// Less reports whether this ID sorts before other under the variant's
	// ordering (I5). Comparing across variants is undefined behavior; a
	// single item type must commit to exactly one ID variant.
	Less(other ID) bool

	// Equal reports structural equality with other.
	Equal(other ID) bool
}

// Numeric is an opt-in interface for ID variants that have a natural
// numeric form, for backends that want to publish the highest-seen-id
// tracker as a gauge. SequentialID implements it; RandomID, ExternalID,
// and SimpleExternalID do not.
type Numeric interface {
	NumericValue() float64
}
