// Package storageitem defines the generic payload contract: a caller-defined
// record that knows only how to serialize itself. Everything else a backend
// needs (a default value, a deserializer, an ID generator/parser) is
// supplied alongside the item type as plain function values, since Go
// interfaces cannot express "return Self" the way the original trait's
// associated functions could.
package storageitem

import "github.com/andreasom/oml-storage-go/storageid"

// Item is the contract a payload type must satisfy to be storable under a
// given ID variant. Items are opaque to the storage layer beyond this
// surface.
type Item[ID storageid.ID] interface {
	// Serialize returns the byte-level representation to persist.
	Serialize() ([]byte, error)
}
