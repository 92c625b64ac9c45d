package storageid

import (
	"fmt"

	"github.com/google/uuid"
)

// RandomID is an opaque identifier generated from a cryptographically
// adequate random source. Any non-empty string parses as a valid RandomID;
// the variant does not impose a particular textual shape on caller-supplied
// values, only on values it generates itself.
type RandomID string

func (r RandomID) String() string { return string(r) }

func (r RandomID) Less(other ID) bool {
	o, ok := other.(RandomID)
	if !ok {
		return r.String() < other.String()
	}
	return r < o
}

func (r RandomID) Equal(other ID) bool {
	o, ok := other.(RandomID)
	return ok && r == o
}

// ParseRandomID validates and wraps s as a RandomID. Any non-empty string is
// accepted (I4: make_id(id.to_string()) == id holds trivially).
func ParseRandomID(s string) (RandomID, error) {
	if s == "" {
		return "", fmt.Errorf("storageid: random id must not be empty")
	}
	return RandomID(s), nil
}

// GenerateRandomID produces a fresh RandomID. prev is ignored: random
// identifiers carry no generation state.
func GenerateRandomID(prev *RandomID) RandomID {
	return RandomID(uuid.NewString())
}
