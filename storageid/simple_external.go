package storageid

import "fmt"

// SimpleExternalID is an opaque, externally-supplied identifier with no
// internal structure beyond being non-empty.
type SimpleExternalID string

func (s SimpleExternalID) String() string { return string(s) }

func (s SimpleExternalID) Less(other ID) bool {
	o, ok := other.(SimpleExternalID)
	if !ok {
		return s.String() < other.String()
	}
	return s < o
}

func (s SimpleExternalID) Equal(other ID) bool {
	o, ok := other.(SimpleExternalID)
	return ok && s == o
}

// ParseSimpleExternalID requires s to be non-empty.
func ParseSimpleExternalID(s string) (SimpleExternalID, error) {
	if s == "" {
		return "", fmt.Errorf("storageid: simple external id must not be empty")
	}
	return SimpleExternalID(s), nil
}

// GenerateSimpleExternalID always returns the sentinel "default": identity
// is externally supplied, not generated.
func GenerateSimpleExternalID(prev *SimpleExternalID) SimpleExternalID {
	return SimpleExternalID("default")
}
