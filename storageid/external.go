package storageid

import (
	"fmt"
	"strings"
)

// ExternalID is an identifier whose identity originates outside this
// library: a non-empty prefix and a non-empty body, joined by ':' in its
// textual form. Because the identity is externally supplied, generate_new
// cannot produce a meaningful next value and returns a fixed sentinel.
type ExternalID struct {
	Prefix string
	Body   string
}

func (e ExternalID) String() string { return e.Prefix + ":" + e.Body }

func (e ExternalID) Less(other ID) bool {
	return e.String() < other.String()
}

func (e ExternalID) Equal(other ID) bool {
	o, ok := other.(ExternalID)
	return ok && e == o
}

// defaultExternalID is the sentinel returned by GenerateExternalID, mirroring
// the source's Default impl. It is not a valid externally-issued id; callers
// that hit it should treat generation as unsupported for this variant.
var defaultExternalID = ExternalID{Prefix: "unknown", Body: "default"}

// ParseExternalID splits s on the first ':' and requires both halves to be
// non-empty: "a:b" parses; "a", "a:", and ":b" all fail.
func ParseExternalID(s string) (ExternalID, error) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 || idx == len(s)-1 {
		return ExternalID{}, fmt.Errorf("storageid: invalid external id %q: want \"prefix:body\" with both non-empty", s)
	}
	return ExternalID{Prefix: s[:idx], Body: s[idx+1:]}, nil
}

// GenerateExternalID always returns the sentinel default: external
// identifiers are supplied by the caller, not generated by this library.
func GenerateExternalID(prev *ExternalID) ExternalID {
	return defaultExternalID
}
