package storageid

import (
	"fmt"
	"strconv"
)

// SequentialID is a non-negative integer identifier. generate_new(prev)
// returns prev+1, or 1 when there is no prior ID.
type SequentialID uint64

func (s SequentialID) String() string { return strconv.FormatUint(uint64(s), 10) }

func (s SequentialID) Less(other ID) bool {
	o, ok := other.(SequentialID)
	if !ok {
		return s.String() < other.String()
	}
	return s < o
}

func (s SequentialID) Equal(other ID) bool {
	o, ok := other.(SequentialID)
	return ok && s == o
}

// NumericValue implements storageid.Numeric.
func (s SequentialID) NumericValue() float64 { return float64(s) }

// ParseSequentialID parses s as a base-10 unsigned integer.
func ParseSequentialID(s string) (SequentialID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("storageid: invalid sequential id %q: %w", s, err)
	}
	return SequentialID(n), nil
}

// GenerateSequentialID returns prev+1, or 1 when prev is nil.
func GenerateSequentialID(prev *SequentialID) SequentialID {
	if prev == nil {
		return 1
	}
	return *prev + 1
}
