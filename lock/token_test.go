package lock

import (
	"testing"
	"time"
)

func TestToken_Equal(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := Token{Who: "alice", When: now}
	b := Token{Who: "alice", When: now}
	if !a.Equal(b) {
		t.Fatalf("expected equal tokens, got a=%v b=%v", a, b)
	}
}

func TestToken_NotEqualDifferentOwner(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := Token{Who: "alice", When: now}
	b := Token{Who: "bob", When: now}
	if a.Equal(b) {
		t.Fatalf("tokens with different owners must not be equal")
	}
}

func TestToken_EqualSurvivesJSONRoundTrip(t *testing.T) {
	t.Parallel()

	orig := New("alice")

	data, err := encodeToken(orig)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeToken(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !orig.Equal(decoded) {
		t.Fatalf("token did not survive round-trip: orig=%v decoded=%v", orig, decoded)
	}
}

func TestOutcome_TypeSwitchIsExhaustive(t *testing.T) {
	t.Parallel()

	var outcomes = []Outcome[int]{
		Success[int]{Lock: New("alice"), Item: 1},
		AlreadyLocked{Who: "bob"},
	}

	for _, o := range outcomes {
		switch v := o.(type) {
		case Success[int]:
			if v.Item != 1 {
				t.Fatalf("unexpected item %v", v.Item)
			}
		case AlreadyLocked:
			if v.Who != "bob" {
				t.Fatalf("unexpected owner %v", v.Who)
			}
		default:
			t.Fatalf("unhandled outcome variant %T", o)
		}
	}
}

func TestNewOutcome_AdmitsAlreadyExists(t *testing.T) {
	t.Parallel()

	var o NewOutcome[int] = AlreadyExists{}
	if _, ok := o.(AlreadyExists); !ok {
		t.Fatalf("expected AlreadyExists variant")
	}
}
