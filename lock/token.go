// Package lock defines the lock token and the outcome types returned by a
// Storage backend's Lock and LockNew operations.
package lock

import "time"

// Token is the (who, when) pair identifying a lock's owner and acquisition
// instant. Tokens are inert values, not handles: holding a Token does not by
// itself guarantee anything, it is only meaningful when presented back to
// Save, Unlock, or VerifyLock for structural comparison against the
// currently-recorded lock.
type Token struct {
	Who  string    `json:"who"`
	When time.Time `json:"when"`
}

// Equal reports structural equality: same owner, same instant. Comparison
// uses time.Time.Equal rather than == so that tokens surviving a JSON
// round-trip (which discards the monotonic reading) still compare true
// against an in-memory token for the same instant.
func (t Token) Equal(other Token) bool {
	return t.Who == other.Who && t.When.Equal(other.When)
}

// New constructs a fresh token for who, stamped with the current time.
func New(who string) Token {
	return Token{Who: who, When: time.Now()}
}

// Display renders a human-readable description of the token, used by
// Storage.DisplayLock.
func (t Token) Display() string {
	return "Locked by " + t.Who + " at " + t.When.Format(time.RFC3339)
}
