// Package storage defines the uniform Storage contract every backend
// (filesystem, remote-database, null) implements, plus the error type used
// to report true failures. Outcomes that are not failures — AlreadyLocked,
// AlreadyExists — travel through lock.Outcome/lock.NewOutcome instead.
package storage

import (
	"context"

	"github.com/andreasom/oml-storage-go/lock"
	"github.com/andreasom/oml-storage-go/storageid"
	"github.com/andreasom/oml-storage-go/storageitem"
)

// Storage is the operation surface every backend realizes, parameterized on
// the concrete ID variant and item type in use. Every method takes a
// context as its first parameter and honors cancellation at suspension
// points, per the teacher's convention for store methods.
type Storage[ID storageid.ID, I storageitem.Item[ID]] interface {
	// EnsureStorageExists performs one-shot, idempotent initialization of
	// the backing substrate.
	EnsureStorageExists(ctx context.Context) error

	// Create returns a fresh identifier not currently present, without
	// materializing an item or reserving the key. Callers follow up with
	// Lock or LockNew.
	Create(ctx context.Context) (ID, error)

	// Exists reports whether id is present: either its payload record or
	// its lock record exists (I3).
	Exists(ctx context.Context, id ID) (bool, error)

	// Load deserializes the payload record. Fails with ErrNotFound if
	// absent. Does not take a lock.
	Load(ctx context.Context, id ID) (I, error)

	// Save verifies token against the recorded lock and, if it matches,
	// writes item. Fails with ErrLockInvalid on mismatch. Save is the only
	// way to persist a mutation.
	Save(ctx context.Context, id ID, item I, token lock.Token) error

	// Lock attempts to acquire exclusive access to id. If no payload exists,
	// it returns the item's default value without persisting it.
	Lock(ctx context.Context, id ID, who string) (lock.Outcome[I], error)

	// LockNew is like Lock but refuses to return an existing item.
	LockNew(ctx context.Context, id ID, who string) (lock.NewOutcome[I], error)

	// Unlock verifies token and removes the lock record. Fails with
	// ErrLockInvalid on mismatch. Does not touch the payload.
	Unlock(ctx context.Context, id ID, token lock.Token) error

	// ForceUnlock removes the lock record regardless of ownership. Fails
	// with ErrNotLocked if absent.
	ForceUnlock(ctx context.Context, id ID) error

	// VerifyLock reports whether a lock record exists and structurally
	// equals token. A false result is not an error.
	VerifyLock(ctx context.Context, id ID, token lock.Token) (bool, error)

	// AllIDs enumerates all present keys. Best-effort; may be expensive.
	AllIDs(ctx context.Context) ([]ID, error)

	// ScanIDs performs paginated enumeration. start is an opaque
	// continuation token from a prior call, or nil to start from the
	// beginning. next is nil when the scan reached the end.
	ScanIDs(ctx context.Context, start *string, limit int) (ids []ID, next *string, err error)

	// DisplayLock renders a human-readable description of the current
	// lock, or "" if none. Debugging only.
	DisplayLock(ctx context.Context, id ID) (string, error)

	// MetadataHighestSeenID reports the maximum ID observed by this
	// instance since startup, or nil if none has been observed.
	MetadataHighestSeenID(ctx context.Context) (*ID, error)

	// Wipe deletes every item and lock record iff confirmation equals the
	// fixed confirmation phrase.
	Wipe(ctx context.Context, confirmation string) error
}

// WipeConfirmationPhrase is the literal phrase Wipe requires.
const WipeConfirmationPhrase = "Yes, I know what I am doing!"

// MaxCreateAttempts bounds the ID-generation retry loop in Create.
const MaxCreateAttempts = 10
