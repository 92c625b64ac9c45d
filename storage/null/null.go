// Package null implements a trivial no-op Storage backend: every operation
// succeeds with a default value. Intended for defaults, tests, and
// dry-runs, grounded on the source's StorageNull.
package null

import (
	"context"
	"sync/atomic"

	"github.com/andreasom/oml-storage-go/internal/logger"
	"github.com/andreasom/oml-storage-go/lock"
	"github.com/andreasom/oml-storage-go/storage"
	"github.com/andreasom/oml-storage-go/storageid"
	"github.com/andreasom/oml-storage-go/storageitem"
)

// Storage is the null backend. It implements storage.Storage[ID, I].
type Storage[ID storageid.ID, I storageitem.Item[ID]] struct {
	newDefault func() I
	generateID func(prev *ID) ID
	parseID    func(string) (ID, error)

	warnOnUse atomic.Bool
}

// New constructs a null backend. newDefault produces the default item
// value; generateID/parseID back Create and AllIDs/ScanIDs respectively,
// though the null backend never actually needs to parse a persisted id.
func New[ID storageid.ID, I storageitem.Item[ID]](
	newDefault func() I,
	generateID func(prev *ID) ID,
	parseID func(string) (ID, error),
) *Storage[ID, I] {
	return &Storage[ID, I]{newDefault: newDefault, generateID: generateID, parseID: parseID}
}

// EnableWarningsOnUse turns on a best-effort warning log for every
// invocation, useful for catching accidental production use of the null
// backend.
func (s *Storage[ID, I]) EnableWarningsOnUse() {
	s.warnOnUse.Store(true)
}

func (s *Storage[ID, I]) maybeWarn(op string) {
	if s.warnOnUse.Load() {
		logger.Warn("null backend invoked", logger.Operation(op))
	}
}

func (s *Storage[ID, I]) EnsureStorageExists(ctx context.Context) error {
	s.maybeWarn("EnsureStorageExists")
	return nil
}

func (s *Storage[ID, I]) Create(ctx context.Context) (ID, error) {
	s.maybeWarn("Create")
	return s.generateID(nil), nil
}

func (s *Storage[ID, I]) Exists(ctx context.Context, id ID) (bool, error) {
	s.maybeWarn("Exists")
	return false, nil
}

func (s *Storage[ID, I]) Load(ctx context.Context, id ID) (I, error) {
	s.maybeWarn("Load")
	return s.newDefault(), nil
}

func (s *Storage[ID, I]) Save(ctx context.Context, id ID, item I, token lock.Token) error {
	s.maybeWarn("Save")
	return nil
}

func (s *Storage[ID, I]) Lock(ctx context.Context, id ID, who string) (lock.Outcome[I], error) {
	s.maybeWarn("Lock")
	return lock.Success[I]{Lock: lock.New(who), Item: s.newDefault()}, nil
}

func (s *Storage[ID, I]) LockNew(ctx context.Context, id ID, who string) (lock.NewOutcome[I], error) {
	s.maybeWarn("LockNew")
	return lock.Success[I]{Lock: lock.New(who), Item: s.newDefault()}, nil
}

func (s *Storage[ID, I]) Unlock(ctx context.Context, id ID, token lock.Token) error {
	s.maybeWarn("Unlock")
	return nil
}

func (s *Storage[ID, I]) ForceUnlock(ctx context.Context, id ID) error {
	s.maybeWarn("ForceUnlock")
	return nil
}

func (s *Storage[ID, I]) VerifyLock(ctx context.Context, id ID, token lock.Token) (bool, error) {
	s.maybeWarn("VerifyLock")
	return true, nil
}

func (s *Storage[ID, I]) AllIDs(ctx context.Context) ([]ID, error) {
	s.maybeWarn("AllIDs")
	return nil, nil
}

func (s *Storage[ID, I]) ScanIDs(ctx context.Context, start *string, limit int) ([]ID, *string, error) {
	s.maybeWarn("ScanIDs")
	return nil, nil, nil
}

func (s *Storage[ID, I]) DisplayLock(ctx context.Context, id ID) (string, error) {
	s.maybeWarn("DisplayLock")
	return "", nil
}

func (s *Storage[ID, I]) MetadataHighestSeenID(ctx context.Context) (*ID, error) {
	s.maybeWarn("MetadataHighestSeenID")
	return nil, nil
}

func (s *Storage[ID, I]) Wipe(ctx context.Context, confirmation string) error {
	s.maybeWarn("Wipe")
	if confirmation != storage.WipeConfirmationPhrase {
		return storage.NewInvalidConfirmationError("Wipe")
	}
	return nil
}

var _ storage.Storage[storageid.SequentialID, nullItem] = (*Storage[storageid.SequentialID, nullItem])(nil)

// nullItem is a minimal Item used only to anchor the interface assertion
// above at compile time.
type nullItem struct{}

func (nullItem) Serialize() ([]byte, error) { return nil, nil }
