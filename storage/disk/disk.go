// Package disk implements the filesystem Storage backend: two sibling files
// per item under a configured base directory, with a single-permit
// in-process gate serializing Lock/LockNew critical sections. Grounded on
// original_source/src/storage_disk.rs for the algorithms and on the
// teacher's pkg/adapter/base.go connSemaphore for the idiomatic Go
// realization of the gate (a buffered channel, acquired via a ctx-aware
// select, rather than the source's tokio semaphore).
package disk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andreasom/oml-storage-go/internal/logger"
	"github.com/andreasom/oml-storage-go/lock"
	"github.com/andreasom/oml-storage-go/pkg/metrics"
	"github.com/andreasom/oml-storage-go/storage"
	"github.com/andreasom/oml-storage-go/storageid"
	"github.com/andreasom/oml-storage-go/storageitem"
	"github.com/andreasom/oml-storage-go/storagemeta"
)

// Storage is the filesystem backend. It implements storage.Storage[ID, I].
type Storage[ID storageid.ID, I storageitem.Item[ID]] struct {
	basePath  string
	extension string

	// gate is a single-permit counting gate: a buffered channel of
	// capacity 1 holding one token. Acquiring means receiving the token;
	// releasing means sending it back. This serializes the critical
	// sections of Lock and LockNew for the whole backend instance, per
	// spec's in-process mutual exclusion requirement.
	gate chan struct{}

	newDefault  func() I
	deserialize func([]byte) (I, error)
	generateID  func(prev *ID) ID
	parseID     func(string) (ID, error)

	metadata *storagemeta.Tracker[ID]
	metrics  *metrics.Metrics
}

// backendLabel is the metrics.LabelBackend value this backend reports under.
const backendLabel = "disk"

// SetMetrics wires a metrics sink into the backend. Passing nil (the default)
// leaves metrics recording a no-op.
func (s *Storage[ID, I]) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// New constructs a filesystem backend rooted at basePath, using extension
// (without a leading dot) for payload files.
func New[ID storageid.ID, I storageitem.Item[ID]](
	basePath, extension string,
	newDefault func() I,
	deserialize func([]byte) (I, error),
	generateID func(prev *ID) ID,
	parseID func(string) (ID, error),
) *Storage[ID, I] {
	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	return &Storage[ID, I]{
		basePath:    basePath,
		extension:   extension,
		gate:        gate,
		newDefault:  newDefault,
		deserialize: deserialize,
		generateID:  generateID,
		parseID:     parseID,
		metadata:    storagemeta.New[ID](),
	}
}

func (s *Storage[ID, I]) payloadPath(id ID) string {
	return filepath.Join(s.basePath, id.String()+"."+s.extension)
}

func (s *Storage[ID, I]) lockPath(id ID) string {
	return filepath.Join(s.basePath, id.String()+".lock")
}

// acquireGate blocks until the gate token is available or ctx is canceled.
func (s *Storage[ID, I]) acquireGate(ctx context.Context) error {
	select {
	case <-s.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Storage[ID, I]) releaseGate() {
	s.gate <- struct{}{}
}

func (s *Storage[ID, I]) EnsureStorageExists(ctx context.Context) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return storage.NewSubstrateError("EnsureStorageExists", "", err)
	}
	return nil
}

// Create generates fresh identifiers until one doesn't satisfy Exists,
// bounded by storage.MaxCreateAttempts. It does not reserve the key: a
// subsequent LockNew may still lose a race against another creator.
func (s *Storage[ID, I]) Create(ctx context.Context) (ID, error) {
	var prev *ID
	if h := s.metadata.HighestSeenID(); h != nil {
		prev = h
	}

	for attempt := 0; attempt < storage.MaxCreateAttempts; attempt++ {
		id := s.generateID(prev)
		exists, err := s.Exists(ctx, id)
		if err != nil {
			var zero ID
			return zero, err
		}
		if !exists {
			return id, nil
		}
		prev = &id
	}

	var zero ID
	return zero, storage.NewExhaustedIDSpaceError("Create", storage.MaxCreateAttempts)
}

// Exists tests the payload file, then the lockfile (I3).
func (s *Storage[ID, I]) Exists(ctx context.Context, id ID) (bool, error) {
	if _, err := os.Stat(s.payloadPath(id)); err == nil {
		s.metadata.Observe(id)
		return true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, storage.NewSubstrateError("Exists", id.String(), err)
	}

	if _, err := os.Stat(s.lockPath(id)); err == nil {
		s.metadata.Observe(id)
		return true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, storage.NewSubstrateError("Exists", id.String(), err)
	}

	return false, nil
}

func (s *Storage[ID, I]) Load(ctx context.Context, id ID) (I, error) {
	var zero I

	data, err := os.ReadFile(s.payloadPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return zero, storage.NewNotFoundError("Load", id.String())
	}
	if err != nil {
		return zero, storage.NewSubstrateError("Load", id.String(), err)
	}

	item, err := s.deserialize(data)
	if err != nil {
		return zero, storage.NewSubstrateError("Load", id.String(), err)
	}

	s.metadata.Observe(id)
	return item, nil
}

func (s *Storage[ID, I]) Save(ctx context.Context, id ID, item I, token lock.Token) error {
	recorded, ok, err := s.readLock(id)
	if err != nil {
		return storage.NewSubstrateError("Save", id.String(), err)
	}
	if !ok || !recorded.Equal(token) {
		return storage.NewLockInvalidError("Save", id.String())
	}

	data, err := item.Serialize()
	if err != nil {
		return storage.NewSubstrateError("Save", id.String(), err)
	}

	if err := writeFileAtomic(s.payloadPath(id), data); err != nil {
		return storage.NewSubstrateError("Save", id.String(), err)
	}

	s.metadata.Observe(id)
	return nil
}

// Lock acquires exclusive access to id. The gate serializes the
// check-then-write critical section against concurrent tasks in this
// process.
func (s *Storage[ID, I]) Lock(ctx context.Context, id ID, who string) (lock.Outcome[I], error) {
	start := time.Now()
	outcome, err := s.lock(ctx, id, who)
	s.metrics.ObserveLockDuration(backendLabel, "Lock", time.Since(start).Seconds())
	s.metrics.ObserveLockAttempt(backendLabel, "Lock", lockOutcomeLabel(outcome, err))
	return outcome, err
}

func (s *Storage[ID, I]) lock(ctx context.Context, id ID, who string) (lock.Outcome[I], error) {
	if err := s.acquireGate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseGate()

	if existing, ok, err := s.readLock(id); err != nil {
		return nil, storage.NewSubstrateError("Lock", id.String(), err)
	} else if ok {
		return lock.AlreadyLocked{Who: existing.Who}, nil
	}

	token := lock.New(who)
	if err := s.writeLock(id, token); err != nil {
		return nil, storage.NewSubstrateError("Lock", id.String(), err)
	}

	item, err := s.loadOrDefault(id)
	if err != nil {
		return nil, err
	}

	s.metadata.Observe(id)
	return lock.Success[I]{Lock: token, Item: item}, nil
}

// LockNew is like Lock but refuses to return an existing item.
func (s *Storage[ID, I]) LockNew(ctx context.Context, id ID, who string) (lock.NewOutcome[I], error) {
	start := time.Now()
	outcome, err := s.lockNew(ctx, id, who)
	s.metrics.ObserveLockDuration(backendLabel, "LockNew", time.Since(start).Seconds())
	s.metrics.ObserveLockAttempt(backendLabel, "LockNew", lockNewOutcomeLabel(outcome, err))
	return outcome, err
}

func (s *Storage[ID, I]) lockNew(ctx context.Context, id ID, who string) (lock.NewOutcome[I], error) {
	if err := s.acquireGate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseGate()

	exists, err := s.existsLocked(id)
	if err != nil {
		return nil, storage.NewSubstrateError("LockNew", id.String(), err)
	}
	if exists {
		return lock.AlreadyExists{}, nil
	}

	if existing, ok, err := s.readLock(id); err != nil {
		return nil, storage.NewSubstrateError("LockNew", id.String(), err)
	} else if ok {
		return lock.AlreadyLocked{Who: existing.Who}, nil
	}

	token := lock.New(who)
	if err := s.writeLock(id, token); err != nil {
		return nil, storage.NewSubstrateError("LockNew", id.String(), err)
	}

	// Re-check: a racing creator may have completed between the existence
	// check above and the lockfile write just now.
	if _, err := os.Stat(s.payloadPath(id)); err == nil {
		_ = s.removeLock(id)
		return lock.AlreadyExists{}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, storage.NewSubstrateError("LockNew", id.String(), err)
	}

	item := s.newDefault()
	data, err := item.Serialize()
	if err != nil {
		return nil, storage.NewSubstrateError("LockNew", id.String(), err)
	}
	if err := writeFileAtomic(s.payloadPath(id), data); err != nil {
		return nil, storage.NewSubstrateError("LockNew", id.String(), err)
	}

	s.metadata.Observe(id)
	return lock.Success[I]{Lock: token, Item: item}, nil
}

func (s *Storage[ID, I]) Unlock(ctx context.Context, id ID, token lock.Token) error {
	recorded, ok, err := s.readLock(id)
	if err != nil {
		return storage.NewSubstrateError("Unlock", id.String(), err)
	}
	if !ok || !recorded.Equal(token) {
		return storage.NewLockInvalidError("Unlock", id.String())
	}
	if err := s.removeLock(id); err != nil {
		return storage.NewSubstrateError("Unlock", id.String(), err)
	}
	return nil
}

func (s *Storage[ID, I]) ForceUnlock(ctx context.Context, id ID) error {
	if _, ok, err := s.readLock(id); err != nil {
		return storage.NewSubstrateError("ForceUnlock", id.String(), err)
	} else if !ok {
		return storage.NewNotLockedError("ForceUnlock", id.String())
	}
	if err := s.removeLock(id); err != nil {
		return storage.NewSubstrateError("ForceUnlock", id.String(), err)
	}
	return nil
}

func (s *Storage[ID, I]) VerifyLock(ctx context.Context, id ID, token lock.Token) (bool, error) {
	recorded, ok, err := s.readLock(id)
	if err != nil {
		return false, storage.NewSubstrateError("VerifyLock", id.String(), err)
	}
	if !ok {
		return false, nil
	}
	return recorded.Equal(token), nil
}

// AllIDs enumerates the base directory for payload files matching the
// configured extension. Unparseable entries are skipped.
func (s *Storage[ID, I]) AllIDs(ctx context.Context) ([]ID, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, storage.NewSubstrateError("AllIDs", "", err)
	}

	suffix := "." + s.extension
	var ids []ID
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		idText := strings.TrimSuffix(name, suffix)
		id, err := s.parseID(idText)
		if err != nil {
			logger.Debug("skipping unparseable entry", logger.Path(name), logger.Err(err))
			continue
		}
		s.metadata.Observe(id)
		ids = append(ids, id)
	}
	return ids, nil
}

// ScanIDs paginates over a sorted snapshot of AllIDs. Sorting by the
// variant's Less ordering makes pagination deterministic across calls,
// resolving the source's unspecified directory-enumeration order (see
// DESIGN.md).
func (s *Storage[ID, I]) ScanIDs(ctx context.Context, start *string, limit int) ([]ID, *string, error) {
	all, err := s.AllIDs(ctx)
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Less(all[j]) })

	offset := 0
	if start != nil {
		offset, err = strconv.Atoi(*start)
		if err != nil || offset < 0 {
			return nil, nil, storage.NewSubstrateError("ScanIDs", "", errors.New("invalid continuation token"))
		}
	}
	if offset > len(all) {
		offset = len(all)
	}

	page := all[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}

	var next *string
	if nextOffset := offset + len(page); nextOffset < len(all) {
		token := strconv.Itoa(nextOffset)
		next = &token
	}

	return page, next, nil
}

func (s *Storage[ID, I]) DisplayLock(ctx context.Context, id ID) (string, error) {
	token, ok, err := s.readLock(id)
	if err != nil {
		return "", storage.NewSubstrateError("DisplayLock", id.String(), err)
	}
	if !ok {
		return "", nil
	}
	return token.Display(), nil
}

func (s *Storage[ID, I]) MetadataHighestSeenID(ctx context.Context) (*ID, error) {
	highest := s.metadata.HighestSeenID()
	if highest != nil {
		if n, ok := any(*highest).(storageid.Numeric); ok {
			s.metrics.SetHighestSeenID(backendLabel, n.NumericValue())
		}
	}
	return highest, nil
}

// Wipe deletes every payload and lock file iff confirmation matches
// storage.WipeConfirmationPhrase.
func (s *Storage[ID, I]) Wipe(ctx context.Context, confirmation string) error {
	if confirmation != storage.WipeConfirmationPhrase {
		return storage.NewInvalidConfirmationError("Wipe")
	}

	if err := s.acquireGate(ctx); err != nil {
		return err
	}
	defer s.releaseGate()

	ids, err := s.AllIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		_ = os.Remove(s.payloadPath(id))
		_ = os.Remove(s.lockPath(id))
	}

	// Items that were locked but never saved have a lockfile and no payload
	// file, so AllIDs does not list them.
	entries, err := os.ReadDir(s.basePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return storage.NewSubstrateError("Wipe", "", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".lock") {
			continue
		}
		if _, err := s.parseID(strings.TrimSuffix(name, ".lock")); err == nil {
			_ = os.Remove(filepath.Join(s.basePath, name))
		}
	}
	return nil
}

// existsLocked is Exists without re-entering the gate, for use from within
// an already-held critical section.
func (s *Storage[ID, I]) existsLocked(id ID) (bool, error) {
	if _, err := os.Stat(s.payloadPath(id)); err == nil {
		return true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if _, err := os.Stat(s.lockPath(id)); err == nil {
		return true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	return false, nil
}

func (s *Storage[ID, I]) loadOrDefault(id ID) (I, error) {
	data, err := os.ReadFile(s.payloadPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return s.newDefault(), nil
	}
	var zero I
	if err != nil {
		return zero, storage.NewSubstrateError("Lock", id.String(), err)
	}
	item, err := s.deserialize(data)
	if err != nil {
		return zero, storage.NewSubstrateError("Lock", id.String(), err)
	}
	return item, nil
}

func (s *Storage[ID, I]) readLock(id ID) (lock.Token, bool, error) {
	data, err := os.ReadFile(s.lockPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return lock.Token{}, false, nil
	}
	if err != nil {
		return lock.Token{}, false, err
	}
	token, err := lock.Decode(data)
	if err != nil {
		return lock.Token{}, false, err
	}
	return token, true, nil
}

func (s *Storage[ID, I]) writeLock(id ID, token lock.Token) error {
	data, err := lock.Encode(token)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.lockPath(id), data)
}

func (s *Storage[ID, I]) removeLock(id ID) error {
	if err := os.Remove(s.lockPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory as path
// and renames it into place, so readers never observe a torn write.
// Resolves the "should save be atomic" open question in favor of
// temp-file-plus-rename (see DESIGN.md); the source performs a direct
// overwrite.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// lockOutcomeLabel maps a Lock result to a metrics outcome label.
func lockOutcomeLabel[I any](outcome lock.Outcome[I], err error) string {
	if err != nil {
		return metrics.OutcomeError
	}
	switch outcome.(type) {
	case lock.Success[I]:
		return metrics.OutcomeSuccess
	case lock.AlreadyLocked:
		return metrics.OutcomeAlreadyLocked
	default:
		return metrics.OutcomeError
	}
}

// lockNewOutcomeLabel maps a LockNew result to a metrics outcome label.
func lockNewOutcomeLabel[I any](outcome lock.NewOutcome[I], err error) string {
	if err != nil {
		return metrics.OutcomeError
	}
	switch outcome.(type) {
	case lock.Success[I]:
		return metrics.OutcomeSuccess
	case lock.AlreadyLocked:
		return metrics.OutcomeAlreadyLocked
	case lock.AlreadyExists:
		return metrics.OutcomeAlreadyExists
	default:
		return metrics.OutcomeError
	}
}

var _ storage.Storage[storageid.SequentialID, diskItem] = (*Storage[storageid.SequentialID, diskItem])(nil)

type diskItem struct{}

func (diskItem) Serialize() ([]byte, error) { return nil, nil }
