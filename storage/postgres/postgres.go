// Package postgres implements the remote-database Storage backend over a
// single Postgres table, using conditional UPDATE/INSERT ON CONFLICT
// statements in place of DynamoDB's ConditionExpression. Grounded on the
// teacher's pkg/store/metadata/postgres and pkg/controlplane/store (GORM
// dialector wiring), and pkg/metadata/store/postgres/locks.go (the
// INSERT ... ON CONFLICT ... DO UPDATE idiom used below for Lock/LockNew).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/andreasom/oml-storage-go/lock"
	"github.com/andreasom/oml-storage-go/pkg/metrics"
	"github.com/andreasom/oml-storage-go/storage"
	"github.com/andreasom/oml-storage-go/storageid"
	"github.com/andreasom/oml-storage-go/storageitem"
	"github.com/andreasom/oml-storage-go/storagemeta"
)

// row is the single-table representation backing every key: its payload
// (nil until LockNew or Save writes it) and its current lock record
// (nil when unlocked).
type row struct {
	ID       string  `gorm:"column:id;primaryKey"`
	LockJSON *string `gorm:"column:lock_json"`
	Data     []byte  `gorm:"column:data"`
}

func (row) TableName() string { return "storage_items" }

// Storage is the Postgres backend. It implements storage.Storage[ID, I].
type Storage[ID storageid.ID, I storageitem.Item[ID]] struct {
	db *gorm.DB

	newDefault  func() I
	deserialize func([]byte) (I, error)
	generateID  func(prev *ID) ID
	parseID     func(string) (ID, error)

	metadata *storagemeta.Tracker[ID]
	metrics  *metrics.Metrics
}

// backendLabel is the metrics.LabelBackend value this backend reports under.
const backendLabel = "postgres"

// SetMetrics wires a metrics sink into the backend. Passing nil (the
// default) leaves metrics recording a no-op.
func (s *Storage[ID, I]) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Open dials Postgres per cfg, applies schema migrations, and returns a
// ready-to-use backend.
func Open[ID storageid.ID, I storageitem.Item[ID]](
	cfg *Config,
	newDefault func() I,
	deserialize func([]byte) (I, error),
	generateID func(prev *ID) ID,
	parseID func(string) (ID, error),
) (*Storage[ID, I], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := runMigrations(cfg.ConnectionString()); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(cfg.ConnectionString()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: underlying db: %w", err)
	}
	sqlDB.SetMaxOpenConns(int(cfg.MaxConns))
	sqlDB.SetMaxIdleConns(int(cfg.MinConns))
	sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)

	return New[ID, I](db, newDefault, deserialize, generateID, parseID), nil
}

// New wraps an already-connected *gorm.DB. Exposed directly for tests and
// embedders that manage their own connection pool.
func New[ID storageid.ID, I storageitem.Item[ID]](
	db *gorm.DB,
	newDefault func() I,
	deserialize func([]byte) (I, error),
	generateID func(prev *ID) ID,
	parseID func(string) (ID, error),
) *Storage[ID, I] {
	return &Storage[ID, I]{
		db:          db,
		newDefault:  newDefault,
		deserialize: deserialize,
		generateID:  generateID,
		parseID:     parseID,
		metadata:    storagemeta.New[ID](),
	}
}

func (s *Storage[ID, I]) EnsureStorageExists(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&row{})
}

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

func (s *Storage[ID, I]) Exists(ctx context.Context, id ID) (bool, error) {
	var got row
	err := s.db.WithContext(ctx).Select("id").Where("id = ?", id.String()).First(&got).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storage.NewSubstrateError("Exists", id.String(), err)
	}
	s.metadata.Observe(id)
	return true, nil
}

func (s *Storage[ID, I]) Load(ctx context.Context, id ID) (I, error) {
	var zero I

	var got row
	err := s.db.WithContext(ctx).Select("data").Where("id = ?", id.String()).First(&got).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, storage.NewNotFoundError("Load", id.String())
	}
	if err != nil {
		return zero, storage.NewSubstrateError("Load", id.String(), err)
	}
	if got.Data == nil {
		return zero, storage.NewNotFoundError("Load", id.String())
	}

	item, err := s.deserialize(got.Data)
	if err != nil {
		return zero, storage.NewSubstrateError("Load", id.String(), err)
	}
	s.metadata.Observe(id)
	return item, nil
}

func (s *Storage[ID, I]) Save(ctx context.Context, id ID, item I, token lock.Token) error {
	payload, err := item.Serialize()
	if err != nil {
		return storage.NewSubstrateError("Save", id.String(), err)
	}
	expected, err := lock.Encode(token)
	if err != nil {
		return storage.NewSubstrateError("Save", id.String(), err)
	}

	res := s.db.WithContext(ctx).Model(&row{}).
		Where("id = ? AND lock_json = ?", id.String(), string(expected)).
		Update("data", payload)
	if res.Error != nil {
		return storage.NewSubstrateError("Save", id.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NewLockInvalidError("Save", id.String())
	}

	s.metadata.Observe(id)
	return nil
}

// Lock atomically creates-or-claims the row: an INSERT ... ON CONFLICT DO
// UPDATE whose DO UPDATE clause is itself conditioned on the row's current
// lock_json being NULL, mirroring locks.go's upsert idiom but adding the
// WHERE guard DynamoDB expresses as a ConditionExpression.
func (s *Storage[ID, I]) Lock(ctx context.Context, id ID, who string) (lock.Outcome[I], error) {
	start := time.Now()
	outcome, err := s.lock(ctx, id, who)
	s.metrics.ObserveLockDuration(backendLabel, "Lock", time.Since(start).Seconds())
	s.metrics.ObserveLockAttempt(backendLabel, "Lock", lockOutcomeLabel(outcome, err))
	return outcome, err
}

func (s *Storage[ID, I]) lock(ctx context.Context, id ID, who string) (lock.Outcome[I], error) {
	token := lock.New(who)
	encoded, err := lock.Encode(token)
	if err != nil {
		return nil, storage.NewSubstrateError("Lock", id.String(), err)
	}

	const query = `
		INSERT INTO storage_items (id, lock_json, data)
		VALUES (?, ?, NULL)
		ON CONFLICT (id) DO UPDATE SET lock_json = EXCLUDED.lock_json
		WHERE storage_items.lock_json IS NULL
		RETURNING data
	`

	var data []byte
	sqlRow := s.db.WithContext(ctx).Raw(query, id.String(), string(encoded)).Row()
	scanErr := sqlRow.Scan(&data)

	if errors.Is(scanErr, sql.ErrNoRows) {
		who, lerr := s.currentLockOwner(ctx, id)
		if lerr != nil {
			return nil, lerr
		}
		return lock.AlreadyLocked{Who: who}, nil
	}
	if scanErr != nil {
		return nil, storage.NewSubstrateError("Lock", id.String(), scanErr)
	}

	item := s.newDefault()
	if len(data) > 0 {
		item, err = s.deserialize(data)
		if err != nil {
			return nil, storage.NewSubstrateError("Lock", id.String(), err)
		}
	}

	s.metadata.Observe(id)
	return lock.Success[I]{Lock: token, Item: item}, nil
}

// LockNew resolves the same Open Question as the DynamoDB backend's
// conditional PutItem: an INSERT ... ON CONFLICT (id) DO NOTHING atomically
// creates the row with its lock and default payload, and affects no row
// when the key already exists.
func (s *Storage[ID, I]) LockNew(ctx context.Context, id ID, who string) (lock.NewOutcome[I], error) {
	start := time.Now()
	outcome, err := s.lockNew(ctx, id, who)
	s.metrics.ObserveLockDuration(backendLabel, "LockNew", time.Since(start).Seconds())
	s.metrics.ObserveLockAttempt(backendLabel, "LockNew", lockNewOutcomeLabel(outcome, err))
	return outcome, err
}

func (s *Storage[ID, I]) lockNew(ctx context.Context, id ID, who string) (lock.NewOutcome[I], error) {
	token := lock.New(who)
	encodedLock, err := lock.Encode(token)
	if err != nil {
		return nil, storage.NewSubstrateError("LockNew", id.String(), err)
	}

	item := s.newDefault()
	payload, err := item.Serialize()
	if err != nil {
		return nil, storage.NewSubstrateError("LockNew", id.String(), err)
	}

	res := s.db.WithContext(ctx).Exec(
		`INSERT INTO storage_items (id, lock_json, data) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		id.String(), string(encodedLock), payload,
	)
	if res.Error != nil {
		return nil, storage.NewSubstrateError("LockNew", id.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return lock.AlreadyExists{}, nil
	}

	s.metadata.Observe(id)
	return lock.Success[I]{Lock: token, Item: item}, nil
}

func (s *Storage[ID, I]) Unlock(ctx context.Context, id ID, token lock.Token) error {
	encoded, err := lock.Encode(token)
	if err != nil {
		return storage.NewSubstrateError("Unlock", id.String(), err)
	}

	res := s.db.WithContext(ctx).Model(&row{}).
		Where("id = ? AND lock_json = ?", id.String(), string(encoded)).
		Update("lock_json", nil)
	if res.Error != nil {
		return storage.NewSubstrateError("Unlock", id.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NewLockInvalidError("Unlock", id.String())
	}
	return nil
}

func (s *Storage[ID, I]) ForceUnlock(ctx context.Context, id ID) error {
	res := s.db.WithContext(ctx).Model(&row{}).
		Where("id = ? AND lock_json IS NOT NULL", id.String()).
		Update("lock_json", nil)
	if res.Error != nil {
		return storage.NewSubstrateError("ForceUnlock", id.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NewNotLockedError("ForceUnlock", id.String())
	}
	return nil
}

func (s *Storage[ID, I]) VerifyLock(ctx context.Context, id ID, token lock.Token) (bool, error) {
	var got row
	err := s.db.WithContext(ctx).Select("lock_json").Where("id = ?", id.String()).First(&got).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || got.LockJSON == nil {
		return false, nil
	}
	if err != nil {
		return false, storage.NewSubstrateError("VerifyLock", id.String(), err)
	}

	recorded, err := lock.Decode([]byte(*got.LockJSON))
	if err != nil {
		return false, storage.NewSubstrateError("VerifyLock", id.String(), err)
	}
	return recorded.Equal(token), nil
}

func (s *Storage[ID, I]) AllIDs(ctx context.Context) ([]ID, error) {
	var rows []row
	if err := s.db.WithContext(ctx).Select("id").Find(&rows).Error; err != nil {
		return nil, storage.NewSubstrateError("AllIDs", "", err)
	}

	ids := make([]ID, 0, len(rows))
	for _, r := range rows {
		id, err := s.parseID(r.ID)
		if err != nil {
			continue
		}
		s.metadata.Observe(id)
		ids = append(ids, id)
	}
	return ids, nil
}

// ScanIDs pages through ids ordered by the ID variant's Less, resolving
// the ordering Open Question the same way the filesystem backend does: a
// deterministic in-process sort over the full id set.
func (s *Storage[ID, I]) ScanIDs(ctx context.Context, start *string, limit int) ([]ID, *string, error) {
	all, err := s.AllIDs(ctx)
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Less(all[j]) })

	offset := 0
	if start != nil {
		if parsed, err := strconv.Atoi(*start); err == nil {
			offset = parsed
		}
	}
	if offset > len(all) {
		offset = len(all)
	}

	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := all[offset:end]

	var next *string
	if end < len(all) {
		n := strconv.Itoa(end)
		next = &n
	}

	return page, next, nil
}

func (s *Storage[ID, I]) DisplayLock(ctx context.Context, id ID) (string, error) {
	var got row
	err := s.db.WithContext(ctx).Select("lock_json").Where("id = ?", id.String()).First(&got).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || got.LockJSON == nil {
		return "", nil
	}
	if err != nil {
		return "", storage.NewSubstrateError("DisplayLock", id.String(), err)
	}

	token, err := lock.Decode([]byte(*got.LockJSON))
	if err != nil {
		return "", storage.NewSubstrateError("DisplayLock", id.String(), err)
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

func (s *Storage[ID, I]) Wipe(ctx context.Context, confirmation string) error {
	if confirmation != storage.WipeConfirmationPhrase {
		return storage.NewInvalidConfirmationError("Wipe")
	}
	if err := s.db.WithContext(ctx).Exec("DELETE FROM storage_items").Error; err != nil {
		return storage.NewSubstrateError("Wipe", "", err)
	}
	return nil
}

func (s *Storage[ID, I]) currentLockOwner(ctx context.Context, id ID) (string, error) {
	var got row
	err := s.db.WithContext(ctx).Select("lock_json").Where("id = ?", id.String()).First(&got).Error
	if err != nil || got.LockJSON == nil {
		return "unknown", nil
	}
	token, err := lock.Decode([]byte(*got.LockJSON))
	if err != nil {
		return "unknown", nil
	}
	return token.Who, nil
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

var _ storage.Storage[storageid.SequentialID, pgItem] = (*Storage[storageid.SequentialID, pgItem])(nil)

type pgItem struct{}

func (pgItem) Serialize() ([]byte, error) { return nil, nil }
