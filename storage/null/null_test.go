package null

import (
	"context"
	"testing"

	"github.com/andreasom/oml-storage-go/lock"
	"github.com/andreasom/oml-storage-go/storage"
	"github.com/andreasom/oml-storage-go/storageid"
)

type testItem struct {
	Counter int
}

func (t testItem) Serialize() ([]byte, error) { return nil, nil }

func newTestStorage() *Storage[storageid.SequentialID, testItem] {
	return New[storageid.SequentialID, testItem](
		func() testItem { return testItem{} },
		storageid.GenerateSequentialID,
		storageid.ParseSequentialID,
	)
}

func TestNull_ExistsAlwaysFalse(t *testing.T) {
	t.Parallel()

	s := newTestStorage()
	ok, err := s.Exists(context.Background(), storageid.SequentialID(1))
	if err != nil || ok {
		t.Fatalf("Exists = %v, %v; want false, nil", ok, err)
	}
}

func TestNull_LoadReturnsDefault(t *testing.T) {
	t.Parallel()

	s := newTestStorage()
	item, err := s.Load(context.Background(), storageid.SequentialID(1))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if item != (testItem{}) {
		t.Fatalf("Load = %v, want zero value", item)
	}
}

func TestNull_LockAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	s := newTestStorage()
	outcome, err := s.Lock(context.Background(), storageid.SequentialID(1), "alice")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	success, ok := outcome.(lock.Success[testItem])
	if !ok {
		t.Fatalf("expected Success outcome, got %T", outcome)
	}
	if success.Lock.Who != "alice" {
		t.Fatalf("expected owner alice, got %v", success.Lock.Who)
	}
}

func TestNull_VerifyLockAlwaysTrue(t *testing.T) {
	t.Parallel()

	s := newTestStorage()
	ok, err := s.VerifyLock(context.Background(), storageid.SequentialID(1), lock.New("anyone"))
	if err != nil || !ok {
		t.Fatalf("VerifyLock = %v, %v; want true, nil", ok, err)
	}
}

func TestNull_WipeRequiresExactPhrase(t *testing.T) {
	t.Parallel()

	s := newTestStorage()
	if err := s.Wipe(context.Background(), "wrong phrase"); err == nil {
		t.Fatalf("expected InvalidConfirmation error")
	}
	if err := s.Wipe(context.Background(), storage.WipeConfirmationPhrase); err != nil {
		t.Fatalf("Wipe with correct phrase: %v", err)
	}
}
