package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cupsreport/internal/amqp"
	"cupsreport/internal/core"
	"cupsreport/internal/sheets"
	"cupsreport/internal/sheets/memory"
	"cupsreport/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func archive(t *testing.T, repo *storage.SQLiteRepository, n int) []int64 {
	t.Helper()
	base := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s, err := repo.SaveSnapshot(context.Background(), storage.NewSnapshot{
			FileName:  fmt.Sprintf("cups_report_%s.csv", at.Format("20060102_150405")),
			Branch:    "San Vicente",
			CreatedAt: at,
			Rows:      []core.Row{{Category: "Hot Brew", Product: "AMERICANO", Fixed: core.Count(i), Sale: int64(39 * i)}},
		})
		if err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}
		ids = append(ids, s.ID)
	}
	return ids
}

func status(t *testing.T, repo *storage.SQLiteRepository, id int64) string {
	t.Helper()
	s, err := repo.GetSnapshot(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSnapshot(%d) error = %v", id, err)
	}
	return s.SyncStatus
}

func TestHandleSyncMessage(t *testing.T) {
	repo := newRepo(t)
	sheet := memory.New()
	w := NewSyncWorker(repo, sheet, 10, nil)
	ids := archive(t, repo, 1)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewSnapshotSyncMessage(ids[0], 1)); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}
	if got := status(t, repo, ids[0]); got != storage.SyncSynced {
		t.Fatalf("status = %s, want synced", got)
	}
	tab, err := sheet.Tab("cups_report_20261019_200000")
	if err != nil {
		t.Fatalf("Tab() error = %v", err)
	}
	if tab[1][1] != "AMERICANO" {
		t.Errorf("unexpected tab contents: %v", tab)
	}

	// A redelivered message does not write again.
	if err := w.HandleSyncMessage(ctx, amqp.NewSnapshotSyncMessage(ids[0], 1)); err != nil {
		t.Fatalf("HandleSyncMessage() redelivery error = %v", err)
	}
	if sheet.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", sheet.Writes())
	}

	// Unknown snapshots are dropped without error.
	if err := w.HandleSyncMessage(ctx, amqp.NewSnapshotSyncMessage(999, 1)); err != nil {
		t.Errorf("HandleSyncMessage() unknown id error = %v", err)
	}
}

func TestHandleSyncMessageWriteFailure(t *testing.T) {
	repo := newRepo(t)
	sheet := memory.New()
	sheet.FailWith(errors.New("quota exceeded"))
	w := NewSyncWorker(repo, sheet, 10, nil)
	ids := archive(t, repo, 1)

	err := w.HandleSyncMessage(context.Background(), amqp.NewSnapshotSyncMessage(ids[0], 1))
	if err == nil {
		t.Fatal("expected write error")
	}
	if got := status(t, repo, ids[0]); got != storage.SyncError {
		t.Fatalf("status = %s, want error", got)
	}
}

func TestProcessPendingSnapshotsRetriesFailures(t *testing.T) {
	repo := newRepo(t)
	sheet := memory.New()
	w := NewSyncWorker(repo, sheet, 2, nil)
	ids := archive(t, repo, 3)
	ctx := context.Background()

	sheet.FailWith(errors.New("offline"))
	if err := w.ProcessPendingSnapshots(ctx); err != nil {
		t.Fatalf("ProcessPendingSnapshots() error = %v", err)
	}
	if status(t, repo, ids[0]) != storage.SyncError || status(t, repo, ids[2]) != storage.SyncPending {
		t.Fatal("first batch should be marked as errors, third snapshot untouched")
	}

	sheet.FailWith(nil)
	for i := 0; i < 2; i++ {
		if err := w.ProcessPendingSnapshots(ctx); err != nil {
			t.Fatalf("ProcessPendingSnapshots() error = %v", err)
		}
	}
	for _, id := range ids {
		if got := status(t, repo, id); got != storage.SyncSynced {
			t.Errorf("snapshot %d status = %s, want synced", id, got)
		}
	}
	if got := len(sheet.Titles()); got != 3 {
		t.Errorf("tabs = %d, want 3", got)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	repo := newRepo(t)
	sheet := memory.New()
	w := NewSyncWorker(repo, sheet, 1, nil)
	ctx := context.Background()

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck() on empty archive error = %v", err)
	}

	ids := archive(t, repo, 4)
	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck() error = %v", err)
	}
	for _, id := range ids {
		if got := status(t, repo, id); got != storage.SyncSynced {
			t.Errorf("snapshot %d status = %s, want synced", id, got)
		}
	}
}

// brokenSnapshots rejects the listed snapshot ids and passes the rest through.
type brokenSnapshots struct {
	*memory.Store
	broken map[int64]bool
}

func (b *brokenSnapshots) WriteSnapshot(ctx context.Context, s sheets.SnapshotExport) (string, error) {
	if b.broken[s.ID] {
		return "", fmt.Errorf("snapshot %d rejected", s.ID)
	}
	return b.Store.WriteSnapshot(ctx, s)
}

func TestPersistentFailuresDoNotStarveQueue(t *testing.T) {
	repo := newRepo(t)
	ids := archive(t, repo, 3)
	writer := &brokenSnapshots{Store: memory.New(), broken: map[int64]bool{ids[0]: true, ids[1]: true}}
	w := NewSyncWorker(repo, writer, 2, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := w.ProcessPendingSnapshots(ctx); err != nil {
			t.Fatalf("ProcessPendingSnapshots() error = %v", err)
		}
	}

	if got := status(t, repo, ids[2]); got != storage.SyncSynced {
		t.Fatalf("healthy snapshot status = %s, want synced", got)
	}
	for _, id := range ids[:2] {
		if got := status(t, repo, id); got != storage.SyncError {
			t.Errorf("snapshot %d status = %s, want error", id, got)
		}
	}
}

type failingStore struct {
	SnapshotStore
	marked []int64
}

func (f *failingStore) GetPendingSyncSnapshots(context.Context, int) ([]storage.PendingSyncSnapshot, error) {
	return []storage.PendingSyncSnapshot{{ID: 7, Version: 1}}, nil
}

func (f *failingStore) GetSnapshot(context.Context, int64) (*storage.Snapshot, error) {
	return nil, errors.New("disk I/O error")
}

func (f *failingStore) MarkSyncError(_ context.Context, id int64) error {
	f.marked = append(f.marked, id)
	return nil
}

func TestProcessPendingMarksUnreadableSnapshots(t *testing.T) {
	store := &failingStore{}
	w := NewSyncWorker(store, memory.New(), 5, nil)

	if err := w.ProcessPendingSnapshots(context.Background()); err != nil {
		t.Fatalf("ProcessPendingSnapshots() error = %v", err)
	}
	if len(store.marked) != 1 || store.marked[0] != 7 {
		t.Fatalf("marked = %v, want [7]", store.marked)
	}

	if err := w.HandleSyncMessage(context.Background(), amqp.NewSnapshotSyncMessage(7, 1)); err == nil {
		t.Fatal("expected storage error from HandleSyncMessage")
	}
}
