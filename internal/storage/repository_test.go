package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"cupsreport/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRows() []core.Row {
	return []core.Row{
		{Category: "Fruit Tea", Product: "BFT", Medio: core.Count(2), Grande: core.Count(1), Sale: 97},
		{Category: "Add Ons", Product: "ES", Fixed: core.Count(3), Sale: 15},
		{Category: "Praf", Product: "M. MELON", Medio: core.Count(0), Grande: core.Count(0)},
	}
}

func TestSaveAndGetSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2026, 10, 19, 21, 30, 0, 0, time.FixedZone("PHT", 8*3600))

	saved, err := repo.SaveSnapshot(ctx, NewSnapshot{
		FileName:   "cups_report_20261019_213000.csv",
		Branch:     "San Vicente",
		CreatedAt:  created,
		DrinkCups:  3,
		TotalSales: 112,
		Rows:       sampleRows(),
	})
	if err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if saved.ID == 0 || saved.Version != 1 || saved.SyncStatus != SyncPending {
		t.Fatalf("unexpected saved header: %+v", saved)
	}

	got, err := repo.GetSnapshot(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.FileName != saved.FileName || got.Branch != "San Vicente" || got.DrinkCups != 3 || got.TotalSales != 112 {
		t.Errorf("unexpected header: %+v", got)
	}
	if got.SyncedAt != nil {
		t.Errorf("SyncedAt = %v, want nil", got.SyncedAt)
	}
	if !reflect.DeepEqual(got.Rows, sampleRows()) {
		t.Errorf("rows changed:\n got %+v\nwant %+v", got.Rows, sampleRows())
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSnapshot(ctx, 42); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("GetSnapshot() error = %v, want ErrSnapshotNotFound", err)
	}
	if err := repo.MarkSynced(ctx, 42); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("MarkSynced() error = %v, want ErrSnapshotNotFound", err)
	}
	if err := repo.MarkSyncError(ctx, 42); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("MarkSyncError() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSyncStatusTransitions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fixed := time.Date(2026, 10, 20, 1, 2, 3, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	var ids []int64
	for i := 0; i < 3; i++ {
		s, err := repo.SaveSnapshot(ctx, NewSnapshot{FileName: "snap", CreatedAt: fixed, Rows: sampleRows()})
		if err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}
		ids = append(ids, s.ID)
	}

	if err := repo.MarkSynced(ctx, ids[0]); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if err := repo.MarkSyncError(ctx, ids[1]); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}

	pending, err := repo.GetPendingSyncSnapshots(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncSnapshots() error = %v", err)
	}
	// Never-attempted snapshots come before failed ones.
	if len(pending) != 2 || pending[0].ID != ids[2] || pending[1].ID != ids[1] {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
	if pending[0].Version != 1 || pending[1].Version != 2 {
		t.Errorf("unexpected versions: %+v", pending)
	}

	limited, err := repo.GetPendingSyncSnapshots(ctx, 1)
	if err != nil {
		t.Fatalf("GetPendingSyncSnapshots() error = %v", err)
	}
	if len(limited) != 1 || limited[0].ID != ids[2] {
		t.Errorf("limit not applied or wrong order: %+v", limited)
	}

	synced, err := repo.GetSnapshot(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if synced.SyncStatus != SyncSynced || synced.SyncedAt == nil || !synced.SyncedAt.Equal(fixed) {
		t.Errorf("unexpected synced snapshot: status=%s synced_at=%v", synced.SyncStatus, synced.SyncedAt)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	first, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()
	if err := second.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if got := second.SchemaVersion(); got != 1 {
		t.Errorf("SchemaVersion() = %d, want 1", got)
	}
}

func TestPendingOrderRotatesFailures(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		s, err := repo.SaveSnapshot(ctx, NewSnapshot{FileName: "snap", CreatedAt: time.Now(), Rows: sampleRows()[:1]})
		if err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}
		ids = append(ids, s.ID)
		if err := repo.MarkSyncError(ctx, s.ID); err != nil {
			t.Fatalf("MarkSyncError() error = %v", err)
		}
	}
	// ids[0] has failed twice, the others once.
	if err := repo.MarkSyncError(ctx, ids[0]); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}

	pending, err := repo.GetPendingSyncSnapshots(ctx, 3)
	if err != nil {
		t.Fatalf("GetPendingSyncSnapshots() error = %v", err)
	}
	got := []int64{pending[0].ID, pending[1].ID, pending[2].ID}
	want := []int64{ids[1], ids[2], ids[0]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pending order = %v, want %v", got, want)
	}
}
