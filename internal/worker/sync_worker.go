package worker

import (
	"context"
	"errors"
	"fmt"

	"cupsreport/internal/amqp"
	applog "cupsreport/internal/log"
	"cupsreport/internal/sheets"
	"cupsreport/internal/storage"
)

// SnapshotStore is the archive side the worker reads from and updates.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, id int64) (*storage.Snapshot, error)
	GetPendingSyncSnapshots(ctx context.Context, limit int) ([]storage.PendingSyncSnapshot, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker exports archived snapshots from SQLite to Google Sheets.
type SyncWorker struct {
	store     SnapshotStore
	sheets    sheets.SnapshotWriter
	batchSize int
	logger    *applog.Logger
}

func NewSyncWorker(store SnapshotStore, writer sheets.SnapshotWriter, batchSize int, logger *applog.Logger) *SyncWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = applog.Nop()
	}
	return &SyncWorker{
		store:     store,
		sheets:    writer,
		batchSize: batchSize,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleSyncMessage processes a single snapshot sync message from AMQP.
// Messages for snapshots that are already synced are acknowledged without
// writing again.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SnapshotSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		applog.FieldSnapshotID, msg.ID,
		"version", msg.Version)

	snap, err := w.store.GetSnapshot(ctx, msg.ID)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		w.logger.WarnContext(ctx, "Dropping sync message for unknown snapshot", applog.FieldSnapshotID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get snapshot from storage: %w", err)
	}

	if snap.SyncStatus == storage.SyncSynced {
		w.logger.DebugContext(ctx, "Snapshot already synced", applog.FieldSnapshotID, msg.ID)
		return nil
	}

	return w.syncSnapshot(ctx, snap)
}

// ProcessPendingSnapshots syncs one batch of pending or failed snapshots.
// It backs up the AMQP path when messages are lost or the worker was down.
func (w *SyncWorker) ProcessPendingSnapshots(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck syncs a larger batch of pending snapshots at worker startup.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup check: %w", err)
	}
	if synced+failed == 0 {
		w.logger.InfoContext(ctx, "No pending snapshots found on startup")
		return nil
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.GetPendingSyncSnapshots(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending snapshots: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending snapshots", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}

		snap, err := w.store.GetSnapshot(ctx, p.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to get snapshot", applog.FieldSnapshotID, p.ID, applog.FieldError, err)
			w.markError(ctx, p.ID)
			failed++
			continue
		}

		if err := w.syncSnapshot(ctx, snap); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync snapshot", applog.FieldSnapshotID, p.ID, applog.FieldError, err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) syncSnapshot(ctx context.Context, snap *storage.Snapshot) error {
	ref, err := w.sheets.WriteSnapshot(ctx, sheets.SnapshotExport{
		ID:         snap.ID,
		FileName:   snap.FileName,
		Branch:     snap.Branch,
		CreatedAt:  snap.CreatedAt,
		DrinkCups:  snap.DrinkCups,
		TotalSales: snap.TotalSales,
		Rows:       snap.Rows,
	})
	if err != nil {
		w.markError(ctx, snap.ID)
		return fmt.Errorf("write snapshot to sheets: %w", err)
	}

	// The write already happened; a failed status update only means a later rewrite.
	if err := w.store.MarkSynced(ctx, snap.ID); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", applog.FieldSnapshotID, snap.ID, applog.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Successfully synced snapshot",
		applog.FieldSnapshotID, snap.ID,
		applog.FieldFileName, snap.FileName,
		applog.FieldSheetsRef, ref)
	return nil
}

func (w *SyncWorker) markError(ctx context.Context, id int64) {
	if err := w.store.MarkSyncError(ctx, id); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark sync error", applog.FieldSnapshotID, id, applog.FieldError, err)
	}
}
