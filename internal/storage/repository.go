package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cupsreport/internal/core"

	_ "modernc.org/sqlite"
)

// Sync states of an archived snapshot.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type SQLiteRepository struct {
	db            *sql.DB
	queries       *Queries
	now           func() time.Time
	schemaVersion uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:            db,
		queries:       New(db),
		now:           time.Now,
		schemaVersion: version,
	}, nil
}

// SchemaVersion returns the migration version the archive was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// NewSnapshot is a report about to be archived.
type NewSnapshot struct {
	FileName   string
	Branch     string
	CreatedAt  time.Time
	DrinkCups  int
	TotalSales int64
	Rows       []core.Row
}

// Snapshot is an archived report.
type Snapshot struct {
	ID         int64
	FileName   string
	Branch     string
	CreatedAt  time.Time
	DrinkCups  int
	TotalSales int64
	Version    int64
	SyncStatus string
	SyncedAt   *time.Time
	Rows       []core.Row
}

// PendingSyncSnapshot represents minimal data needed for sync queue messages
type PendingSyncSnapshot struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// SaveSnapshot stores the snapshot header and all rows in one transaction.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, s NewSnapshot) (Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	rec, err := q.CreateSnapshot(ctx, CreateSnapshotParams{
		FileName:   s.FileName,
		Branch:     s.Branch,
		CreatedAt:  formatTime(s.CreatedAt),
		DrinkCups:  int64(s.DrinkCups),
		TotalSales: s.TotalSales,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}

	for i, row := range s.Rows {
		err := q.CreateSnapshotRow(ctx, SnapshotRowRecord{
			SnapshotID: rec.ID,
			Position:   int64(i),
			Category:   row.Category,
			Product:    row.Product,
			Medio:      toNullInt(row.Medio),
			Grande:     toNullInt(row.Grande),
			Fixed:      toNullInt(row.Fixed),
			Sale:       row.Sale,
		})
		if err != nil {
			return Snapshot{}, fmt.Errorf("create snapshot row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot archived to SQLite",
		"id", rec.ID,
		"file_name", rec.FileName,
		"rows", len(s.Rows))

	out, err := fromRecord(rec)
	if err != nil {
		return Snapshot{}, err
	}
	out.Rows = s.Rows
	return out, nil
}

// GetSnapshot loads a snapshot and its rows in catalog order.
func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	rec, err := r.queries.GetSnapshot(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot by id: %w", err)
	}
	return r.withRows(ctx, rec)
}

// GetPendingSyncSnapshots returns snapshots that still need to reach the spreadsheet.
// Never-attempted snapshots come first, then failed ones with the fewest attempts,
// so a snapshot that keeps failing cannot starve the rest of the queue.
func (r *SQLiteRepository) GetPendingSyncSnapshots(ctx context.Context, limit int) ([]PendingSyncSnapshot, error) {
	recs, err := r.queries.GetPendingSyncSnapshots(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync snapshots: %w", err)
	}

	pending := make([]PendingSyncSnapshot, len(recs))
	for i, rec := range recs {
		created, err := parseTime(rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", rec.ID, err)
		}
		pending[i] = PendingSyncSnapshot{
			ID:        rec.ID,
			Version:   rec.Version,
			CreatedAt: created,
		}
	}
	return pending, nil
}

// MarkSynced marks a snapshot as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	n, err := r.queries.MarkSnapshotSynced(ctx, formatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("mark snapshot synced: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrSnapshotNotFound, id)
	}

	slog.InfoContext(ctx, "Snapshot marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a snapshot as having sync errors and bumps its version
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	n, err := r.queries.MarkSnapshotSyncError(ctx, id)
	if err != nil {
		return fmt.Errorf("mark snapshot sync error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrSnapshotNotFound, id)
	}

	slog.WarnContext(ctx, "Snapshot marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) withRows(ctx context.Context, rec SnapshotRecord) (*Snapshot, error) {
	s, err := fromRecord(rec)
	if err != nil {
		return nil, err
	}
	rows, err := r.queries.GetSnapshotRows(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("get snapshot rows: %w", err)
	}
	s.Rows = make([]core.Row, len(rows))
	for i, row := range rows {
		s.Rows[i] = core.Row{
			Category: row.Category,
			Product:  row.Product,
			Medio:    fromNullInt(row.Medio),
			Grande:   fromNullInt(row.Grande),
			Fixed:    fromNullInt(row.Fixed),
			Sale:     row.Sale,
		}
	}
	return &s, nil
}

func fromRecord(rec SnapshotRecord) (Snapshot, error) {
	created, err := parseTime(rec.CreatedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %d: %w", rec.ID, err)
	}
	s := Snapshot{
		ID:         rec.ID,
		FileName:   rec.FileName,
		Branch:     rec.Branch,
		CreatedAt:  created,
		DrinkCups:  int(rec.DrinkCups),
		TotalSales: rec.TotalSales,
		Version:    rec.Version,
		SyncStatus: rec.SyncStatus,
	}
	if rec.SyncedAt.Valid {
		synced, err := parseTime(rec.SyncedAt.String)
		if err != nil {
			return Snapshot{}, fmt.Errorf("snapshot %d: %w", rec.ID, err)
		}
		s.SyncedAt = &synced
	}
	return s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func toNullInt(c core.NullCount) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(c.N), Valid: c.Valid}
}

func fromNullInt(n sql.NullInt64) core.NullCount {
	if !n.Valid {
		return core.NullCount{}
	}
	return core.Count(int(n.Int64))
}
