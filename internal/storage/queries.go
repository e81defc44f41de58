package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// SnapshotRecord is a row of the snapshots table.
type SnapshotRecord struct {
	ID         int64
	FileName   string
	Branch     string
	CreatedAt  string
	DrinkCups  int64
	TotalSales int64
	Version    int64
	SyncStatus string
	SyncedAt   sql.NullString
}

// SnapshotRowRecord is a row of the snapshot_rows table.
type SnapshotRowRecord struct {
	SnapshotID int64
	Position   int64
	Category   string
	Product    string
	Medio      sql.NullInt64
	Grande     sql.NullInt64
	Fixed      sql.NullInt64
	Sale       int64
}

const createSnapshot = `-- name: CreateSnapshot :one
INSERT INTO snapshots (file_name, branch, created_at, drink_cups, total_sales)
VALUES (?, ?, ?, ?, ?)
RETURNING id, file_name, branch, created_at, drink_cups, total_sales, version, sync_status, synced_at
`

type CreateSnapshotParams struct {
	FileName   string
	Branch     string
	CreatedAt  string
	DrinkCups  int64
	TotalSales int64
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (SnapshotRecord, error) {
	row := q.db.QueryRowContext(ctx, createSnapshot,
		arg.FileName,
		arg.Branch,
		arg.CreatedAt,
		arg.DrinkCups,
		arg.TotalSales,
	)
	return scanSnapshot(row)
}

const createSnapshotRow = `-- name: CreateSnapshotRow :exec
INSERT INTO snapshot_rows (snapshot_id, position, category, product, medio, grande, fixed, sale)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateSnapshotRow(ctx context.Context, arg SnapshotRowRecord) error {
	_, err := q.db.ExecContext(ctx, createSnapshotRow,
		arg.SnapshotID,
		arg.Position,
		arg.Category,
		arg.Product,
		arg.Medio,
		arg.Grande,
		arg.Fixed,
		arg.Sale,
	)
	return err
}

const getSnapshot = `-- name: GetSnapshot :one
SELECT id, file_name, branch, created_at, drink_cups, total_sales, version, sync_status, synced_at
FROM snapshots
WHERE id = ?
`

func (q *Queries) GetSnapshot(ctx context.Context, id int64) (SnapshotRecord, error) {
	return scanSnapshot(q.db.QueryRowContext(ctx, getSnapshot, id))
}

const getPendingSyncSnapshots = `-- name: GetPendingSyncSnapshots :many
SELECT id, file_name, branch, created_at, drink_cups, total_sales, version, sync_status, synced_at
FROM snapshots
WHERE sync_status IN ('pending', 'error')
ORDER BY sync_status = 'error', version ASC, id ASC
LIMIT ?
`

func (q *Queries) GetPendingSyncSnapshots(ctx context.Context, limit int64) ([]SnapshotRecord, error) {
	return q.querySnapshots(ctx, getPendingSyncSnapshots, limit)
}

const getSnapshotRows = `-- name: GetSnapshotRows :many
SELECT snapshot_id, position, category, product, medio, grande, fixed, sale
FROM snapshot_rows
WHERE snapshot_id = ?
ORDER BY position ASC
`

func (q *Queries) GetSnapshotRows(ctx context.Context, snapshotID int64) ([]SnapshotRowRecord, error) {
	rows, err := q.db.QueryContext(ctx, getSnapshotRows, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SnapshotRowRecord
	for rows.Next() {
		var i SnapshotRowRecord
		if err := rows.Scan(
			&i.SnapshotID,
			&i.Position,
			&i.Category,
			&i.Product,
			&i.Medio,
			&i.Grande,
			&i.Fixed,
			&i.Sale,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markSnapshotSynced = `-- name: MarkSnapshotSynced :execrows
UPDATE snapshots
SET sync_status = 'synced', synced_at = ?
WHERE id = ?
`

func (q *Queries) MarkSnapshotSynced(ctx context.Context, syncedAt string, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSnapshotSynced, syncedAt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markSnapshotSyncError = `-- name: MarkSnapshotSyncError :execrows
UPDATE snapshots
SET sync_status = 'error', version = version + 1
WHERE id = ?
`

func (q *Queries) MarkSnapshotSyncError(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSnapshotSyncError, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) querySnapshots(ctx context.Context, query string, limit int64) ([]SnapshotRecord, error) {
	rows, err := q.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SnapshotRecord
	for rows.Next() {
		i, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (SnapshotRecord, error) {
	var i SnapshotRecord
	err := s.Scan(
		&i.ID,
		&i.FileName,
		&i.Branch,
		&i.CreatedAt,
		&i.DrinkCups,
		&i.TotalSales,
		&i.Version,
		&i.SyncStatus,
		&i.SyncedAt,
	)
	return i, err
}
