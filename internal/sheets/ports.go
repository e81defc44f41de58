package sheets

import (
	"context"
	"time"

	"cupsreport/internal/core"
)

// SnapshotExport is an archived report ready to be written to a spreadsheet.
type SnapshotExport struct {
	ID         int64
	FileName   string
	Branch     string
	CreatedAt  time.Time
	DrinkCups  int
	TotalSales int64
	Rows       []core.Row
}

// Ports for outbound adapters.
type (
	// SnapshotWriter writes one snapshot to its own tab, replacing any previous
	// content of that tab, and returns a reference to the written range.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, s SnapshotExport) (ref string, err error)
	}
)
