package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"cupsreport/internal/core"
	applog "cupsreport/internal/log"
	"cupsreport/internal/snapshot"
	"cupsreport/internal/storage"
)

// Archive stores saved reports for later export.
type Archive interface {
	SaveSnapshot(ctx context.Context, s storage.NewSnapshot) (storage.Snapshot, error)
}

// SyncPublisher announces archived snapshots to the sync worker.
type SyncPublisher interface {
	PublishSnapshotSync(ctx context.Context, id, version int64) error
}

// ReportService owns the tally engine and serializes every call into it.
// Each mutation and its recompute happen under one lock, so readers never
// see a half-applied change.
type ReportService struct {
	mu        sync.Mutex
	engine    *core.Engine
	reportDir string

	archive   Archive
	publisher SyncPublisher
	now       func() time.Time
	logger    *applog.Logger
	events    *applog.StructuredLogger
}

// Option configures a ReportService.
type Option func(*ReportService)

// WithArchive stores every saved report in a.
func WithArchive(a Archive) Option {
	return func(s *ReportService) { s.archive = a }
}

// WithPublisher announces archived reports through p.
func WithPublisher(p SyncPublisher) Option {
	return func(s *ReportService) { s.publisher = p }
}

// WithClock replaces time.Now for report file names.
func WithClock(now func() time.Time) Option {
	return func(s *ReportService) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *ReportService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewReportService(engine *core.Engine, reportDir string, opts ...Option) *ReportService {
	s := &ReportService{
		engine:    engine,
		reportDir: reportDir,
		now:       time.Now,
		logger:    applog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentTally)
	s.events = applog.NewStructuredLogger(s.logger)
	return s
}

// Totals is the full aggregate view of the current tally.
type Totals struct {
	Grand      core.GrandTotals      `json:"grand"`
	Categories []core.CategoryTotals `json:"categories"`
}

// SaveResult describes a saved report.
type SaveResult struct {
	Path       string           `json:"path"`
	FileName   string           `json:"file_name"`
	SnapshotID int64            `json:"snapshot_id,omitempty"`
	Grand      core.GrandTotals `json:"grand"`
}

// CounterUpdate is a product's counts together with the category and grand
// totals they feed, all read in the same critical section as the mutation.
type CounterUpdate struct {
	Counter  core.ProductCount   `json:"counter"`
	Category core.CategoryTotals `json:"category"`
	Grand    core.GrandTotals    `json:"grand"`
}

// Catalog returns the menu the engine counts against.
func (s *ReportService) Catalog() []core.Category {
	return s.engine.Catalog().Categories()
}

// Branch returns the label used in cashier performance summaries.
func (s *ReportService) Branch() string {
	return s.engine.Branch()
}

// Increment adds one cup and returns the product's updated counts and totals.
func (s *ReportService) Increment(ctx context.Context, category, product string, tier core.Tier) (CounterUpdate, error) {
	return s.mutate(ctx, applog.OpIncrement, category, product, tier, s.engine.Increment)
}

// Decrement removes one cup, stopping at zero, and returns the product's
// updated counts and totals.
func (s *ReportService) Decrement(ctx context.Context, category, product string, tier core.Tier) (CounterUpdate, error) {
	return s.mutate(ctx, applog.OpDecrement, category, product, tier, s.engine.Decrement)
}

func (s *ReportService) mutate(ctx context.Context, op, category, product string, tier core.Tier, fn func(string, string, core.Tier) error) (CounterUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(category, product, tier); err != nil {
		return CounterUpdate{}, err
	}
	s.events.LogCounterChanged(ctx, op, category, product, string(tier))

	pc, err := s.engine.ProductCount(category, product)
	if err != nil {
		return CounterUpdate{}, err
	}
	cat, err := s.engine.CategoryTotals(category)
	if err != nil {
		return CounterUpdate{}, err
	}
	return CounterUpdate{Counter: pc, Category: cat, Grand: s.engine.GrandTotals()}, nil
}

// Counts returns every product's counters in catalog order.
func (s *ReportService) Counts() []core.ProductCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ProductCounts()
}

// Totals returns grand totals and every category's totals.
func (s *ReportService) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Totals{
		Grand:      s.engine.GrandTotals(),
		Categories: s.engine.AllCategoryTotals(),
	}
}

// CategoryTotals returns the totals of one category.
func (s *ReportService) CategoryTotals(category string) (core.CategoryTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.CategoryTotals(category)
}

// Export writes the current tally as a report file to w.
func (s *ReportService) Export(w io.Writer) error {
	s.mu.Lock()
	rows := s.engine.SaveReport()
	s.mu.Unlock()
	return snapshot.Write(w, rows)
}

// Save writes the current tally to the report directory. When an archive is
// configured the report is archived too and, with a publisher, announced for
// export. Archive and publish failures are logged; the file on disk is the
// record of truth.
func (s *ReportService) Save(ctx context.Context) (SaveResult, error) {
	s.mu.Lock()
	rows := s.engine.SaveReport()
	grand := s.engine.GrandTotals()
	branch := s.engine.Branch()
	s.mu.Unlock()

	now := s.now()
	path, err := snapshot.SaveFile(s.reportDir, now, rows)
	if err != nil {
		s.events.LogError(ctx, "Failed to save report", err, applog.ComponentSnapshot, applog.OpSave, nil)
		return SaveResult{}, fmt.Errorf("save report: %w", err)
	}

	res := SaveResult{Path: path, FileName: filepath.Base(path), Grand: grand}
	if s.archive != nil {
		res.SnapshotID = s.archiveReport(ctx, storage.NewSnapshot{
			FileName:   res.FileName,
			Branch:     branch,
			CreatedAt:  now,
			DrinkCups:  grand.DrinkCups,
			TotalSales: grand.Sales,
			Rows:       rows,
		})
	}

	s.events.LogReportSaved(ctx, res.FileName, res.SnapshotID, grand.DrinkCups, grand.Sales)
	return res, nil
}

func (s *ReportService) archiveReport(ctx context.Context, ns storage.NewSnapshot) int64 {
	archived, err := s.archive.SaveSnapshot(ctx, ns)
	if err != nil {
		s.events.LogError(ctx, "Failed to archive report", err, applog.ComponentStorage, applog.OpSave,
			applog.NewFields().WithSnapshot(0, ns.FileName))
		return 0
	}

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No sync publisher configured, skipping sync message",
			applog.FieldSnapshotID, archived.ID)
		return archived.ID
	}
	if err := s.publisher.PublishSnapshotSync(ctx, archived.ID, archived.Version); err != nil {
		// The worker's periodic sweep picks the snapshot up later.
		s.events.LogError(ctx, "Failed to publish sync message", err, applog.ComponentAMQP, applog.OpSync,
			applog.NewFields().WithSnapshot(archived.ID, ns.FileName))
	}
	return archived.ID
}

// Load replaces the tally with a report read from r. The report is fully
// parsed before the engine is touched; a read or parse error leaves the
// current counts unchanged. name only labels log records.
func (s *ReportService) Load(ctx context.Context, r io.Reader, name string) (core.LoadResult, error) {
	rows, err := snapshot.Read(r)
	if err != nil {
		s.events.LogError(ctx, "Failed to read report", err, applog.ComponentSnapshot, applog.OpLoad,
			applog.NewFields().WithSnapshot(0, name))
		return core.LoadResult{}, fmt.Errorf("load report: %w", err)
	}

	return s.apply(ctx, rows, name), nil
}

// LoadFile loads a report from a file path.
func (s *ReportService) LoadFile(ctx context.Context, path string) (core.LoadResult, error) {
	rows, err := snapshot.LoadFile(path)
	if err != nil {
		s.events.LogError(ctx, "Failed to read report", err, applog.ComponentSnapshot, applog.OpLoad,
			applog.NewFields().WithSnapshot(0, filepath.Base(path)))
		return core.LoadResult{}, fmt.Errorf("load report: %w", err)
	}
	return s.apply(ctx, rows, filepath.Base(path)), nil
}

func (s *ReportService) apply(ctx context.Context, rows []core.Row, name string) core.LoadResult {
	s.mu.Lock()
	res := s.engine.LoadReport(rows)
	s.mu.Unlock()

	for _, miss := range res.Misses {
		s.logger.WarnContext(ctx, "Skipped report row",
			"row", miss.Index+1,
			applog.FieldCategory, miss.Category,
			applog.FieldProduct, miss.Product,
			applog.FieldError, miss.Err)
	}
	s.events.LogReportLoaded(ctx, name, res.Rows, res.Applied, res.Skipped)
	return res
}

// CashierPerformance returns the end-of-shift summary for cashier on date.
func (s *ReportService) CashierPerformance(date, cashier string) core.CashierPerformance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.CashierPerformance(date, cashier)
}
