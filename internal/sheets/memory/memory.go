package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	ports "cupsreport/internal/sheets"
)

var ErrNotFound = errors.New("tab not found")

var _ ports.SnapshotWriter = (*Store)(nil)

// Store keeps written tabs in memory, keyed by tab title.
type Store struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	writes int
	fail   error
}

func New() *Store {
	return &Store{tabs: make(map[string][][]any)}
}

// FailWith makes every following write return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// WriteSnapshot replaces the snapshot's tab and returns a synthetic range reference.
func (s *Store) WriteSnapshot(_ context.Context, snap ports.SnapshotExport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	title := ports.TabTitle(snap)
	values := ports.Values(snap)
	s.tabs[title] = values
	s.writes++
	return fmt.Sprintf("mem:%s!A1:F%d", title, len(values)), nil
}

// Tab returns a copy of the cells written to title.
func (s *Store) Tab(title string) ([][]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.tabs[title]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	out := make([][]any, len(values))
	for i, row := range values {
		out[i] = append([]any(nil), row...)
	}
	return out, nil
}

// Titles returns the written tab titles in sorted order.
func (s *Store) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tabs))
	for t := range s.tabs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Writes counts successful writes, including rewrites of the same tab.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
