// Package snapshot reads and writes the CSV report file:
//
//	Category,Product,Medio,Grande,Fixed,Sale
//
// one row per product in catalog order. Count cells that do not apply to the
// product's category are empty.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cupsreport/internal/core"
)

// Column names of the report file.
const (
	ColCategory = "Category"
	ColProduct  = "Product"
	ColMedio    = "Medio"
	ColGrande   = "Grande"
	ColFixed    = "Fixed"
	ColSale     = "Sale"
)

// Header is the first line of every saved report.
var Header = []string{ColCategory, ColProduct, ColMedio, ColGrande, ColFixed, ColSale}

var (
	ErrEmptyFile     = errors.New("empty report file")
	ErrMissingHeader = errors.New("missing required column")
)

// FilePrefix and FileExt frame the timestamp in saved report names.
const (
	FilePrefix = "cups_report_"
	FileExt    = ".csv"
)

// FileName returns cups_report_YYYYMMDD_HHMMSS.csv for t.
func FileName(t time.Time) string {
	return FilePrefix + t.Format("20060102_150405") + FileExt
}

// Write encodes rows with the header line.
func Write(w io.Writer, rows []core.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Category,
			r.Product,
			formatCount(r.Medio),
			formatCount(r.Grande),
			formatCount(r.Fixed),
			strconv.FormatInt(r.Sale, 10),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s/%s: %w", r.Category, r.Product, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatCount(c core.NullCount) string {
	if !c.Valid {
		return ""
	}
	return strconv.Itoa(c.N)
}

// Read decodes a report. Category and Product columns are required; any other
// column may be missing, and unknown columns are ignored. Category and Product
// cells are returned as written. Count cells that are empty, non-numeric or
// negative come back invalid.
func Read(r io.Reader) ([]core.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)
	for _, required := range []string{ColCategory, ColProduct} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeader, required)
		}
	}

	var rows []core.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if isBlank(rec) {
			continue
		}
		rows = append(rows, core.Row{
			Category: cell(rec, cols, ColCategory),
			Product:  cell(rec, cols, ColProduct),
			Medio:    parseCount(cell(rec, cols, ColMedio)),
			Grande:   parseCount(cell(rec, cols, ColGrande)),
			Fixed:    parseCount(cell(rec, cols, ColFixed)),
			Sale:     parseSale(cell(rec, cols, ColSale)),
		})
	}
	return rows, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func cell(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseCount(s string) core.NullCount {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return core.NullCount{}
	}
	return core.Count(n)
}

func parseSale(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// maxSameSecond bounds the suffixes tried for saves sharing one timestamp.
const maxSameSecond = 100

// SaveFile writes rows to dir under FileName(now) and returns the full path.
// A save in the same second as an earlier one is written as
// cups_report_YYYYMMDD_HHMMSS_1.csv and so on; existing files are never
// replaced. A failed write leaves no file behind.
func SaveFile(dir string, now time.Time, rows []core.Row) (string, error) {
	return saveFile(dir, now, func(w io.Writer) error { return Write(w, rows) })
}

func saveFile(dir string, now time.Time, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	f, path, err := createExclusive(dir, now)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close report file: %w", err)
	}
	return path, nil
}

func createExclusive(dir string, now time.Time) (*os.File, string, error) {
	base := strings.TrimSuffix(FileName(now), FileExt)
	for i := 0; i < maxSameSecond; i++ {
		name := base + FileExt
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, FileExt)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("create report file: %w", err)
		}
		return f, path, nil
	}
	return nil, "", fmt.Errorf("create report file: %d reports already saved at %s", maxSameSecond, base)
}

// LoadFile opens and decodes a report file.
func LoadFile(path string) ([]core.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}
