package sheets

import (
	"strconv"
	"strings"
	"time"

	"cupsreport/internal/core"
)

// Header is the first row of every exported tab.
var Header = []any{"Category", "Product", "Medio", "Grande", "Fixed", "Sale"}

// TabTitle names the tab a snapshot is written to: the report file name
// without its extension, or "snapshot-<id>" when the name is empty.
func TabTitle(s SnapshotExport) string {
	title := strings.TrimSuffix(strings.TrimSpace(s.FileName), ".csv")
	if title == "" {
		return "snapshot-" + strconv.FormatInt(s.ID, 10)
	}
	if len(title) > 100 {
		title = title[:100]
	}
	return title
}

// Values lays out a snapshot as a cell grid: the header, one line per row,
// a blank line and a summary block.
func Values(s SnapshotExport) [][]any {
	out := make([][]any, 0, len(s.Rows)+6)
	out = append(out, Header)
	for _, r := range s.Rows {
		out = append(out, []any{
			r.Category,
			r.Product,
			cellValue(r.Medio),
			cellValue(r.Grande),
			cellValue(r.Fixed),
			r.Sale,
		})
	}
	out = append(out,
		[]any{},
		[]any{"Branch", s.Branch},
		[]any{"Created", s.CreatedAt.Format(time.RFC3339)},
		[]any{"Total drink cups", s.DrinkCups},
		[]any{"Total sales", s.TotalSales},
	)
	return out
}

func cellValue(c core.NullCount) any {
	if !c.Valid {
		return ""
	}
	return c.N
}
