package core

// NullCount is a count cell of a persisted row. Valid is false when the cell
// was empty, missing or not a non-negative integer.
type NullCount struct {
	N     int
	Valid bool
}

// Count wraps n as a present cell.
func Count(n int) NullCount {
	return NullCount{N: n, Valid: true}
}

// Value returns the count, or 0 when the cell is not valid.
func (c NullCount) Value() int {
	if !c.Valid || c.N < 0 {
		return 0
	}
	return c.N
}

// Row is one (category, product) line of a saved report. Count cells that do
// not apply to the category kind are left invalid (written as empty).
type Row struct {
	Category string
	Product  string
	Medio    NullCount
	Grande   NullCount
	Fixed    NullCount
	Sale     int64
}

// RowMiss records a row that matched no category or product.
type RowMiss struct {
	Index    int
	Category string
	Product  string
	Err      error
}

// LoadResult summarizes a LoadReport call.
type LoadResult struct {
	Rows    int       `json:"rows"`
	Applied int       `json:"applied"`
	Skipped int       `json:"skipped"`
	Misses  []RowMiss `json:"-"`
}

func rowFor(c Category, product string, ctr *Counter) Row {
	r := Row{Category: c.Name, Product: product, Sale: ctr.SaleAmount()}
	if c.Kind == KindSize {
		r.Medio = Count(ctr.medio)
		r.Grande = Count(ctr.grande)
	} else {
		r.Fixed = Count(ctr.fixed)
	}
	return r
}

func (r Row) apply(ctr *Counter) {
	ctr.set(TierMedio, r.Medio.Value())
	ctr.set(TierGrande, r.Grande.Value())
	ctr.set(TierFixed, r.Fixed.Value())
}
