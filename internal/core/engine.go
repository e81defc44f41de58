package core

import "fmt"

// DefaultBranch labels the cashier performance summary when no branch is set.
const DefaultBranch = "San Vicente"

// Engine owns a catalog and one counter per (category, product). Every
// mutation recomputes all category totals and the grand totals before it
// returns. Engine is not safe for concurrent use; callers serialize access.
type Engine struct {
	catalog  *Catalog
	branch   string
	counters [][]Counter
	totals   []CategoryTotals
	grand    GrandTotals
}

// Option configures an Engine.
type Option func(*Engine)

// WithBranch sets the branch label used by the cashier performance summary.
func WithBranch(branch string) Option {
	return func(e *Engine) {
		if branch != "" {
			e.branch = branch
		}
	}
}

// NewEngine creates zeroed counters for every product of the catalog.
func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		branch:  DefaultBranch,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.counters = e.freshCounters()
	e.recompute()
	return e
}

func (e *Engine) freshCounters() [][]Counter {
	out := make([][]Counter, len(e.catalog.categories))
	for i, c := range e.catalog.categories {
		out[i] = make([]Counter, len(c.Products))
		for j, p := range c.Products {
			out[i][j] = newCounter(c, p)
		}
	}
	return out
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Branch returns the branch label.
func (e *Engine) Branch() string {
	return e.branch
}

// Increment adds one unit to a product tier and recomputes totals.
func (e *Engine) Increment(category, product string, tier Tier) error {
	return e.mutate(category, product, func(c *Counter) error { return c.Increment(tier) })
}

// Decrement removes one unit from a product tier and recomputes totals.
// Decrementing a zero count is not an error.
func (e *Engine) Decrement(category, product string, tier Tier) error {
	return e.mutate(category, product, func(c *Counter) error { return c.Decrement(tier) })
}

func (e *Engine) mutate(category, product string, fn func(*Counter) error) error {
	ci, pi, err := e.catalog.lookup(category, product)
	if err != nil {
		return err
	}
	if err := fn(&e.counters[ci][pi]); err != nil {
		return fmt.Errorf("%s/%s: %w", category, product, err)
	}
	e.recompute()
	return nil
}

// recompute rebuilds every category total and the grand totals from scratch.
func (e *Engine) recompute() {
	totals := make([]CategoryTotals, len(e.catalog.categories))
	for i, c := range e.catalog.categories {
		totals[i] = aggregateCategory(c, e.counters[i])
	}
	e.totals = totals
	e.grand = aggregateGrand(totals)
}

// ProductCount returns the current counts of one product.
func (e *Engine) ProductCount(category, product string) (ProductCount, error) {
	ci, pi, err := e.catalog.lookup(category, product)
	if err != nil {
		return ProductCount{}, err
	}
	ctr := &e.counters[ci][pi]
	return ProductCount{
		Category: category,
		Product:  product,
		Kind:     ctr.kind,
		Medio:    ctr.medio,
		Grande:   ctr.grande,
		Fixed:    ctr.fixed,
		Sale:     ctr.SaleAmount(),
	}, nil
}

// ProductCounts returns every counter in catalog display order.
func (e *Engine) ProductCounts() []ProductCount {
	var out []ProductCount
	for i, c := range e.catalog.categories {
		for j, p := range c.Products {
			ctr := &e.counters[i][j]
			out = append(out, ProductCount{
				Category: c.Name,
				Product:  p,
				Kind:     ctr.kind,
				Medio:    ctr.medio,
				Grande:   ctr.grande,
				Fixed:    ctr.fixed,
				Sale:     ctr.SaleAmount(),
			})
		}
	}
	return out
}

// CategoryTotals returns the totals of one category.
func (e *Engine) CategoryTotals(category string) (CategoryTotals, error) {
	i, ok := e.catalog.index[category]
	if !ok {
		return CategoryTotals{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return e.totals[i], nil
}

// AllCategoryTotals returns the totals of every category in display order.
func (e *Engine) AllCategoryTotals() []CategoryTotals {
	return append([]CategoryTotals(nil), e.totals...)
}

// GrandTotals returns the totals across every category.
func (e *Engine) GrandTotals() GrandTotals {
	return e.grand
}

// SaveReport serializes every counter, one row per product in display order.
// It does not change engine state.
func (e *Engine) SaveReport() []Row {
	rows := make([]Row, 0, e.productCount())
	for i, c := range e.catalog.categories {
		for j, p := range c.Products {
			rows = append(rows, rowFor(c, p, &e.counters[i][j]))
		}
	}
	return rows
}

func (e *Engine) productCount() int {
	n := 0
	for _, c := range e.catalog.categories {
		n += len(c.Products)
	}
	return n
}

// LoadReport replaces every count with the values in rows. Counters missing
// from rows end at zero. Rows naming an unknown category or product are
// skipped and reported in the result. Invalid or missing count cells load as
// zero. Rows are applied to a fresh counter set that replaces the current one
// only once every row has been processed.
func (e *Engine) LoadReport(rows []Row) LoadResult {
	staged := e.freshCounters()
	res := LoadResult{Rows: len(rows)}
	for idx, r := range rows {
		ci, pi, err := e.catalog.lookup(r.Category, r.Product)
		if err != nil {
			res.Skipped++
			res.Misses = append(res.Misses, RowMiss{
				Index:    idx,
				Category: r.Category,
				Product:  r.Product,
				Err:      err,
			})
			continue
		}
		r.apply(&staged[ci][pi])
		res.Applied++
	}
	e.counters = staged
	e.recompute()
	return res
}
