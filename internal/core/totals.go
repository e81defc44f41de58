package core

// CategoryTotals is derived from a category's counters and never mutated on
// its own. The tier and split fields are only filled for the matching kind.
type CategoryTotals struct {
	Category string `json:"category"`
	Kind     Kind   `json:"kind"`
	Cups     int    `json:"cups"`
	Sales    int64  `json:"sales"`

	// KindSize
	MedioCups   int   `json:"medio_cups,omitempty"`
	MedioSales  int64 `json:"medio_sales,omitempty"`
	GrandeCups  int   `json:"grande_cups,omitempty"`
	GrandeSales int64 `json:"grande_sales,omitempty"`

	// KindAddons
	AOCups  int   `json:"ao_cups,omitempty"`
	AOSales int64 `json:"ao_sales,omitempty"`
	ESCups  int   `json:"es_cups,omitempty"`
	ESSales int64 `json:"es_sales,omitempty"`
}

// GrandTotals sums category totals. Drink cups exclude add-ons; sales include them.
type GrandTotals struct {
	DrinkCups   int   `json:"total_drink_cups"`
	AddonsCups  int   `json:"total_addons_cups"`
	AddonsSales int64 `json:"total_addons_sales"`
	Sales       int64 `json:"total_sales"`
}

// aggregateCategory recomputes a category's totals from scratch.
func aggregateCategory(c Category, counters []Counter) CategoryTotals {
	t := CategoryTotals{Category: c.Name, Kind: c.Kind}
	for i := range counters {
		ctr := &counters[i]
		switch c.Kind {
		case KindSize:
			t.MedioCups += ctr.medio
			t.MedioSales += int64(ctr.medio) * ctr.priceMedio
			t.GrandeCups += ctr.grande
			t.GrandeSales += int64(ctr.grande) * ctr.priceGrande
		case KindAddons:
			sale := ctr.SaleAmount()
			if c.Products[i] == AddonsSplitProduct {
				t.ESCups += ctr.fixed
				t.ESSales += sale
			} else {
				t.AOCups += ctr.fixed
				t.AOSales += sale
			}
		}
		t.Cups += ctr.Cups()
		t.Sales += ctr.SaleAmount()
	}
	return t
}

// aggregateGrand sums every category. More than one add-ons category is summed.
func aggregateGrand(totals []CategoryTotals) GrandTotals {
	var g GrandTotals
	for _, t := range totals {
		if t.Kind == KindAddons {
			g.AddonsCups += t.Cups
			g.AddonsSales += t.Sales
		} else {
			g.DrinkCups += t.Cups
		}
		g.Sales += t.Sales
	}
	return g
}
