package core

import "fmt"

// CashierPerformance holds the figures of the end-of-shift summary.
type CashierPerformance struct {
	Date          string `json:"date"`
	Cashier       string `json:"cashier"`
	Branch        string `json:"branch"`
	DrinkCups     int    `json:"drink_cups"`
	AddonsCups    int    `json:"addons_cups"`
	SpecialDrinks int    `json:"special_drinks"`
	SecretMenu    int    `json:"secret_menu"`
	Brownie       int    `json:"brownie"`
	Crazy         int    `json:"crazy"`
}

// CashierPerformance gathers the summary figures. Date and cashier are kept
// verbatim. Categories or products missing from the catalog count as zero.
func (e *Engine) CashierPerformance(date, cashier string) CashierPerformance {
	return CashierPerformance{
		Date:          date,
		Cashier:       cashier,
		Branch:        e.branch,
		DrinkCups:     e.grand.DrinkCups,
		AddonsCups:    e.grand.AddonsCups,
		SpecialDrinks: e.categoryCups(SpecialDrinksCategory),
		SecretMenu:    e.categoryCups(SecretMenuCategory),
		Brownie:       e.productCups(SecretMenuCategory, BrownieProduct),
		Crazy:         e.productCups(SecretMenuCategory, CrazyProduct),
	}
}

// CashierPerformanceText renders the summary ready to paste into a chat.
func (e *Engine) CashierPerformanceText(date, cashier string) string {
	return e.CashierPerformance(date, cashier).Text()
}

func (e *Engine) categoryCups(category string) int {
	t, err := e.CategoryTotals(category)
	if err != nil {
		return 0
	}
	return t.Cups
}

func (e *Engine) productCups(category, product string) int {
	ci, pi, err := e.catalog.lookup(category, product)
	if err != nil {
		return 0
	}
	return e.counters[ci][pi].Cups()
}

// Text renders the fixed summary layout.
func (p CashierPerformance) Text() string {
	return fmt.Sprintf("CASHIER PERFORMANCE\n"+
		"DATE: %s\n\n"+
		"🟤 %s (%d)\n"+
		"CASHIER: %s\n"+
		"AO: %d\n"+
		"SD: %d\n"+
		"BV: %d\n\n"+
		"BROWNIE: %d\n"+
		"CRAZY : %d",
		p.Date,
		p.Branch, p.DrinkCups,
		p.Cashier,
		p.AddonsCups,
		p.SpecialDrinks,
		p.SecretMenu,
		p.Brownie,
		p.Crazy,
	)
}
