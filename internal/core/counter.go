package core

import (
	"errors"
	"fmt"
	"strings"
)

// Tier selects which count of a product a mutation applies to.
type Tier string

const (
	TierMedio  Tier = "medio"
	TierGrande Tier = "grande"
	TierFixed  Tier = "fixed"
)

var ErrInvalidTier = errors.New("invalid tier")

// ParseTier accepts medio, grande or fixed in any case. An empty string means fixed.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medio":
		return TierMedio, nil
	case "grande":
		return TierGrande, nil
	case "fixed", "":
		return TierFixed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
}

// Tiers returns the tiers a category kind counts, in column order.
func Tiers(k Kind) []Tier {
	if k == KindSize {
		return []Tier{TierMedio, TierGrande}
	}
	return []Tier{TierFixed}
}

// Counter is the mutable tally of one product. The kind tag decides which
// counts exist: size products carry medio and grande, the rest carry fixed.
// Counts never go below zero.
type Counter struct {
	kind   Kind
	medio  int
	grande int
	fixed  int

	priceMedio  int64
	priceGrande int64
	priceFixed  int64
}

func newCounter(c Category, product string) Counter {
	ctr := Counter{kind: c.Kind}
	if c.Kind == KindSize {
		ctr.priceMedio = c.PriceMedio
		ctr.priceGrande = c.PriceGrande
	} else {
		ctr.priceFixed = c.FixedPrice(product)
	}
	return ctr
}

// Kind returns the kind tag of the owning category.
func (c *Counter) Kind() Kind {
	return c.kind
}

// resolve maps a requested tier onto the count it touches for this kind.
// Fixed-price kinds always count fixed; size kinds require medio or grande.
func (c *Counter) resolve(t Tier) (*int, error) {
	if c.kind.HasFixedPrice() {
		return &c.fixed, nil
	}
	switch t {
	case TierMedio:
		return &c.medio, nil
	case TierGrande:
		return &c.grande, nil
	default:
		return nil, fmt.Errorf("%w: %q for size product", ErrInvalidTier, t)
	}
}

// Increment adds one unit to the tier.
func (c *Counter) Increment(t Tier) error {
	n, err := c.resolve(t)
	if err != nil {
		return err
	}
	*n++
	return nil
}

// Decrement removes one unit from the tier. At zero it does nothing.
func (c *Counter) Decrement(t Tier) error {
	n, err := c.resolve(t)
	if err != nil {
		return err
	}
	if *n > 0 {
		*n--
	}
	return nil
}

// Count returns the count of a tier and whether the tier applies to this kind.
func (c *Counter) Count(t Tier) (int, bool) {
	switch {
	case c.kind == KindSize && t == TierMedio:
		return c.medio, true
	case c.kind == KindSize && t == TierGrande:
		return c.grande, true
	case c.kind.HasFixedPrice() && t == TierFixed:
		return c.fixed, true
	default:
		return 0, false
	}
}

// set assigns a tier directly, clamping negatives to zero. Tiers that do not
// apply to the kind are ignored.
func (c *Counter) set(t Tier, n int) {
	if n < 0 {
		n = 0
	}
	if _, ok := c.Count(t); !ok {
		return
	}
	switch t {
	case TierMedio:
		c.medio = n
	case TierGrande:
		c.grande = n
	case TierFixed:
		c.fixed = n
	}
}

// Cups is the number of units counted across all tiers.
func (c *Counter) Cups() int {
	return c.medio + c.grande + c.fixed
}

// SaleAmount is medio*price_medio + grande*price_grande + fixed*fixed_price.
func (c *Counter) SaleAmount() int64 {
	return int64(c.medio)*c.priceMedio +
		int64(c.grande)*c.priceGrande +
		int64(c.fixed)*c.priceFixed
}

// ProductCount is a read-only view of one counter.
type ProductCount struct {
	Category string `json:"category"`
	Product  string `json:"product"`
	Kind     Kind   `json:"kind"`
	Medio    int    `json:"medio"`
	Grande   int    `json:"grande"`
	Fixed    int    `json:"fixed"`
	Sale     int64  `json:"sale"`
}
