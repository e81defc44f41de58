// Package core holds the tally and reporting engine: the menu catalog, the
// per-product counters, category and grand totals, the cashier performance
// summary and the row model used to persist a snapshot.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind selects how a category prices and counts its products.
type Kind string

const (
	// KindSize prices every product with a medio and a grande tier.
	KindSize Kind = "size"
	// KindSingle prices every product with its own fixed price.
	KindSingle Kind = "single"
	// KindAddons is priced like KindSingle but splits its totals into ES and AO.
	KindAddons Kind = "addons"
)

// Category names and products the cashier performance summary looks up.
const (
	SpecialDrinksCategory = "Special Drinks"
	SecretMenuCategory    = "Secret Menu"
	BrownieProduct        = "BROWNIE"
	CrazyProduct          = "CRAZY"

	// AddonsSplitProduct is reported as ES; every other add-on is AO.
	AddonsSplitProduct = "ES"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownProduct  = errors.New("unknown product")
	ErrInvalidKind     = errors.New("invalid category kind")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrMissingPrice    = errors.New("missing price")
	ErrEmptyName       = errors.New("empty name")
	ErrNegativePrice   = errors.New("negative price")
	ErrNoProducts      = errors.New("category has no products")
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindSize, KindSingle, KindAddons:
		return true
	default:
		return false
	}
}

// HasFixedPrice reports whether products of this kind carry a per-product price.
func (k Kind) HasFixedPrice() bool {
	return k == KindSingle || k == KindAddons
}

// Category is one tab of the menu. Products are kept in display order.
type Category struct {
	Name     string
	Kind     Kind
	Products []string

	// KindSize only.
	PriceMedio  int64
	PriceGrande int64

	// KindSingle and KindAddons only.
	FixedPrices map[string]int64
}

// FixedPrice returns the per-product price, or 0 for size categories.
func (c Category) FixedPrice(product string) int64 {
	if !c.Kind.HasFixedPrice() {
		return 0
	}
	return c.FixedPrices[product]
}

func (c Category) productIndex(product string) int {
	for i, p := range c.Products {
		if p == product {
			return i
		}
	}
	return -1
}

func (c Category) clone() Category {
	out := c
	out.Products = append([]string(nil), c.Products...)
	if c.FixedPrices != nil {
		out.FixedPrices = make(map[string]int64, len(c.FixedPrices))
		for k, v := range c.FixedPrices {
			out.FixedPrices[k] = v
		}
	}
	return out
}

// Validate checks names, kind and that every product has a price.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.IsValid() {
		return fmt.Errorf("category %q: %w: %q", c.Name, ErrInvalidKind, c.Kind)
	}
	if len(c.Products) == 0 {
		return fmt.Errorf("category %q: %w", c.Name, ErrNoProducts)
	}
	seen := make(map[string]struct{}, len(c.Products))
	for _, p := range c.Products {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("category %q: product: %w", c.Name, ErrEmptyName)
		}
		if _, ok := seen[p]; ok {
			return fmt.Errorf("category %q: product %q: %w", c.Name, p, ErrDuplicateName)
		}
		seen[p] = struct{}{}
	}

	switch c.Kind {
	case KindSize:
		if c.PriceMedio < 0 || c.PriceGrande < 0 {
			return fmt.Errorf("category %q: %w", c.Name, ErrNegativePrice)
		}
	default:
		for _, p := range c.Products {
			price, ok := c.FixedPrices[p]
			if !ok {
				return fmt.Errorf("category %q: product %q: %w", c.Name, p, ErrMissingPrice)
			}
			if price < 0 {
				return fmt.Errorf("category %q: product %q: %w", c.Name, p, ErrNegativePrice)
			}
		}
	}
	return nil
}

// Catalog is the immutable menu definition. Build it with NewCatalog.
type Catalog struct {
	categories []Category
	index      map[string]int
}

// NewCatalog validates and copies the given categories. Order is display order.
func NewCatalog(categories ...Category) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]int, len(categories)),
	}
	for _, cat := range categories {
		if err := cat.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.index[cat.Name]; ok {
			return nil, fmt.Errorf("category %q: %w", cat.Name, ErrDuplicateName)
		}
		c.index[cat.Name] = len(c.categories)
		c.categories = append(c.categories, cat.clone())
	}
	return c, nil
}

// Categories returns a copy of every category in display order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cat.clone()
	}
	return out
}

// Category looks a category up by exact name.
func (c *Catalog) Category(name string) (Category, bool) {
	i, ok := c.index[name]
	if !ok {
		return Category{}, false
	}
	return c.categories[i].clone(), true
}

func (c *Catalog) lookup(category, product string) (ci, pi int, err error) {
	ci, ok := c.index[category]
	if !ok {
		return -1, -1, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	pi = c.categories[ci].productIndex(product)
	if pi < 0 {
		return -1, -1, fmt.Errorf("%w: %q in %q", ErrUnknownProduct, product, category)
	}
	return ci, pi, nil
}

// DefaultCatalog returns the San Vicente drinks menu.
func DefaultCatalog() *Catalog {
	hotBrew := []string{"HB", "HF", "HK", "HMAC", "HMO", "HMAT", "HSL", "HV"}
	hotBrewPrices := make(map[string]int64, len(hotBrew))
	for _, p := range hotBrew {
		hotBrewPrices[p] = 39
	}

	cat, err := NewCatalog(
		Category{
			Name:     "Add Ons",
			Kind:     KindAddons,
			Products: []string{"P", "CJ", "CC", "CP", "CCH", "CO", "C", "ES"},
			FixedPrices: map[string]int64{
				"P": 9, "CJ": 9, "CC": 9, "CP": 9, "CCH": 9, "CO": 9, "C": 9, "ES": 5,
			},
		},
		Category{
			Name:        "Brosty",
			Kind:        KindSize,
			Products:    []string{"BB", "BGA", "BHP", "BK", "BLE", "BLY", "BM", "BS"},
			PriceMedio:  49,
			PriceGrande: 59,
		},
		Category{
			Name:        "Fruit Tea",
			Kind:        KindSize,
			Products:    []string{"BFT", "GAFT", "HPFT", "KFT", "LEFT", "LYFT", "MFT", "SFT"},
			PriceMedio:  29,
			PriceGrande: 39,
		},
		Category{
			Name:        "Hot Brew",
			Kind:        KindSingle,
			Products:    hotBrew,
			FixedPrices: hotBrewPrices,
		},
		Category{
			Name:        "Iced Coffee",
			Kind:        KindSize,
			Products:    []string{"BIC", "FIC", "KIC", "MACIC", "MOIC", "MATIC", "SIC", "VIC"},
			PriceMedio:  29,
			PriceGrande: 39,
		},
		Category{
			Name: "Milk Tea",
			Kind: KindSize,
			Products: []string{"CKMT", "CMT", "CCMT", "CNCMT", "DCMT", "MATMT",
				"OMT", "RVMT", "SCMT", "SMT", "TMT", "WMT"},
			PriceMedio:  29,
			PriceGrande: 39,
		},
		Category{
			Name: "Praf",
			Kind: KindSize,
			Products: []string{"PCA", "PCJ", "PV", "PSL", "PC", "PCC", "PCNC", "PCM", "PJC",
				"PMO", "PMAT", "PS", "PT", "M. MELON", "M. MANGO", "SCB", "UBE", "PANDAN", "PISTACIO"},
			PriceMedio:  49,
			PriceGrande: 59,
		},
		Category{
			Name:     SecretMenuCategory,
			Kind:     KindSingle,
			Products: []string{"BARBIE", "BTS", "LOCO", "CRAZY", "TANGO", "BROWNIE"},
			FixedPrices: map[string]int64{
				"BARBIE": 82, "BTS": 78, "LOCO": 82, "CRAZY": 82, "TANGO": 77, "BROWNIE": 86,
			},
		},
		Category{
			Name:     SpecialDrinksCategory,
			Kind:     KindSingle,
			Products: []string{"SDBP", "SDBB", "SDCD", "KMJS", "SDKV", "SDSM", "SDSC", "SDCB"},
			FixedPrices: map[string]int64{
				"SDBP": 66, "SDBB": 66, "SDCD": 48, "KMJS": 60,
				"SDKV": 72, "SDSM": 52, "SDSC": 49, "SDCB": 39,
			},
		},
	)
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return cat
}
