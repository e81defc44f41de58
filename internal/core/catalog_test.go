package core

import (
	"errors"
	"slices"
	"testing"
)

func TestCategoryValidate(t *testing.T) {
	cases := []struct {
		name string
		cat  Category
		want error
	}{
		{"size ok", Category{Name: "S", Kind: KindSize, Products: []string{"A"}, PriceMedio: 1, PriceGrande: 2}, nil},
		{"single ok", Category{Name: "X", Kind: KindSingle, Products: []string{"A"}, FixedPrices: map[string]int64{"A": 3}}, nil},
		{"empty name", Category{Name: " ", Kind: KindSize, Products: []string{"A"}}, ErrEmptyName},
		{"bad kind", Category{Name: "S", Kind: "combo", Products: []string{"A"}}, ErrInvalidKind},
		{"no products", Category{Name: "S", Kind: KindSize}, ErrNoProducts},
		{"dup product", Category{Name: "S", Kind: KindSize, Products: []string{"A", "A"}}, ErrDuplicateName},
		{"missing price", Category{Name: "X", Kind: KindAddons, Products: []string{"A", "B"}, FixedPrices: map[string]int64{"A": 1}}, ErrMissingPrice},
		{"negative size price", Category{Name: "S", Kind: KindSize, Products: []string{"A"}, PriceMedio: -1}, ErrNegativePrice},
		{"negative fixed price", Category{Name: "X", Kind: KindSingle, Products: []string{"A"}, FixedPrices: map[string]int64{"A": -1}}, ErrNegativePrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cat.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewCatalogRejectsDuplicateCategory(t *testing.T) {
	c := Category{Name: "S", Kind: KindSize, Products: []string{"A"}}
	if _, err := NewCatalog(c, c); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	prices := map[string]int64{"A": 5}
	products := []string{"A"}
	cat, err := NewCatalog(Category{Name: "X", Kind: KindSingle, Products: products, FixedPrices: prices})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	prices["A"] = 500
	products[0] = "Z"
	got, ok := cat.Category("X")
	if !ok {
		t.Fatal("category X not found")
	}
	if got.Products[0] != "A" || got.FixedPrice("A") != 5 {
		t.Fatalf("catalog changed through caller slices: %+v", got)
	}

	got.FixedPrices["A"] = 1000
	again, _ := cat.Category("X")
	if again.FixedPrice("A") != 5 {
		t.Fatalf("catalog changed through returned copy: %+v", again)
	}
}

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	if n := len(cat.Categories()); n != 9 {
		t.Fatalf("expected 9 categories, got %d", n)
	}
	wantOrder := []string{"Add Ons", "Brosty", "Fruit Tea", "Hot Brew", "Iced Coffee",
		"Milk Tea", "Praf", "Secret Menu", "Special Drinks"}
	for i, c := range cat.Categories() {
		if c.Name != wantOrder[i] {
			t.Fatalf("category %d: expected %q, got %q", i, wantOrder[i], c.Name)
		}
	}

	addons, _ := cat.Category("Add Ons")
	if addons.Kind != KindAddons || addons.FixedPrice("ES") != 5 || addons.FixedPrice("P") != 9 {
		t.Fatalf("unexpected add ons: %+v", addons)
	}
	praf, _ := cat.Category("Praf")
	if praf.PriceMedio != 49 || praf.PriceGrande != 59 || len(praf.Products) != 19 {
		t.Fatalf("unexpected praf: %+v", praf)
	}
	secret, _ := cat.Category(SecretMenuCategory)
	if !slices.Contains(secret.Products, BrownieProduct) || secret.FixedPrice(BrownieProduct) != 86 {
		t.Fatalf("unexpected secret menu: %+v", secret)
	}
}
