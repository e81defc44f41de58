package core

import (
	"errors"
	"testing"
)

func TestParseTier(t *testing.T) {
	cases := []struct {
		in   string
		want Tier
		ok   bool
	}{
		{"medio", TierMedio, true},
		{"GRANDE", TierGrande, true},
		{" fixed ", TierFixed, true},
		{"", TierFixed, true},
		{"venti", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTier(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrInvalidTier) {
			t.Fatalf("%q expected ErrInvalidTier, got %v", tc.in, err)
		}
	}
}

func TestSizeCounter(t *testing.T) {
	c := newCounter(Category{Name: "S", Kind: KindSize, Products: []string{"A"}, PriceMedio: 29, PriceGrande: 39}, "A")

	for _, tier := range []Tier{TierMedio, TierMedio, TierGrande} {
		if err := c.Increment(tier); err != nil {
			t.Fatalf("increment %s: %v", tier, err)
		}
	}
	if got := c.SaleAmount(); got != 97 {
		t.Fatalf("sale amount: expected 97, got %d", got)
	}
	if err := c.Increment(TierFixed); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("fixed tier on size product: expected ErrInvalidTier, got %v", err)
	}
	if _, ok := c.Count(TierFixed); ok {
		t.Fatal("size counter must not expose a fixed count")
	}
}

func TestFixedCounterIgnoresTier(t *testing.T) {
	c := newCounter(Category{Name: "X", Kind: KindSingle, Products: []string{"A"}, FixedPrices: map[string]int64{"A": 82}}, "A")
	_ = c.Increment(TierMedio)
	_ = c.Increment(TierGrande)
	_ = c.Increment(TierFixed)
	if n, ok := c.Count(TierFixed); !ok || n != 3 {
		t.Fatalf("expected fixed=3, got %d ok=%v", n, ok)
	}
	if _, ok := c.Count(TierMedio); ok {
		t.Fatal("fixed counter must not expose a medio count")
	}
	if got := c.SaleAmount(); got != 246 {
		t.Fatalf("sale amount: expected 246, got %d", got)
	}
}

func TestDecrementAtZeroIsNoop(t *testing.T) {
	c := newCounter(Category{Name: "S", Kind: KindSize, Products: []string{"A"}, PriceMedio: 1, PriceGrande: 1}, "A")
	if err := c.Decrement(TierMedio); err != nil {
		t.Fatalf("decrement at zero: %v", err)
	}
	if n, _ := c.Count(TierMedio); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
	_ = c.Increment(TierGrande)
	_ = c.Decrement(TierGrande)
	_ = c.Decrement(TierGrande)
	if n, _ := c.Count(TierGrande); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}
