package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceImprovement_Buy(t *testing.T) {
	e := Execution{
		Side:       SideBuy,
		LimitPrice: decimal.RequireFromString("150.0"),
		FillPrice:  decimal.RequireFromString("149.5"),
	}

	got := e.PriceImprovement()
	if !got.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("buy improvement: expected 0.5, got %s", got)
	}
}

func TestPriceImprovement_Sell(t *testing.T) {
	e := Execution{
		Side:       SideSell,
		LimitPrice: decimal.RequireFromString("150.0"),
		FillPrice:  decimal.RequireFromString("150.5"),
	}

	got := e.PriceImprovement()
	if !got.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("sell improvement: expected 0.5, got %s", got)
	}
}

func TestPriceImprovement_NegativePreserved(t *testing.T) {
	// A buy filled worse than its limit must keep the negative sign:
	// disimprovement is signal, not noise.
	e := Execution{
		Side:       SideBuy,
		LimitPrice: decimal.RequireFromString("150.0"),
		FillPrice:  decimal.RequireFromString("150.2"),
	}

	got := e.PriceImprovement()
	if !got.Equal(decimal.RequireFromString("-0.2")) {
		t.Errorf("expected -0.2, got %s", got)
	}
}

func TestParseSide(t *testing.T) {
	cases := []struct {
		raw  string
		want Side
		ok   bool
	}{
		{"1", SideBuy, true},
		{"B", SideBuy, true},
		{"buy", SideBuy, true},
		{"2", SideSell, true},
		{"S", SideSell, true},
		{"SELL", SideSell, true},
		{" sell ", SideSell, true},
		{"X", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		got, err := ParseSide(c.raw)
		if c.ok && err != nil {
			t.Errorf("ParseSide(%q): unexpected error %v", c.raw, err)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseSide(%q): expected error", c.raw)
		}
		if got != c.want {
			t.Errorf("ParseSide(%q): expected %v, got %v", c.raw, c.want, got)
		}
	}
}

func TestSideIndicator(t *testing.T) {
	if SideBuy.Indicator() != 1 {
		t.Error("buy indicator should be 1")
	}
	if SideSell.Indicator() != 0 {
		t.Error("sell indicator should be 0")
	}
}
