package money

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

func TestTotalArithmetic(t *testing.T) {
	t.Parallel()

	subtotal, err := FromString("100.00", enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("parse subtotal: %v", err)
	}
	tax, _ := FromString("8.25", enums.CurrencyUSD)
	discount, _ := FromString("10.00", enums.CurrencyUSD)

	total, err := Total(subtotal, tax, discount)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	want, _ := FromString("98.25", enums.CurrencyUSD)
	if !total.Equal(want) {
		t.Fatalf("expected %s, got %s", want, total)
	}
}

func TestTotalRejectsMixedCurrencies(t *testing.T) {
	t.Parallel()

	subtotal, _ := FromString("100.00", enums.CurrencyUSD)
	tax, _ := FromString("8.25", enums.CurrencyEUR)

	if _, err := Total(subtotal, tax, Zero(enums.CurrencyUSD)); err == nil {
		t.Fatal("expected currency mismatch error")
	}
}

func TestMulIntExact(t *testing.T) {
	t.Parallel()

	unit, _ := FromString("19.99", enums.CurrencyUSD)
	line := unit.MulInt(3)
	want, _ := FromString("59.97", enums.CurrencyUSD)
	if !line.Equal(want) {
		t.Fatalf("expected %s, got %s", want, line)
	}
}

func TestMulRateRoundsToCents(t *testing.T) {
	t.Parallel()

	subtotal, _ := FromString("33.33", enums.CurrencyUSD)
	tax := subtotal.MulRate(decimal.RequireFromString("0.0825"))
	want, _ := FromString("2.75", enums.CurrencyUSD)
	if !tax.Equal(want) {
		t.Fatalf("expected %s, got %s", want, tax)
	}
}

func TestCmp(t *testing.T) {
	t.Parallel()

	a, _ := FromString("40.00", enums.CurrencyUSD)
	b, _ := FromString("100.00", enums.CurrencyUSD)

	cmp, err := a.Cmp(b)
	if err != nil {
		t.Fatalf("cmp: %v", err)
	}
	if cmp != -1 {
		t.Fatalf("expected -1, got %d", cmp)
	}

	if _, err := a.Cmp(Zero(enums.CurrencyGBP)); err == nil {
		t.Fatal("expected currency mismatch error")
	}
}
