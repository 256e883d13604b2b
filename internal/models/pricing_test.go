package models

import (
	"testing"
)

func TestValidateSaleFieldsMissingSalePrice(t *testing.T) {
	err := ValidateSaleFields(100, true, 0, false)
	if err == nil {
		t.Fatal("expected validation error when onSale=true and salePrice is missing")
	}
}

func TestValidateSaleFieldsSalePriceGreaterOrEqualPrice(t *testing.T) {
	tests := []float64{100, 120}
	for _, salePrice := range tests {
		err := ValidateSaleFields(100, true, salePrice, true)
		if err == nil {
			t.Fatalf("expected validation error for salePrice=%v", salePrice)
		}
	}
}

func TestEffectivePriceUsesSalePriceWhenOnSale(t *testing.T) {
	if got := EffectivePrice(100, true, 75); got != 75 {
		t.Fatalf("expected sale price 75, got %v", got)
	}
	if got := EffectivePrice(100, false, 75); got != 100 {
		t.Fatalf("expected regular price 100 when sale disabled, got %v", got)
	}
	if got := EffectivePrice(100, true, 0); got != 100 {
		t.Fatalf("expected regular price 100 when salePrice unset, got %v", got)
	}
}

func TestResolveSaleUpdateDisablingSaleResetsSalePrice(t *testing.T) {
	off := false
	result, err := ResolveSaleUpdate(Product{Price: 50, OnSale: true, SalePrice: 40}, SaleUpdate{OnSale: &off})
	if err != nil {
		t.Fatalf("ResolveSaleUpdate returned error: %v", err)
	}
	if result.OnSale || result.SalePrice != 0 || result.Price != 50 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestResolveSaleUpdateRejectsPriceBelowExistingSale(t *testing.T) {
	price := 30.0
	_, err := ResolveSaleUpdate(Product{Price: 50, OnSale: true, SalePrice: 40}, SaleUpdate{Price: &price})
	if err == nil {
		t.Fatal("expected error when new price drops below the active sale price")
	}
}

func TestProductDecorate(t *testing.T) {
	p := Product{Price: 20, OnSale: true, SalePrice: 15, Stock: 2}
	p.Decorate()
	if !p.IsOnSale || !p.InStock {
		t.Fatalf("expected derived flags to be set, got %+v", p)
	}
	if p.EffectivePrice() != 15 {
		t.Fatalf("expected effective price 15, got %v", p.EffectivePrice())
	}
}
