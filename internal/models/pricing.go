package models

import "fmt"

type SaleUpdate struct {
	Price     *float64
	OnSale    *bool
	SalePrice *float64
}

type SaleUpdateResult struct {
	Price     float64
	OnSale    bool
	SalePrice float64
}

func IsOnSale(price float64, onSale bool, salePrice float64) bool {
	return onSale && salePrice > 0 && salePrice < price
}

func EffectivePrice(price float64, onSale bool, salePrice float64) float64 {
	if IsOnSale(price, onSale, salePrice) {
		return salePrice
	}
	return price
}

func ValidateSaleFields(price float64, onSale bool, salePrice float64, salePriceSet bool) error {
	if price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if !onSale {
		return nil
	}
	if !salePriceSet {
		return fmt.Errorf("salePrice is required when onSale is true")
	}
	if salePrice <= 0 {
		return fmt.Errorf("salePrice must be greater than 0")
	}
	if salePrice >= price {
		return fmt.Errorf("salePrice must be less than price")
	}
	return nil
}

// ResolveSaleUpdate merges a partial pricing change into the current values
// and validates the result. Turning the sale off resets salePrice.
func ResolveSaleUpdate(existing Product, input SaleUpdate) (SaleUpdateResult, error) {
	result := SaleUpdateResult{
		Price:     existing.Price,
		OnSale:    existing.OnSale,
		SalePrice: existing.SalePrice,
	}

	if input.Price != nil {
		result.Price = *input.Price
	}

	salePriceSetForValidation := existing.SalePrice > 0

	if input.OnSale != nil {
		result.OnSale = *input.OnSale
		if !*input.OnSale {
			result.SalePrice = 0
			salePriceSetForValidation = false
		}
	}

	if input.SalePrice != nil {
		result.SalePrice = *input.SalePrice
		salePriceSetForValidation = true
	}

	if err := ValidateSaleFields(result.Price, result.OnSale, result.SalePrice, salePriceSetForValidation); err != nil {
		return SaleUpdateResult{}, err
	}

	return result, nil
}
