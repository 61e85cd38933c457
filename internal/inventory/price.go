package inventory

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DiscountedPrice previews price × (1 − discountPercent/100) for display. It
// is never sent to the backend, which owns the stored value.
func DiscountedPrice(price decimal.Decimal, discountPercent int) decimal.Decimal {
	switch {
	case discountPercent <= 0:
		return price
	case discountPercent >= 100:
		return decimal.Zero
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(discountPercent))).Div(hundred)
	return price.Mul(factor).Round(2)
}

// Aggregates summarise a product's variants as last returned by the backend.
type Aggregates struct {
	Variants    int      `json:"variants"`
	TotalStock  int      `json:"totalStock"`
	LowestPrice *float64 `json:"lowestPrice"`
}

func Summarize(inventories []Inventory) Aggregates {
	agg := Aggregates{Variants: len(inventories)}
	var lowest decimal.Decimal
	for i, inv := range inventories {
		agg.TotalStock += inv.Quantity
		price := decimal.NewFromFloat(inv.Price)
		if i == 0 || price.LessThan(lowest) {
			lowest = price
		}
	}
	if len(inventories) > 0 {
		value := lowest.InexactFloat64()
		agg.LowestPrice = &value
	}
	return agg
}
