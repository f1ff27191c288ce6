package checkout

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(50)
	FlatShipping          = decimal.NewFromInt(10)
	TaxRate               = decimal.RequireFromString("0.08")
)

type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals prices an order: shipping is free only when subtotal is
// strictly above the threshold; tax and total are rounded to cents.
func ComputeTotals(subtotal decimal.Decimal) Totals {
	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal.Round(2),
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax).Round(2),
	}
}

func (t Totals) FreeShipping() bool { return t.Shipping.IsZero() }

func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal     string `json:"subtotal"`
		Shipping     string `json:"shipping"`
		Tax          string `json:"tax"`
		Total        string `json:"total"`
		FreeShipping bool   `json:"freeShipping"`
	}{
		Subtotal:     t.Subtotal.StringFixed(2),
		Shipping:     t.Shipping.StringFixed(2),
		Tax:          t.Tax.StringFixed(2),
		Total:        t.Total.StringFixed(2),
		FreeShipping: t.FreeShipping(),
	})
}
