// Package pricing computes cart and order totals: subtotal, discount,
// per-vendor shipping, VAT, and the final total. Computation is a full
// recompute from the current line items on every call. It is a total
// function over valid input: no I/O, no failure modes, idempotent.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
	"github.com/rima833/menders-cs-sub001/internal/domain/money"
)

// Item is a priced line item for totals calculation.
type Item struct {
	ProductID string
	VendorID  string
	Price     decimal.Decimal
	Quantity  int
}

// Totals is the complete pricing breakdown for a set of items.
// Total = Subtotal - Discount + Shipping + Tax, and is never negative.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ShippingPolicy supplies the base shipping fee charged once per distinct
// vendor represented among the line items.
type ShippingPolicy interface {
	FeeFor(vendorID string) decimal.Decimal
}

// FlatShipping charges the same base fee for every vendor.
type FlatShipping struct {
	Fee decimal.Decimal
}

// FeeFor returns the flat base fee regardless of vendor.
func (f FlatShipping) FeeFor(string) decimal.Decimal { return f.Fee }

// Engine computes totals for line items under a shipping policy and VAT rate.
// VATRate is expressed in percent (7.5 means 7.5%). VAT applies to
// (subtotal - discount), never to shipping.
type Engine struct {
	Shipping ShippingPolicy
	VATRate  decimal.Decimal
}

// NewEngine creates an Engine with the given shipping policy and VAT rate.
func NewEngine(shipping ShippingPolicy, vatRate decimal.Decimal) *Engine {
	return &Engine{Shipping: shipping, VATRate: vatRate}
}

// ComputeTotals calculates the full pricing breakdown for the items under the
// optional coupon. Calling it twice with unchanged inputs yields identical
// Totals; it never patches prior results incrementally.
func (e *Engine) ComputeTotals(items []Item, c *coupon.Coupon) Totals {
	subtotal := Subtotal(items)

	discount := decimal.Zero
	if c != nil {
		discount = c.DiscountFor(subtotal)
	}

	shipping := decimal.Zero
	for _, fee := range e.ShippingByVendor(items) {
		shipping = shipping.Add(fee)
	}

	taxable := subtotal.Sub(discount)
	tax := money.Round(money.Percent(taxable, e.VATRate))

	total := money.FloorAtZero(subtotal.Sub(discount).Add(shipping).Add(tax))

	return Totals{
		Subtotal: money.Round(subtotal),
		Discount: money.Round(discount),
		Shipping: money.Round(shipping),
		Tax:      tax,
		Total:    money.Round(total),
	}
}

// ShippingByVendor returns the base shipping fee charged for each distinct
// vendor represented among the items. A second item from an already present
// vendor adds no fee.
func (e *Engine) ShippingByVendor(items []Item) map[string]decimal.Decimal {
	fees := make(map[string]decimal.Decimal)
	for _, it := range items {
		if _, ok := fees[it.VendorID]; !ok {
			fees[it.VendorID] = e.Shipping.FeeFor(it.VendorID)
		}
	}
	return fees
}

// Subtotal returns the sum of price × quantity across the items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}
