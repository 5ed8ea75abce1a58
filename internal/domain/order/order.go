// Package order implements the immutable-priced order aggregate: checkout
// from a cart, the per-vendor fulfillment split, the status timeline, and the
// payment sub-record. Financial fields are frozen at creation; only statuses
// and the append-only timeline change afterwards.
package order

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/pricing"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrNumberConflict is returned when an order number collides with an
	// existing one; the service regenerates and retries.
	ErrNumberConflict = errors.New("order number conflict")
)

// ValidationError indicates malformed checkout input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s", e.Reason)
}

// LineItem is a frozen copy of a cart line with its own stamped subtotal.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	VendorID  string          `json:"vendor_id"`
	Name      string          `json:"name"`
	Variant   *cart.Variant   `json:"variant,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Fees is the separately named fee grouping stored alongside the totals.
type Fees struct {
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
}

// Payment is the externally driven payment sub-record. The order never
// advances payment state itself; the gateway collaborator calls back in.
type Payment struct {
	Method     string        `json:"method"`
	Status     PaymentStatus `json:"status"`
	GatewayRef string        `json:"gateway_ref,omitempty"`
}

// Tracking carries shipment tracking details for a fulfillment.
type Tracking struct {
	Carrier string `json:"carrier"`
	Number  string `json:"number"`
}

// Fulfillment is the per-vendor subset of an order's items, shipped and
// tracked independently. The set of fulfillment item subsets partitions the
// order's items exactly for the order's entire lifetime.
type Fulfillment struct {
	VendorID    string            `json:"vendor_id"`
	Items       []LineItem        `json:"items"`
	Status      FulfillmentStatus `json:"status"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	ShippingFee decimal.Decimal   `json:"shipping_fee"`
	Commission  decimal.Decimal   `json:"commission"`
	Tracking    *Tracking         `json:"tracking,omitempty"`
}

// TimelineEntry is one append-only audit record of a status change.
type TimelineEntry struct {
	Status Status    `json:"status"`
	Note   string    `json:"note,omitempty"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
}

// Order is the priced, append-only-status snapshot created at checkout.
type Order struct {
	ID              string
	Number          string
	UserID          string
	Items           []LineItem
	Pricing         pricing.Totals
	Fees            Fees
	Payment         Payment
	Status          Status
	Fulfillments    []Fulfillment
	Timeline        []TimelineEntry
	ShippingAddress cart.Address
	BillingAddress  cart.Address
	CancelReason    string
	CancelledAt     *time.Time
	CreatedAt       time.Time
}

// ItemsByVendor returns the vendor-order view: line items grouped by vendor
// with insertion order preserved within each group. Derived from the frozen
// items on every call, never stored and synced.
func (o *Order) ItemsByVendor() map[string][]LineItem {
	grouped := make(map[string][]LineItem)
	for _, it := range o.Items {
		grouped[it.VendorID] = append(grouped[it.VendorID], it)
	}
	return grouped
}

// FulfillmentFor returns the fulfillment for the given vendor, or nil.
func (o *Order) FulfillmentFor(vendorID string) *Fulfillment {
	for i := range o.Fulfillments {
		if o.Fulfillments[i].VendorID == vendorID {
			return &o.Fulfillments[i]
		}
	}
	return nil
}

// ItemCount returns the total unit count across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// appendTimeline records a status change. The timeline is append-only; it is
// never edited or truncated.
func (o *Order) appendTimeline(status Status, note, actor string, at time.Time) {
	o.Timeline = append(o.Timeline, TimelineEntry{
		Status: status,
		Note:   note,
		Actor:  actor,
		At:     at,
	})
}

// split groups the frozen items by vendor, preserving item order within each
// group, and produces one Fulfillment per distinct vendor. Every item lands in
// exactly one fulfillment and each fulfillment's subtotal is the sum of its
// own items' subtotals.
func split(items []LineItem, shippingFees map[string]decimal.Decimal, commission CommissionPolicy) []Fulfillment {
	var vendors []string
	grouped := make(map[string][]LineItem)
	for _, it := range items {
		if _, ok := grouped[it.VendorID]; !ok {
			vendors = append(vendors, it.VendorID)
		}
		grouped[it.VendorID] = append(grouped[it.VendorID], it)
	}

	fulfillments := make([]Fulfillment, 0, len(vendors))
	for _, v := range vendors {
		subset := grouped[v]
		subtotal := decimal.Zero
		for _, it := range subset {
			subtotal = subtotal.Add(it.Subtotal)
		}
		fulfillments = append(fulfillments, Fulfillment{
			VendorID:    v,
			Items:       subset,
			Status:      FulfillmentPending,
			Subtotal:    subtotal,
			ShippingFee: shippingFees[v],
			Commission:  commission.Commission(v, subtotal),
		})
	}
	return fulfillments
}

// CommissionPolicy computes the marketplace commission on a vendor's
// fulfillment subtotal. The policy itself is owned outside the core; the
// order only invokes it at split time and stores the result.
type CommissionPolicy interface {
	Commission(vendorID string, subtotal decimal.Decimal) decimal.Decimal
}
