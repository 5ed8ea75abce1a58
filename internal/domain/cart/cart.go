// Package cart implements the mutable pre-purchase cart aggregate. A cart is
// owned by exactly one user, holds an ordered list of line items and an
// optional coupon, and keeps a Totals snapshot that is fully recomputed by the
// pricing engine after every mutation.
package cart

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
	"github.com/rima833/menders-cs-sub001/internal/domain/money"
	"github.com/rima833/menders-cs-sub001/internal/domain/pricing"
)

// TTL is how long a cart lives after creation before the expiry sweeper may
// collect it.
const TTL = 30 * 24 * time.Hour

var (
	// ErrNotFound is returned when no cart exists for the requested user.
	ErrNotFound = errors.New("cart not found")
	// ErrVersionConflict is returned when a compare-and-swap save loses a
	// race with a concurrent mutation. Callers should reload and retry.
	ErrVersionConflict = errors.New("cart version conflict")
)

// ValidationError indicates a malformed cart mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid cart operation: %s", e.Reason)
}

// Variant qualifies a line item with a product option such as size or colour.
type Variant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LineItem is one product (optionally variant-qualified) in the cart. Price is
// captured at add time so historical cart state stays stable if the catalog
// price changes later. Quantity is always >= 1; a line at zero is removed.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	VendorID  string          `json:"vendor_id"`
	Name      string          `json:"name"`
	Variant   *Variant        `json:"variant,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Address is a free-form shipping address draft kept on the cart until
// checkout freezes it onto the order.
type Address struct {
	FullName string `json:"full_name"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}

// Cart is the per-user shopping cart. Version supports compare-and-swap
// persistence; ExpiresAt marks the cart eligible for the expiry sweeper.
type Cart struct {
	ID              string
	UserID          string
	Items           []LineItem
	Coupon          *coupon.Coupon
	Totals          pricing.Totals
	ShippingAddress *Address
	Version         int64
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// New creates an empty cart for the user with totals at zero.
func New(userID string, now time.Time) *Cart {
	return &Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
}

// AddItemInput carries the caller-captured attributes for a new line item.
type AddItemInput struct {
	ProductID string
	VendorID  string
	Name      string
	Variant   *Variant
	Price     decimal.Decimal
	Quantity  int
}

// AddItem merges the input into an existing line for the same
// (product, variant value) pair, or appends a new line. Quantity must be >= 1.
func (c *Cart) AddItem(in AddItemInput, engine *pricing.Engine) error {
	if in.Quantity < 1 {
		return &ValidationError{Reason: "quantity to add must be at least 1"}
	}
	if in.ProductID == "" {
		return &ValidationError{Reason: "product id required"}
	}
	if in.Price.IsNegative() {
		return &ValidationError{Reason: "price must not be negative"}
	}
	// Prices enter the aggregate already at the minor-unit scale. Per-line
	// order subtotals and the summed cart subtotal must round to the same
	// amount, which only holds when no line carries sub-cent precision.
	in.Price = money.Round(in.Price)

	for i := range c.Items {
		if c.Items[i].ProductID == in.ProductID && variantValue(c.Items[i].Variant) == variantValue(in.Variant) {
			c.Items[i].Quantity += in.Quantity
			c.recompute(engine)
			return nil
		}
	}

	c.Items = append(c.Items, LineItem{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		VendorID:  in.VendorID,
		Name:      in.Name,
		Variant:   in.Variant,
		Price:     in.Price,
		Quantity:  in.Quantity,
	})
	c.recompute(engine)
	return nil
}

// RemoveItem deletes the matching line item. A missing id is a no-op so that
// retried client calls stay idempotent.
func (c *Cart) RemoveItem(lineItemID string, engine *pricing.Engine) {
	for i := range c.Items {
		if c.Items[i].ID == lineItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			break
		}
	}
	c.recompute(engine)
}

// UpdateQuantity sets a line item's quantity. A quantity <= 0 behaves as
// RemoveItem; a missing id is a no-op.
func (c *Cart) UpdateQuantity(lineItemID string, quantity int, engine *pricing.Engine) {
	if quantity <= 0 {
		c.RemoveItem(lineItemID, engine)
		return
	}
	for i := range c.Items {
		if c.Items[i].ID == lineItemID {
			c.Items[i].Quantity = quantity
			break
		}
	}
	c.recompute(engine)
}

// ApplyCoupon attaches a validated coupon and recomputes totals. The coupon's
// Amount is stamped with the discount computed against the current subtotal.
func (c *Cart) ApplyCoupon(cp *coupon.Coupon, engine *pricing.Engine) {
	c.Coupon = cp
	c.recompute(engine)
}

// Clear empties the line items and detaches any coupon.
func (c *Cart) Clear(engine *pricing.Engine) {
	c.Items = nil
	c.Coupon = nil
	c.recompute(engine)
}

// ItemCount returns the total unit count across all lines. Derived, never stored.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// PricingItems converts the cart lines into pricing engine input.
func (c *Cart) PricingItems() []pricing.Item {
	items := make([]pricing.Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = pricing.Item{
			ProductID: it.ProductID,
			VendorID:  it.VendorID,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}
	return items
}

// recompute replaces the Totals snapshot from scratch and refreshes the
// coupon's stamped amount. Always a full recompute, never an incremental patch.
func (c *Cart) recompute(engine *pricing.Engine) {
	c.Totals = engine.ComputeTotals(c.PricingItems(), c.Coupon)
	if c.Coupon != nil {
		c.Coupon.Amount = c.Totals.Discount
	}
}

func variantValue(v *Variant) string {
	if v == nil {
		return ""
	}
	return v.Value
}
