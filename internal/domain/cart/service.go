package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
	"github.com/rima833/menders-cs-sub001/internal/domain/pricing"
)

// Repository defines persistence operations for carts. Save performs a
// compare-and-swap on Cart.Version and returns ErrVersionConflict when the
// stored version differs, which serializes concurrent mutations per user.
type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes carts whose expiry has passed and reports how
	// many were collected.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Service exposes the cart operations consumed by the HTTP layer and the
// order service. Every mutation ends with a persisted, fully recomputed
// Totals snapshot.
type Service struct {
	carts   Repository
	coupons coupon.Repository
	engine  *pricing.Engine
	now     func() time.Time
}

// NewService creates a cart Service.
func NewService(carts Repository, coupons coupon.Repository, engine *pricing.Engine) *Service {
	return &Service{carts: carts, coupons: coupons, engine: engine, now: time.Now}
}

// Get returns the user's cart. Returns ErrNotFound when the user has none.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	return s.carts.GetByUser(ctx, userID)
}

// AddItem adds (or merges) a line item into the user's cart, creating the
// cart on first use.
func (s *Service) AddItem(ctx context.Context, userID string, in AddItemInput) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		c = New(userID, s.now())
	} else if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	if err := c.AddItem(in, s.engine); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// RemoveItem deletes a line item from the user's cart. A missing line item id
// is tolerated as a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, lineItemID string) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.RemoveItem(lineItemID, s.engine)
		return nil
	})
}

// UpdateQuantity sets a line item's quantity; <= 0 removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineItemID string, quantity int) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.UpdateQuantity(lineItemID, quantity, s.engine)
		return nil
	})
}

// ApplyCoupon validates and attaches a coupon built from explicit parameters.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string, kind coupon.Kind, value decimal.Decimal) (*Cart, error) {
	cp, err := coupon.New(code, kind, value)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.ApplyCoupon(cp, s.engine)
		return nil
	})
}

// ApplyCouponCode looks up a promo code in the catalog, validates it, and
// attaches it to the user's cart.
func (s *Service) ApplyCouponCode(ctx context.Context, userID, code string) (*Cart, error) {
	rule, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	cp, err := coupon.FromRule(rule)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.ApplyCoupon(cp, s.engine)
		return nil
	})
}

// SetShippingAddress stores a shipping address draft on the cart.
func (s *Service) SetShippingAddress(ctx context.Context, userID string, addr Address) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.ShippingAddress = &addr
		return nil
	})
}

// Clear empties the user's cart and detaches any coupon.
func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.Clear(s.engine)
		return nil
	})
}

// Consume clears the cart after it has been converted into an order. The cart
// row survives for reuse; only its contents are dropped.
func (s *Service) Consume(ctx context.Context, userID string) error {
	_, err := s.Clear(ctx, userID)
	return err
}

func (s *Service) mutate(ctx context.Context, userID string, fn func(*Cart) error) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}
