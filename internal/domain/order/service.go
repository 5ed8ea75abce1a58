package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/money"
	"github.com/rima833/menders-cs-sub001/internal/domain/pricing"
)

// maxNumberRetries bounds regeneration attempts on order number collisions.
const maxNumberRetries = 3

// Repository defines persistence operations for orders. Create must enforce
// order number uniqueness and return ErrNumberConflict on collision.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListByVendor(ctx context.Context, vendorID string) ([]Order, error)
}

// CartSource is the slice of the cart service the checkout flow needs.
type CartSource interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Consume(ctx context.Context, userID string) error
}

// FlatCommission applies a single percentage rate to every vendor's subtotal.
type FlatCommission struct {
	Rate decimal.Decimal
}

// Commission returns rate% of the subtotal, rounded to the minor unit.
func (f FlatCommission) Commission(_ string, subtotal decimal.Decimal) decimal.Decimal {
	return money.Round(money.Percent(subtotal, f.Rate))
}

// Service encapsulates checkout and order lifecycle logic.
type Service struct {
	carts      CartSource
	orders     Repository
	engine     *pricing.Engine
	commission CommissionPolicy
	numbers    *NumberGenerator
	now        func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(
	carts CartSource,
	orders Repository,
	engine *pricing.Engine,
	commission CommissionPolicy,
	numbers *NumberGenerator,
) *Service {
	return &Service{
		carts:      carts,
		orders:     orders,
		engine:     engine,
		commission: commission,
		numbers:    numbers,
		now:        time.Now,
	}
}

// CreateFromCart checks out the user's cart into a new pending order.
//
// The items are frozen with their own stamped subtotals, the totals are
// recomputed against the frozen items (never copied from the cart, guarding
// against stale snapshots), the items are split into one fulfillment per
// distinct vendor, and the cart is cleared once the order is persisted.
func (s *Service) CreateFromCart(ctx context.Context, userID string, shipping, billing cart.Address, paymentMethod string) (*Order, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(c.Items) == 0 {
		return nil, &ValidationError{Reason: "cart is empty"}
	}
	if paymentMethod == "" {
		return nil, &ValidationError{Reason: "payment method required"}
	}

	items := freezeItems(c.Items)
	totals := s.engine.ComputeTotals(c.PricingItems(), c.Coupon)
	shippingFees := s.engine.ShippingByVendor(c.PricingItems())

	now := s.now()
	o := &Order{
		ID:      uuid.New().String(),
		UserID:  userID,
		Items:   items,
		Pricing: totals,
		Fees: Fees{
			Shipping: totals.Shipping,
			Tax:      totals.Tax,
		},
		Payment: Payment{
			Method: paymentMethod,
			Status: PaymentPending,
		},
		Status:          StatusPending,
		Fulfillments:    split(items, shippingFees, s.commission),
		ShippingAddress: shipping,
		BillingAddress:  billing,
		CreatedAt:       now,
	}
	o.appendTimeline(StatusPending, "order created", userID, now)

	// Uniqueness is owned by the persistence layer; the generator only makes
	// collisions unlikely. Regenerate and retry on conflict.
	for attempt := 0; ; attempt++ {
		o.Number = s.numbers.Next()
		err = s.orders.Create(ctx, o)
		if err == nil {
			break
		}
		if errors.Is(err, ErrNumberConflict) && attempt < maxNumberRetries {
			continue
		}
		return nil, errors.Wrap(err, "create order")
	}

	// The order is already persisted; failing the checkout here would make a
	// client retry create a second order. Leave the stale cart to the expiry
	// sweeper instead.
	if err := s.carts.Consume(ctx, userID); err != nil {
		zctx.From(ctx).Warn("clear cart after checkout",
			zap.String("order_number", o.Number), zap.Error(err))
	}
	return o, nil
}

// Get returns the order with the given id.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.Get(ctx, orderID)
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListByVendor returns orders containing a fulfillment for the vendor.
func (s *Service) ListByVendor(ctx context.Context, vendorID string) ([]Order, error) {
	return s.orders.ListByVendor(ctx, vendorID)
}

// UpdateStatus advances the order through its forward chain, or to cancelled
// or returned from any non-terminal state, appending a timeline entry.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, target Status, note, actor string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{Entity: "order", From: string(o.Status), To: string(target)}
	}
	o.Status = target
	o.appendTimeline(target, note, actor, s.now())
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// UpdatePaymentStatus applies a gateway-driven payment state change. The
// order records the outcome; it never drives payment state itself.
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID string, target PaymentStatus, gatewayRef string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Payment.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{Entity: "payment", From: string(o.Payment.Status), To: string(target)}
	}
	o.Payment.Status = target
	if gatewayRef != "" {
		o.Payment.GatewayRef = gatewayRef
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// UpdateFulfillmentStatus advances one vendor's fulfillment independently of
// the others. The order-level status is left untouched; deriving it from the
// fulfillment set belongs to the orchestration layer.
func (s *Service) UpdateFulfillmentStatus(ctx context.Context, orderID, vendorID string, target FulfillmentStatus, tracking *Tracking) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	f := o.FulfillmentFor(vendorID)
	if f == nil {
		return nil, errors.Wrapf(ErrNotFound, "no fulfillment for vendor %s", vendorID)
	}
	if !f.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{Entity: "fulfillment", From: string(f.Status), To: string(target)}
	}
	f.Status = target
	if tracking != nil {
		f.Tracking = tracking
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// Cancel cancels the order while cancellation is still allowed: no
// fulfillment may have progressed past processing. Cancellation is a status,
// never a deletion. The actor is recorded in the timeline and defaults to
// "user" when empty.
func (s *Service) Cancel(ctx context.Context, orderID, reason, actor string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, &InvalidTransitionError{Entity: "order", From: string(o.Status), To: string(StatusCancelled)}
	}
	for _, f := range o.Fulfillments {
		if f.Status.Past(FulfillmentProcessing) {
			return nil, &InvalidTransitionError{
				Entity: "order",
				From:   string(o.Status),
				To:     string(StatusCancelled),
				Reason: "vendor " + f.VendorID + " already " + string(f.Status),
			}
		}
	}

	now := s.now()
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	for i := range o.Fulfillments {
		if !o.Fulfillments[i].Status.IsTerminal() {
			o.Fulfillments[i].Status = FulfillmentCancelled
		}
	}
	if actor == "" {
		actor = "user"
	}
	o.appendTimeline(StatusCancelled, reason, actor, now)

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// freezeItems copies cart lines into immutable order lines, stamping each
// line's subtotal = price × quantity.
func freezeItems(items []cart.LineItem) []LineItem {
	frozen := make([]LineItem, len(items))
	for i, it := range items {
		frozen[i] = LineItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			VendorID:  it.VendorID,
			Name:      it.Name,
			Variant:   it.Variant,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Subtotal:  money.Round(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))),
		}
	}
	return frozen
}
