package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
	"github.com/rima833/menders-cs-sub001/internal/domain/pricing"
)

var testNow = time.Date(2026, 8, 30, 14, 30, 22, 0, time.UTC)

// memOrderRepo is an in-memory Repository enforcing number uniqueness. Extra
// Create failures can be injected through createErrs.
type memOrderRepo struct {
	byID       map[string]*Order
	createErrs []error
	creates    int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{byID: make(map[string]*Order)}
}

func (r *memOrderRepo) Create(_ context.Context, o *Order) error {
	r.creates++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range r.byID {
		if existing.Number == o.Number {
			return ErrNumberConflict
		}
	}
	cp := *o
	r.byID[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	o, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Fulfillments = append([]Fulfillment(nil), o.Fulfillments...)
	cp.Timeline = append([]TimelineEntry(nil), o.Timeline...)
	return &cp, nil
}

func (r *memOrderRepo) Update(_ context.Context, o *Order) error {
	if _, ok := r.byID[o.ID]; !ok {
		return ErrNotFound
	}
	cp := *o
	r.byID[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range r.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListByVendor(_ context.Context, vendorID string) ([]Order, error) {
	var out []Order
	for _, o := range r.byID {
		if o.FulfillmentFor(vendorID) != nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

// stubCartSource serves a single prepared cart and records consumption.
type stubCartSource struct {
	cart       *cart.Cart
	getErr     error
	consumeErr error
	consumed   int
}

func (s *stubCartSource) Get(_ context.Context, _ string) (*cart.Cart, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.cart, nil
}

func (s *stubCartSource) Consume(_ context.Context, _ string) error {
	if s.consumeErr != nil {
		return s.consumeErr
	}
	s.consumed++
	return nil
}

func testCart(t *testing.T) *cart.Cart {
	t.Helper()
	engine := testPricingEngine()
	c := cart.New("user-1", testNow)
	for _, in := range []cart.AddItemInput{
		{ProductID: "p1", VendorID: "vendor-a", Name: "Deep Clean", Price: decimal.NewFromInt(1000), Quantity: 2},
		{ProductID: "p2", VendorID: "vendor-b", Name: "Detergent", Price: decimal.NewFromInt(500), Quantity: 1},
	} {
		require.NoError(t, c.AddItem(in, engine))
	}
	return c
}

func testPricingEngine() *pricing.Engine {
	return pricing.NewEngine(
		pricing.FlatShipping{Fee: decimal.NewFromInt(500)},
		decimal.RequireFromString("7.5"),
	)
}

func newTestOrderService(carts CartSource, repo Repository) *Service {
	numbers := NewNumberGenerator("MND")
	numbers.now = func() time.Time { return testNow }
	svc := NewService(carts, repo, testPricingEngine(), FlatCommission{Rate: decimal.NewFromInt(10)}, numbers)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestService_CreateFromCart(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	source := &stubCartSource{cart: testCart(t)}
	// A stale totals snapshot on the cart must not leak into the order.
	source.cart.Totals = pricing.Totals{Total: decimal.NewFromInt(1)}
	svc := newTestOrderService(source, repo)

	addr := cart.Address{FullName: "Ada O", Line1: "1 Marina Rd", City: "Lagos", State: "Lagos", Country: "NG"}
	o, err := svc.CreateFromCart(ctx, "user-1", addr, addr, "card")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.Payment.Status)
	assert.Equal(t, "card", o.Payment.Method)
	assert.Equal(t, "MND-20260830143022-000001", o.Number)
	assert.Equal(t, 3, o.ItemCount())

	// Totals are recomputed from the frozen items, never copied off the cart.
	assert.True(t, decimal.NewFromInt(2500).Equal(o.Pricing.Subtotal))
	assert.True(t, decimal.NewFromInt(1000).Equal(o.Pricing.Shipping))
	assert.True(t, decimal.RequireFromString("187.5").Equal(o.Pricing.Tax))
	assert.True(t, decimal.RequireFromString("3687.5").Equal(o.Pricing.Total))
	assert.True(t, o.Fees.Shipping.Equal(o.Pricing.Shipping))
	assert.True(t, o.Fees.Tax.Equal(o.Pricing.Tax))

	// One fulfillment per vendor; their subtotals sum to the order subtotal.
	require.Len(t, o.Fulfillments, 2)
	sum := decimal.Zero
	for _, f := range o.Fulfillments {
		sum = sum.Add(f.Subtotal)
	}
	assert.True(t, sum.Equal(o.Pricing.Subtotal))

	require.Len(t, o.Timeline, 1)
	assert.Equal(t, StatusPending, o.Timeline[0].Status)
	assert.Equal(t, testNow, o.Timeline[0].At)

	assert.Equal(t, 1, source.consumed, "cart consumed after persist")
	_, err = repo.Get(ctx, o.ID)
	assert.NoError(t, err)
}

func TestService_CreateFromCart_WithCoupon(t *testing.T) {
	ctx := context.Background()
	c := testCart(t)
	cp, err := coupon.New("WELCOME10", coupon.KindPercentage, decimal.NewFromInt(10))
	require.NoError(t, err)
	c.ApplyCoupon(cp, testPricingEngine())

	svc := newTestOrderService(&stubCartSource{cart: c}, newMemOrderRepo())
	o, err := svc.CreateFromCart(ctx, "user-1", cart.Address{}, cart.Address{}, "card")
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(250).Equal(o.Pricing.Discount))
	assert.True(t, decimal.RequireFromString("168.75").Equal(o.Pricing.Tax))
	assert.True(t, decimal.RequireFromString("3418.75").Equal(o.Pricing.Total))
}

func TestService_CreateFromCart_SubCentPrices(t *testing.T) {
	ctx := context.Background()
	engine := testPricingEngine()
	c := cart.New("user-1", testNow)
	for _, in := range []cart.AddItemInput{
		{ProductID: "p1", VendorID: "vendor-a", Name: "Sachet", Price: decimal.RequireFromString("0.005"), Quantity: 1},
		{ProductID: "p2", VendorID: "vendor-b", Name: "Sachet", Price: decimal.RequireFromString("0.005"), Quantity: 1},
	} {
		require.NoError(t, c.AddItem(in, engine))
	}

	svc := newTestOrderService(&stubCartSource{cart: c}, newMemOrderRepo())
	o, err := svc.CreateFromCart(ctx, "user-1", cart.Address{}, cart.Address{}, "card")
	require.NoError(t, err)

	sum := decimal.Zero
	for _, f := range o.Fulfillments {
		sum = sum.Add(f.Subtotal)
	}
	assert.True(t, sum.Equal(o.Pricing.Subtotal),
		"fulfillment subtotals %s must partition the order subtotal %s", sum, o.Pricing.Subtotal)
	assert.Equal(t, "0.02", o.Pricing.Subtotal.String())
}

func TestService_CreateFromCart_CartClearFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	source := &stubCartSource{cart: testCart(t), consumeErr: cart.ErrVersionConflict}
	svc := newTestOrderService(source, repo)

	// The order is persisted before the cart is cleared; a failed clear must
	// not fail the checkout, or a retry would duplicate the order.
	o, err := svc.CreateFromCart(ctx, "user-1", cart.Address{}, cart.Address{}, "card")
	require.NoError(t, err)
	_, err = repo.Get(ctx, o.ID)
	assert.NoError(t, err)
}

func TestService_CreateFromCart_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		svc := newTestOrderService(&stubCartSource{cart: cart.New("user-1", testNow)}, newMemOrderRepo())
		_, err := svc.CreateFromCart(ctx, "user-1", cart.Address{}, cart.Address{}, "card")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "cart is empty", verr.Reason)
	})

	t.Run("missing payment method", func(t *testing.T) {
		svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, newMemOrderRepo())
		_, err := svc.CreateFromCart(ctx, "user-1", cart.Address{}, cart.Address{}, "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "payment method required", verr.Reason)
	})

	t.Run("no cart", func(t *testing.T) {
		svc := newTestOrderService(&stubCartSource{getErr: cart.ErrNotFound}, newMemOrderRepo())
		_, err := svc.CreateFromCart(ctx, "user-1", cart.Address{}, cart.Address{}, "card")
		assert.ErrorIs(t, err, cart.ErrNotFound)
	})
}

func TestService_CreateFromCart_RetriesNumberConflict(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	repo.createErrs = []error{ErrNumberConflict, ErrNumberConflict}
	source := &stubCartSource{cart: testCart(t)}
	svc := newTestOrderService(source, repo)

	o, err := svc.CreateFromCart(ctx, "user-1", cart.Address{}, cart.Address{}, "card")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.creates)
	assert.Equal(t, "MND-20260830143022-000003", o.Number, "number regenerated per attempt")
	assert.Equal(t, 1, source.consumed)
}

func TestService_CreateFromCart_GivesUpAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	repo.createErrs = []error{
		ErrNumberConflict, ErrNumberConflict, ErrNumberConflict,
		ErrNumberConflict, ErrNumberConflict,
	}
	source := &stubCartSource{cart: testCart(t)}
	svc := newTestOrderService(source, repo)

	_, err := svc.CreateFromCart(ctx, "user-1", cart.Address{}, cart.Address{}, "card")
	require.ErrorIs(t, err, ErrNumberConflict)
	assert.Equal(t, 0, source.consumed, "cart kept when checkout fails")
}

func checkoutOrder(t *testing.T, svc *Service) *Order {
	t.Helper()
	o, err := svc.CreateFromCart(context.Background(), "user-1", cart.Address{}, cart.Address{}, "card")
	require.NoError(t, err)
	return o
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, repo)
	o := checkoutOrder(t, svc)

	got, err := svc.UpdateStatus(ctx, o.ID, StatusConfirmed, "payment received", "system")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	require.Len(t, got.Timeline, 2)
	assert.Equal(t, "payment received", got.Timeline[1].Note)

	// Skipping ahead in the chain is rejected.
	_, err = svc.UpdateStatus(ctx, o.ID, StatusDelivered, "", "system")
	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "order", terr.Entity)

	_, err = svc.UpdateStatus(ctx, "missing", StatusConfirmed, "", "system")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, repo)
	o := checkoutOrder(t, svc)

	got, err := svc.UpdatePaymentStatus(ctx, o.ID, PaymentPaid, "psp-ref-991")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, got.Payment.Status)
	assert.Equal(t, "psp-ref-991", got.Payment.GatewayRef)

	_, err = svc.UpdatePaymentStatus(ctx, o.ID, PaymentFailed, "")
	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "payment", terr.Entity)
}

func TestService_UpdateFulfillmentStatus(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, repo)
	o := checkoutOrder(t, svc)

	got, err := svc.UpdateFulfillmentStatus(ctx, o.ID, "vendor-a", FulfillmentConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, FulfillmentConfirmed, got.FulfillmentFor("vendor-a").Status)
	assert.Equal(t, FulfillmentPending, got.FulfillmentFor("vendor-b").Status, "other vendors unaffected")

	// Tracking is attached alongside the status change.
	got, err = svc.UpdateFulfillmentStatus(ctx, o.ID, "vendor-a", FulfillmentProcessing, nil)
	require.NoError(t, err)
	got, err = svc.UpdateFulfillmentStatus(ctx, o.ID, "vendor-a", FulfillmentShipped, &Tracking{Carrier: "GIG", Number: "GIG-1001"})
	require.NoError(t, err)
	require.NotNil(t, got.FulfillmentFor("vendor-a").Tracking)
	assert.Equal(t, "GIG-1001", got.FulfillmentFor("vendor-a").Tracking.Number)

	_, err = svc.UpdateFulfillmentStatus(ctx, o.ID, "vendor-z", FulfillmentConfirmed, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateFulfillmentStatus(ctx, o.ID, "vendor-a", FulfillmentPending, nil)
	var terr *InvalidTransitionError
	assert.ErrorAs(t, err, &terr)
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order cancels with fulfillments", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, repo)
		o := checkoutOrder(t, svc)

		got, err := svc.Cancel(ctx, o.ID, "changed my mind", "support")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, "changed my mind", got.CancelReason)
		require.NotNil(t, got.CancelledAt)
		assert.Equal(t, testNow, *got.CancelledAt)
		for _, f := range got.Fulfillments {
			assert.Equal(t, FulfillmentCancelled, f.Status)
		}
		last := got.Timeline[len(got.Timeline)-1]
		assert.Equal(t, StatusCancelled, last.Status)
		assert.Equal(t, "support", last.Actor)
	})

	t.Run("empty actor defaults to user", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, repo)
		o := checkoutOrder(t, svc)

		got, err := svc.Cancel(ctx, o.ID, "changed my mind", "")
		require.NoError(t, err)
		assert.Equal(t, "user", got.Timeline[len(got.Timeline)-1].Actor)
	})

	t.Run("rejected once a fulfillment shipped", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, repo)
		o := checkoutOrder(t, svc)
		for _, target := range []FulfillmentStatus{FulfillmentConfirmed, FulfillmentProcessing, FulfillmentShipped} {
			_, err := svc.UpdateFulfillmentStatus(ctx, o.ID, "vendor-a", target, nil)
			require.NoError(t, err)
		}

		_, err := svc.Cancel(ctx, o.ID, "too late", "user")
		var terr *InvalidTransitionError
		require.ErrorAs(t, err, &terr)
		assert.Contains(t, terr.Reason, "vendor-a")
	})

	t.Run("terminal order", func(t *testing.T) {
		repo := newMemOrderRepo()
		svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, repo)
		o := checkoutOrder(t, svc)
		_, err := svc.Cancel(ctx, o.ID, "first", "user")
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, o.ID, "second", "user")
		var terr *InvalidTransitionError
		assert.ErrorAs(t, err, &terr)
	})
}

func TestService_ListByVendor(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrderRepo()
	svc := newTestOrderService(&stubCartSource{cart: testCart(t)}, repo)
	checkoutOrder(t, svc)

	got, err := svc.ListByVendor(ctx, "vendor-a")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.ListByVendor(ctx, "vendor-z")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFreezeItems(t *testing.T) {
	frozen := freezeItems([]cart.LineItem{
		{ID: "l1", ProductID: "p1", VendorID: "vendor-a", Price: decimal.RequireFromString("19.99"), Quantity: 3},
	})
	require.Len(t, frozen, 1)
	assert.True(t, decimal.RequireFromString("59.97").Equal(frozen[0].Subtotal))
}

func TestFlatCommission(t *testing.T) {
	c := FlatCommission{Rate: decimal.RequireFromString("10")}
	got := c.Commission("vendor-a", decimal.RequireFromString("2333.33"))
	assert.True(t, decimal.RequireFromString("233.33").Equal(got))
}
