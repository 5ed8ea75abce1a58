package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
	"github.com/rima833/menders-cs-sub001/internal/domain/pricing"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testEngine() *pricing.Engine {
	return pricing.NewEngine(
		pricing.FlatShipping{Fee: decimal.NewFromInt(500)},
		decimal.RequireFromString("7.5"),
	)
}

func addInput(productID, vendorID string, price int64, qty int) AddItemInput {
	return AddItemInput{
		ProductID: productID,
		VendorID:  vendorID,
		Name:      "item " + productID,
		Price:     decimal.NewFromInt(price),
		Quantity:  qty,
	}
}

func TestNew(t *testing.T) {
	c := New("user-1", testNow)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "user-1", c.UserID)
	assert.Empty(t, c.Items)
	assert.Equal(t, testNow.Add(TTL), c.ExpiresAt)
}

func TestCart_AddItem(t *testing.T) {
	engine := testEngine()

	t.Run("appends new line", func(t *testing.T) {
		c := New("user-1", testNow)
		require.NoError(t, c.AddItem(addInput("p1", "vendor-a", 1000, 2), engine))
		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, c.Items[0].Quantity)
		assert.True(t, decimal.NewFromInt(2000).Equal(c.Totals.Subtotal))
	})

	t.Run("merges same product and variant", func(t *testing.T) {
		c := New("user-1", testNow)
		require.NoError(t, c.AddItem(addInput("p1", "vendor-a", 1000, 1), engine))
		require.NoError(t, c.AddItem(addInput("p1", "vendor-a", 1000, 2), engine))
		require.Len(t, c.Items, 1)
		assert.Equal(t, 3, c.Items[0].Quantity)
	})

	t.Run("different variant gets its own line", func(t *testing.T) {
		c := New("user-1", testNow)
		small := addInput("p1", "vendor-a", 1000, 1)
		small.Variant = &Variant{Name: "size", Value: "small"}
		large := addInput("p1", "vendor-a", 1200, 1)
		large.Variant = &Variant{Name: "size", Value: "large"}
		require.NoError(t, c.AddItem(small, engine))
		require.NoError(t, c.AddItem(large, engine))
		assert.Len(t, c.Items, 2)
	})

	t.Run("normalizes sub-cent prices", func(t *testing.T) {
		c := New("user-1", testNow)
		in := addInput("p1", "vendor-a", 0, 1)
		in.Price = decimal.RequireFromString("0.005")
		require.NoError(t, c.AddItem(in, engine))
		assert.Equal(t, "0.01", c.Items[0].Price.String())

		in2 := addInput("p2", "vendor-b", 0, 1)
		in2.Price = decimal.RequireFromString("0.005")
		require.NoError(t, c.AddItem(in2, engine))
		assert.Equal(t, "0.02", c.Totals.Subtotal.String())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		c := New("user-1", testNow)
		var verr *ValidationError
		assert.ErrorAs(t, c.AddItem(addInput("p1", "vendor-a", 1000, 0), engine), &verr)
		assert.ErrorAs(t, c.AddItem(addInput("", "vendor-a", 1000, 1), engine), &verr)
		assert.ErrorAs(t, c.AddItem(addInput("p1", "vendor-a", -5, 1), engine), &verr)
		assert.Empty(t, c.Items)
	})
}

func TestCart_RemoveItem(t *testing.T) {
	engine := testEngine()
	c := New("user-1", testNow)
	require.NoError(t, c.AddItem(addInput("p1", "vendor-a", 1000, 1), engine))
	id := c.Items[0].ID

	// Unknown id is a no-op.
	c.RemoveItem("missing", engine)
	assert.Len(t, c.Items, 1)

	c.RemoveItem(id, engine)
	assert.Empty(t, c.Items)
	assert.True(t, c.Totals.Total.IsZero())
}

func TestCart_UpdateQuantity(t *testing.T) {
	engine := testEngine()
	c := New("user-1", testNow)
	require.NoError(t, c.AddItem(addInput("p1", "vendor-a", 1000, 1), engine))
	id := c.Items[0].ID

	c.UpdateQuantity(id, 5, engine)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(5000).Equal(c.Totals.Subtotal))

	// Zero or negative quantity removes the line.
	c.UpdateQuantity(id, 0, engine)
	assert.Empty(t, c.Items)
}

func TestCart_ApplyCoupon(t *testing.T) {
	engine := testEngine()
	c := New("user-1", testNow)
	require.NoError(t, c.AddItem(addInput("p1", "vendor-a", 2500, 1), engine))

	cp, err := coupon.New("WELCOME10", coupon.KindPercentage, decimal.NewFromInt(10))
	require.NoError(t, err)
	c.ApplyCoupon(cp, engine)

	assert.True(t, decimal.NewFromInt(250).Equal(c.Totals.Discount))
	assert.True(t, decimal.NewFromInt(250).Equal(c.Coupon.Amount), "coupon amount stamped at apply time")

	// Later mutations refresh the stamped amount.
	require.NoError(t, c.AddItem(addInput("p2", "vendor-a", 2500, 1), engine))
	assert.True(t, decimal.NewFromInt(500).Equal(c.Coupon.Amount))
}

func TestCart_Clear(t *testing.T) {
	engine := testEngine()
	c := New("user-1", testNow)
	require.NoError(t, c.AddItem(addInput("p1", "vendor-a", 1000, 2), engine))
	cp, err := coupon.New("CLEAN15", coupon.KindPercentage, decimal.NewFromInt(15))
	require.NoError(t, err)
	c.ApplyCoupon(cp, engine)

	c.Clear(engine)

	assert.Empty(t, c.Items)
	assert.Nil(t, c.Coupon, "clear detaches the coupon")
	assert.True(t, c.Totals.Total.IsZero())
}

func TestCart_ItemCount(t *testing.T) {
	engine := testEngine()
	c := New("user-1", testNow)
	require.NoError(t, c.AddItem(addInput("p1", "vendor-a", 1000, 2), engine))
	require.NoError(t, c.AddItem(addInput("p2", "vendor-b", 500, 3), engine))
	assert.Equal(t, 5, c.ItemCount())
}
