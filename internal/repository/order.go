package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rima833/menders-cs-sub001/internal/domain/order"
)

const (
	orderColumns = `id, number, user_id, items, pricing, fees, payment, status,
		fulfillments, timeline, shipping_address, billing_address,
		cancel_reason, cancelled_at, created_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	updateOrderSQL = `UPDATE orders
		SET payment = $2, status = $3, fulfillments = $4, timeline = $5,
			cancel_reason = $6, cancelled_at = $7
		WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listOrdersByVendorSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(fulfillments) AS f
			WHERE f->>'vendor_id' = $1
		)
		ORDER BY created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// frozen items, fulfillments, timeline, addresses, and payment sub-record are
// stored as JSONB documents; the order number carries a unique constraint.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. A collision on the number unique constraint is
// reported as order.ErrNumberConflict so the service can regenerate.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	docs, err := marshalOrderDocs(o)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Number, o.UserID, docs.items, docs.pricing, docs.fees, docs.payment,
		string(o.Status), docs.fulfillments, docs.timeline,
		docs.shippingAddr, docs.billingAddr,
		o.CancelReason, o.CancelledAt, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "orders_number_key") {
			return order.ErrNumberConflict
		}
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get loads an order by id. Returns order.ErrNotFound when absent.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("loading order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("loading order %q: %w", id, err)
	}
	return o, nil
}

// Update persists the mutable order fields: payment, statuses, fulfillments,
// timeline, and the cancellation stamps. Financial fields never change after
// creation and are deliberately absent from the statement.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	docs, err := marshalOrderDocs(o)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, docs.payment, string(o.Status), docs.fulfillments, docs.timeline,
		o.CancelReason, o.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return collectOrders(rows)
}

// ListByVendor returns orders containing a fulfillment for the vendor,
// newest first.
func (r *OrderRepository) ListByVendor(ctx context.Context, vendorID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByVendorSQL, vendorID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for vendor %q: %w", vendorID, err)
	}
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]order.Order, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return order.Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting orders: %w", err)
	}
	return out, nil
}

type orderDocs struct {
	items        []byte
	pricing      []byte
	fees         []byte
	payment      []byte
	fulfillments []byte
	timeline     []byte
	shippingAddr []byte
	billingAddr  []byte
}

func marshalOrderDocs(o *order.Order) (*orderDocs, error) {
	var (
		d   orderDocs
		err error
	)
	marshal := func(name string, v any) []byte {
		if err != nil {
			return nil
		}
		var b []byte
		if b, err = json.Marshal(v); err != nil {
			err = fmt.Errorf("marshaling order %s: %w", name, err)
		}
		return b
	}

	d.items = marshal("items", o.Items)
	d.pricing = marshal("pricing", o.Pricing)
	d.fees = marshal("fees", o.Fees)
	d.payment = marshal("payment", o.Payment)
	d.fulfillments = marshal("fulfillments", o.Fulfillments)
	d.timeline = marshal("timeline", o.Timeline)
	d.shippingAddr = marshal("shipping address", o.ShippingAddress)
	d.billingAddr = marshal("billing address", o.BillingAddress)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		o      order.Order
		status string
		d      orderDocs
	)
	if err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &d.items, &d.pricing, &d.fees, &d.payment,
		&status, &d.fulfillments, &d.timeline, &d.shippingAddr, &d.billingAddr,
		&o.CancelReason, &o.CancelledAt, &o.CreatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = order.Status(status)

	var err error
	unmarshal := func(name string, b []byte, v any) {
		if err != nil || len(b) == 0 {
			return
		}
		if uerr := json.Unmarshal(b, v); uerr != nil {
			err = fmt.Errorf("unmarshaling order %s: %w", name, uerr)
		}
	}

	unmarshal("items", d.items, &o.Items)
	unmarshal("pricing", d.pricing, &o.Pricing)
	unmarshal("fees", d.fees, &o.Fees)
	unmarshal("payment", d.payment, &o.Payment)
	unmarshal("fulfillments", d.fulfillments, &o.Fulfillments)
	unmarshal("timeline", d.timeline, &o.Timeline)
	unmarshal("shipping address", d.shippingAddr, &o.ShippingAddress)
	unmarshal("billing address", d.billingAddr, &o.BillingAddress)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
