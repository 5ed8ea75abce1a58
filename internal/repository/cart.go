package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
)

const (
	getCartByUserSQL = `SELECT id, user_id, items, coupon, totals, shipping_address, version, created_at, expires_at
		FROM carts WHERE user_id = $1`

	insertCartSQL = `INSERT INTO carts (id, user_id, items, coupon, totals, shipping_address, version, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateCartSQL = `UPDATE carts
		SET items = $2, coupon = $3, totals = $4, shipping_address = $5, version = $6
		WHERE id = $1 AND version = $7`

	deleteCartSQL = `DELETE FROM carts WHERE id = $1`

	deleteExpiredCartsSQL = `DELETE FROM carts WHERE expires_at < $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Line items,
// coupon, totals, and the address draft live in JSONB columns; the version
// column carries the compare-and-swap that serializes concurrent mutations.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser loads the user's cart. Returns cart.ErrNotFound when absent.
func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart for user %q: %w", userID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("loading cart for user %q: %w", userID, err)
	}
	return c, nil
}

// Save persists the cart with compare-and-swap semantics on Version. A fresh
// cart (version 0) is inserted at version 1; an existing cart is updated only
// when the stored version still matches. Both paths return
// cart.ErrVersionConflict when a concurrent writer won the race.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	items, cpn, totals, addr, err := marshalCartDocs(c)
	if err != nil {
		return err
	}

	if c.Version == 0 {
		_, err := r.pool.Exec(ctx, insertCartSQL,
			c.ID, c.UserID, items, cpn, totals, addr, int64(1), c.CreatedAt, c.ExpiresAt,
		)
		if err != nil {
			if isUniqueViolation(err, "") {
				return cart.ErrVersionConflict
			}
			return fmt.Errorf("inserting cart %q: %w", c.ID, err)
		}
		c.Version = 1
		return nil
	}

	tag, err := r.pool.Exec(ctx, updateCartSQL,
		c.ID, items, cpn, totals, addr, c.Version+1, c.Version,
	)
	if err != nil {
		return fmt.Errorf("updating cart %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrVersionConflict
	}
	c.Version++
	return nil
}

// Delete removes the cart row entirely.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteCartSQL, id); err != nil {
		return fmt.Errorf("deleting cart %q: %w", id, err)
	}
	return nil
}

// DeleteExpired removes carts past their expiry and reports how many.
func (r *CartRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteExpiredCartsSQL, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired carts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func marshalCartDocs(c *cart.Cart) (items, cpn, totals, addr []byte, err error) {
	if items, err = json.Marshal(c.Items); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling cart items: %w", err)
	}
	if c.Coupon != nil {
		if cpn, err = json.Marshal(c.Coupon); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshaling cart coupon: %w", err)
		}
	}
	if totals, err = json.Marshal(c.Totals); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling cart totals: %w", err)
	}
	if c.ShippingAddress != nil {
		if addr, err = json.Marshal(c.ShippingAddress); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshaling cart address: %w", err)
		}
	}
	return items, cpn, totals, addr, nil
}

func scanCart(row pgx.CollectableRow) (*cart.Cart, error) {
	var (
		c      cart.Cart
		items  []byte
		cpn    []byte
		totals []byte
		addr   []byte
	)
	if err := row.Scan(
		&c.ID, &c.UserID, &items, &cpn, &totals, &addr,
		&c.Version, &c.CreatedAt, &c.ExpiresAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling cart items: %w", err)
	}
	if len(cpn) > 0 {
		c.Coupon = &coupon.Coupon{}
		if err := json.Unmarshal(cpn, c.Coupon); err != nil {
			return nil, fmt.Errorf("unmarshaling cart coupon: %w", err)
		}
	}
	if err := json.Unmarshal(totals, &c.Totals); err != nil {
		return nil, fmt.Errorf("unmarshaling cart totals: %w", err)
	}
	if len(addr) > 0 {
		c.ShippingAddress = &cart.Address{}
		if err := json.Unmarshal(addr, c.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshaling cart address: %w", err)
		}
	}
	return &c, nil
}
