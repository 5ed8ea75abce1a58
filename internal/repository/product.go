package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rima833/menders-cs-sub001/internal/domain/product"
)

const (
	getProductSQL = `SELECT id, vendor_id, name, price, category, rating_average, rating_count
		FROM products WHERE id = $1`

	listProductsSQL = `SELECT id, vendor_id, name, price, category, rating_average, rating_count
		FROM products ORDER BY name`

	updateProductRatingSQL = `UPDATE products
		SET rating_average = $2, rating_count = $3 WHERE id = $1`
)

var (
	_ product.Repository   = (*ProductRepository)(nil)
	_ product.RatingWriter = (*ProductRepository)(nil)
)

// ProductRepository implements the product read interface and the rating
// writer backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID loads a product. Returns product.ErrNotFound when absent.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("loading product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("loading product %q: %w", id, err)
	}
	return p, nil
}

// List returns the full catalog ordered by name.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Product, error) {
		p, err := scanProduct(row)
		if err != nil {
			return product.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting products: %w", err)
	}
	return out, nil
}

// UpdateRating writes a recomputed rating summary onto the product.
func (r *ProductRepository) UpdateRating(ctx context.Context, productID string, rating product.Rating) error {
	tag, err := r.pool.Exec(ctx, updateProductRatingSQL, productID, rating.Average, rating.Count)
	if err != nil {
		return fmt.Errorf("updating rating for product %q: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (*product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.VendorID, &p.Name, &p.Price, &p.Category,
		&p.Rating.Average, &p.Rating.Count,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
