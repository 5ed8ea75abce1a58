package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rima833/menders-cs-sub001/internal/domain/review"
)

const (
	reviewColumns = `id, user_id, product_id, order_id, rating, title, comment,
		images, helpful_up, helpful_down, status, vendor_response, created_at, updated_at`

	createReviewSQL = `INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	getReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	updateReviewSQL = `UPDATE reviews
		SET rating = $2, title = $3, comment = $4, images = $5,
			helpful_up = $6, helpful_down = $7, status = $8,
			vendor_response = $9, updated_at = $10
		WHERE id = $1`

	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1`

	listReviewsByProductSQL = `SELECT ` + reviewColumns + ` FROM reviews
		WHERE product_id = $1 ORDER BY created_at DESC`

	approvedRatingsSQL = `SELECT rating FROM reviews
		WHERE product_id = $1 AND status = 'approved'`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL. The
// (user_id, product_id) unique constraint enforces the one-review-per-pair
// rule at the storage layer.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create persists a new review. A second review for the same (user, product)
// pair is reported as review.ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	images, resp, err := marshalReviewDocs(rv)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, createReviewSQL,
		rv.ID, rv.UserID, rv.ProductID, rv.OrderID, rv.Rating, rv.Title, rv.Comment,
		images, rv.Helpful.Up, rv.Helpful.Down, string(rv.Status), resp,
		rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "reviews_user_id_product_id_key") {
			return review.ErrDuplicate
		}
		return fmt.Errorf("creating review %q: %w", rv.ID, err)
	}
	return nil
}

// Get loads a review by id. Returns review.ErrNotFound when absent.
func (r *ReviewRepository) Get(ctx context.Context, id string) (*review.Review, error) {
	rows, err := r.pool.Query(ctx, getReviewSQL, id)
	if err != nil {
		return nil, fmt.Errorf("loading review %q: %w", id, err)
	}

	rv, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, fmt.Errorf("loading review %q: %w", id, err)
	}
	return rv, nil
}

// Update persists the mutable review fields.
func (r *ReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	images, resp, err := marshalReviewDocs(rv)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, updateReviewSQL,
		rv.ID, rv.Rating, rv.Title, rv.Comment, images,
		rv.Helpful.Up, rv.Helpful.Down, string(rv.Status), resp, rv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating review %q: %w", rv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

// Delete removes a review. Returns review.ErrNotFound when absent.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteReviewSQL, id)
	if err != nil {
		return fmt.Errorf("deleting review %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

// ListByProduct returns all reviews for a product, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listReviewsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for product %q: %w", productID, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (review.Review, error) {
		rv, err := scanReview(row)
		if err != nil {
			return review.Review{}, err
		}
		return *rv, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting reviews: %w", err)
	}
	return out, nil
}

// ApprovedRatings returns the rating values of the product's approved reviews.
func (r *ReviewRepository) ApprovedRatings(ctx context.Context, productID string) ([]int, error) {
	rows, err := r.pool.Query(ctx, approvedRatingsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing approved ratings for product %q: %w", productID, err)
	}

	ratings, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("collecting approved ratings: %w", err)
	}
	return ratings, nil
}

func marshalReviewDocs(rv *review.Review) (images, resp []byte, err error) {
	if images, err = json.Marshal(rv.Images); err != nil {
		return nil, nil, fmt.Errorf("marshaling review images: %w", err)
	}
	if rv.VendorResponse != nil {
		if resp, err = json.Marshal(rv.VendorResponse); err != nil {
			return nil, nil, fmt.Errorf("marshaling vendor response: %w", err)
		}
	}
	return images, resp, nil
}

func scanReview(row pgx.CollectableRow) (*review.Review, error) {
	var (
		rv     review.Review
		status string
		images []byte
		resp   []byte
	)
	if err := row.Scan(
		&rv.ID, &rv.UserID, &rv.ProductID, &rv.OrderID, &rv.Rating, &rv.Title,
		&rv.Comment, &images, &rv.Helpful.Up, &rv.Helpful.Down, &status, &resp,
		&rv.CreatedAt, &rv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rv.Status = review.ModerationStatus(status)

	if len(images) > 0 {
		if err := json.Unmarshal(images, &rv.Images); err != nil {
			return nil, fmt.Errorf("unmarshaling review images: %w", err)
		}
	}
	if len(resp) > 0 {
		rv.VendorResponse = &review.VendorResponse{}
		if err := json.Unmarshal(resp, rv.VendorResponse); err != nil {
			return nil, fmt.Errorf("unmarshaling vendor response: %w", err)
		}
	}
	return &rv, nil
}
