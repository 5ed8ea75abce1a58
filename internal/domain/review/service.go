package review

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/money"
	"github.com/rima833/menders-cs-sub001/internal/domain/product"
)

// Service owns review mutations and the rating aggregator. Every mutation
// that can change a product's approved review set explicitly triggers a
// recompute of that product's rating summary before returning; the summary is
// never patched incrementally.
type Service struct {
	reviews  Repository
	products product.RatingWriter
	now      func() time.Time

	// recomputeMu serializes rating recomputes per product. A stale summary
	// from an unserialized write would self-heal on the next trigger, but
	// serializing per product keeps it from appearing in the first place.
	recomputeMu sync.Map // productID -> *sync.Mutex
}

// NewService creates a review Service.
func NewService(reviews Repository, products product.RatingWriter) *Service {
	return &Service{reviews: reviews, products: products, now: time.Now}
}

// CreateInput carries the attributes for a new review.
type CreateInput struct {
	UserID    string
	ProductID string
	OrderID   string
	Rating    int
	Title     string
	Comment   string
	Images    []string
}

// Create records a new review in pending moderation status. A second review
// for the same (user, product) pair fails with ErrDuplicate.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Review, error) {
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}
	if in.Comment == "" {
		return nil, &ValidationError{Reason: "comment required"}
	}
	if in.UserID == "" || in.ProductID == "" {
		return nil, &ValidationError{Reason: "user and product required"}
	}

	now := s.now()
	r := &Review{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		ProductID: in.ProductID,
		OrderID:   in.OrderID,
		Rating:    in.Rating,
		Title:     in.Title,
		Comment:   in.Comment,
		Images:    in.Images,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}
	// A pending review does not change the approved set, but the recompute is
	// cheap and keeps the trigger rule uniform across all mutations.
	if err := s.recomputeRating(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateInput carries author-editable review fields. Nil fields are left as-is.
type UpdateInput struct {
	Rating  *int
	Title   *string
	Comment *string
	Images  []string
}

// Update edits a review's content and re-aggregates the product rating.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Review, error) {
	r, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		r.Rating = *in.Rating
	}
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Comment != nil {
		if *in.Comment == "" {
			return nil, &ValidationError{Reason: "comment required"}
		}
		r.Comment = *in.Comment
	}
	if in.Images != nil {
		r.Images = in.Images
	}
	r.UpdatedAt = s.now()

	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.recomputeRating(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// SetStatus moves a review through moderation and re-aggregates, since
// approving or rejecting changes the approved set.
func (s *Service) SetStatus(ctx context.Context, id string, status ModerationStatus) (*Review, error) {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return nil, &ValidationError{Reason: "unknown moderation status"}
	}

	r, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Status = status
	r.UpdatedAt = s.now()

	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.recomputeRating(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// Respond attaches the vendor's public reply.
func (s *Service) Respond(ctx context.Context, id, comment string) (*Review, error) {
	if comment == "" {
		return nil, &ValidationError{Reason: "response comment required"}
	}
	r, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.VendorResponse = &VendorResponse{Comment: comment, At: s.now()}
	r.UpdatedAt = s.now()
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Vote records a helpful / not-helpful vote.
func (s *Service) Vote(ctx context.Context, id string, helpful bool) (*Review, error) {
	r, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if helpful {
		r.Helpful.Up++
	} else {
		r.Helpful.Down++
	}
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a review and re-aggregates the product rating.
func (s *Service) Delete(ctx context.Context, id string) error {
	r, err := s.reviews.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	return s.recomputeRating(ctx, r.ProductID)
}

// ListByProduct returns all reviews for a product.
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

// recomputeRating recalculates the product's rating summary over exactly its
// approved reviews: arithmetic mean rounded to one decimal place, plus count.
// An empty approved set resets the summary to zero.
func (s *Service) recomputeRating(ctx context.Context, productID string) error {
	mu := s.mutexFor(productID)
	mu.Lock()
	defer mu.Unlock()

	ratings, err := s.reviews.ApprovedRatings(ctx, productID)
	if err != nil {
		return errors.Wrap(err, "list approved ratings")
	}

	summary := product.Rating{Average: decimal.Zero}
	if len(ratings) > 0 {
		sum := int64(0)
		for _, r := range ratings {
			sum += int64(r)
		}
		avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(ratings))))
		summary = product.Rating{
			Average: money.RoundRating(avg),
			Count:   len(ratings),
		}
	}

	if err := s.products.UpdateRating(ctx, productID, summary); err != nil {
		return errors.Wrap(err, "write rating summary")
	}
	return nil
}

func (s *Service) mutexFor(productID string) *sync.Mutex {
	mu, _ := s.recomputeMu.LoadOrStore(productID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Reason: "rating must be between 1 and 5"}
	}
	return nil
}
