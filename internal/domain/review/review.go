// Package review implements the product review ledger and the rating
// aggregator that keeps product rating summaries consistent with the set of
// approved reviews.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested review does not exist.
	ErrNotFound = errors.New("review not found")
	// ErrDuplicate is returned when a user already reviewed the product.
	// At most one review exists per (user, product) pair.
	ErrDuplicate = errors.New("duplicate review")
)

// ValidationError indicates malformed review input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid review: %s", e.Reason)
}

// ModerationStatus is the review's moderation state. Only approved reviews
// count toward a product's rating summary.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// HelpfulTally counts helpful / not-helpful votes on a review.
type HelpfulTally struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// VendorResponse is the vendor's optional public reply to a review.
type VendorResponse struct {
	Comment string    `json:"comment"`
	At      time.Time `json:"at"`
}

// Review is one user's verified-purchase review of a product. The review is
// owned by its author; the product only references it for aggregate display.
type Review struct {
	ID             string
	UserID         string
	ProductID      string
	OrderID        string
	Rating         int
	Title          string
	Comment        string
	Images         []string
	Helpful        HelpfulTally
	Status         ModerationStatus
	VendorResponse *VendorResponse
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository defines persistence operations for reviews. Create must enforce
// the (user, product) uniqueness constraint and return ErrDuplicate on
// violation.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	Get(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	// ApprovedRatings returns the rating values of the product's approved
	// reviews, the input to the aggregate recompute.
	ApprovedRatings(ctx context.Context, productID string) ([]int, error)
}
