// Package coupon defines discount coupons applied to cart and order subtotals.
package coupon

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/money"
)

// Kind enumerates the supported coupon discount strategies.
type Kind string

const (
	// KindPercentage discounts a percentage of the subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed discounts a fixed monetary amount capped at the subtotal.
	KindFixed Kind = "fixed"
)

// ErrUnknownCode is returned when a coupon code is not present in the catalog.
var ErrUnknownCode = errors.New("unknown coupon code")

// ValidationError indicates malformed coupon parameters. It is terminal:
// out-of-range values are rejected, never silently clamped.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid coupon %q: %s", e.Code, e.Reason)
}

// Coupon is a validated discount attached to a cart or order. Amount is the
// discount computed at application time against the subtotal it was applied to.
type Coupon struct {
	Code   string          `json:"code"`
	Kind   Kind            `json:"kind"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

var hundred = decimal.NewFromInt(100)

// New validates the coupon parameters and returns a Coupon ready to attach.
// A percentage value outside [0, 100] or a negative fixed value is rejected
// with a *ValidationError.
func New(code string, kind Kind, value decimal.Decimal) (*Coupon, error) {
	if code == "" {
		return nil, &ValidationError{Code: code, Reason: "code required"}
	}
	switch kind {
	case KindPercentage:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return nil, &ValidationError{Code: code, Reason: "percentage value must be in [0, 100]"}
		}
	case KindFixed:
		if value.IsNegative() {
			return nil, &ValidationError{Code: code, Reason: "fixed value must not be negative"}
		}
	default:
		return nil, &ValidationError{Code: code, Reason: fmt.Sprintf("unsupported kind %q", kind)}
	}
	return &Coupon{Code: code, Kind: kind, Value: value}, nil
}

// DiscountFor computes the discount this coupon grants against the given
// subtotal. The result never exceeds the subtotal and is never negative.
func (c *Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	switch c.Kind {
	case KindPercentage:
		return money.FloorAtZero(money.Round(money.Percent(subtotal, c.Value)))
	case KindFixed:
		return money.FloorAtZero(money.Min(c.Value, subtotal))
	default:
		return decimal.Zero
	}
}

// Rule is a promo-code catalog entry. Rules are ingested in bulk (see
// cmd/promo-ingest) and looked up by code at application time.
type Rule struct {
	Code   string
	Kind   Kind
	Value  decimal.Decimal
	Active bool
}

// Repository provides lookup of catalog rules by their code.
type Repository interface {
	// FindByCode looks up an active rule, case-insensitively.
	// Returns ErrUnknownCode when no matching active rule exists.
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

// FromRule builds a validated Coupon from a catalog rule.
func FromRule(rule *Rule) (*Coupon, error) {
	return New(rule.Code, rule.Kind, rule.Value)
}
