package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
	"github.com/rima833/menders-cs-sub001/internal/domain/order"
	"github.com/rima833/menders-cs-sub001/internal/domain/product"
	"github.com/rima833/menders-cs-sub001/internal/domain/review"
)

// writeError maps a domain error onto an HTTP status and a JSON error body.
// Retryable conflicts map to 409 so clients can distinguish them from
// terminal validation failures.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	retryable := false

	var (
		couponErr     *coupon.ValidationError
		cartErr       *cart.ValidationError
		orderErr      *order.ValidationError
		reviewErr     *review.ValidationError
		transitionErr *order.InvalidTransitionError
	)

	switch {
	case errors.As(err, &couponErr),
		errors.As(err, &cartErr),
		errors.As(err, &orderErr),
		errors.As(err, &reviewErr):
		code = http.StatusUnprocessableEntity
	case errors.As(err, &transitionErr):
		code = http.StatusConflict
	case errors.Is(err, cart.ErrVersionConflict), errors.Is(err, order.ErrNumberConflict):
		code = http.StatusConflict
		retryable = true
	case errors.Is(err, review.ErrDuplicate):
		code = http.StatusConflict
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, coupon.ErrUnknownCode):
		code = http.StatusNotFound
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		if retryable {
			e.Field("retryable", func(e *jx.Encoder) { e.Bool(true) })
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// badRequest reports a malformed request body or parameter.
func badRequest(w http.ResponseWriter, msg string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusBadRequest) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write(e.Bytes())
}
