// Package httpapi exposes the cart, order, and review services over a thin
// JSON HTTP surface. It owns no business rules: requests are decoded, handed
// to the domain services, and the results (or mapped errors) are streamed
// back with a jx encoder.
package httpapi

import (
	"net/http"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/order"
	"github.com/rima833/menders-cs-sub001/internal/domain/product"
	"github.com/rima833/menders-cs-sub001/internal/domain/review"
)

// Handler wires the domain services to HTTP routes.
type Handler struct {
	carts    *cart.Service
	orders   *order.Service
	reviews  *review.Service
	products product.Repository
}

// NewHandler constructs a Handler with the required domain services.
func NewHandler(
	carts *cart.Service,
	orders *order.Service,
	reviews *review.Service,
	products product.Repository,
) *Handler {
	return &Handler{
		carts:    carts,
		orders:   orders,
		reviews:  reviews,
		products: products,
	}
}

// Routes registers all API routes on the mux under /api.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/{userID}/cart", h.getCart)
	mux.HandleFunc("POST /api/users/{userID}/cart/items", h.addCartItem)
	mux.HandleFunc("DELETE /api/users/{userID}/cart/items/{itemID}", h.removeCartItem)
	mux.HandleFunc("PATCH /api/users/{userID}/cart/items/{itemID}", h.updateCartQuantity)
	mux.HandleFunc("POST /api/users/{userID}/cart/coupon", h.applyCoupon)
	mux.HandleFunc("PUT /api/users/{userID}/cart/address", h.setCartAddress)
	mux.HandleFunc("DELETE /api/users/{userID}/cart", h.clearCart)

	mux.HandleFunc("POST /api/users/{userID}/orders", h.checkout)
	mux.HandleFunc("GET /api/orders/{orderID}", h.getOrder)
	mux.HandleFunc("GET /api/users/{userID}/orders", h.listUserOrders)
	mux.HandleFunc("GET /api/vendors/{vendorID}/orders", h.listVendorOrders)
	mux.HandleFunc("POST /api/orders/{orderID}/status", h.updateOrderStatus)
	mux.HandleFunc("POST /api/orders/{orderID}/payment", h.updatePayment)
	mux.HandleFunc("POST /api/orders/{orderID}/fulfillments/{vendorID}", h.updateFulfillment)
	mux.HandleFunc("POST /api/orders/{orderID}/cancel", h.cancelOrder)

	mux.HandleFunc("POST /api/reviews", h.createReview)
	mux.HandleFunc("PATCH /api/reviews/{reviewID}", h.updateReview)
	mux.HandleFunc("POST /api/reviews/{reviewID}/status", h.moderateReview)
	mux.HandleFunc("POST /api/reviews/{reviewID}/response", h.respondReview)
	mux.HandleFunc("POST /api/reviews/{reviewID}/vote", h.voteReview)
	mux.HandleFunc("DELETE /api/reviews/{reviewID}", h.deleteReview)
	mux.HandleFunc("GET /api/products/{productID}/reviews", h.listProductReviews)
	mux.HandleFunc("GET /api/products/{productID}", h.getProduct)
	mux.HandleFunc("GET /api/products", h.listProducts)
}
