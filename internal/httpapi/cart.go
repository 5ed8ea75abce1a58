package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/coupon"
)

type addItemRequest struct {
	ProductID string          `json:"product_id"`
	VendorID  string          `json:"vendor_id"`
	Name      string          `json:"name"`
	Variant   *cart.Variant   `json:"variant,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
	// Kind and Value are optional; when absent the code is resolved against
	// the promo catalog instead.
	Kind  coupon.Kind      `json:"kind,omitempty"`
	Value *decimal.Decimal `json:"value,omitempty"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := h.carts.AddItem(r.Context(), r.PathValue("userID"), cart.AddItemInput{
		ProductID: req.ProductID,
		VendorID:  req.VendorID,
		Name:      req.Name,
		Variant:   req.Variant,
		Price:     req.Price,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), r.PathValue("userID"), r.PathValue("itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) updateCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), r.PathValue("userID"), r.PathValue("itemID"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Code == "" {
		badRequest(w, "coupon code required")
		return
	}

	var (
		c   *cart.Cart
		err error
	)
	if req.Kind != "" && req.Value != nil {
		c, err = h.carts.ApplyCoupon(r.Context(), r.PathValue("userID"), req.Code, req.Kind, *req.Value)
	} else {
		c, err = h.carts.ApplyCouponCode(r.Context(), r.PathValue("userID"), req.Code)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) setCartAddress(w http.ResponseWriter, r *http.Request) {
	var addr cart.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	c, err := h.carts.SetShippingAddress(r.Context(), r.PathValue("userID"), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Clear(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}
