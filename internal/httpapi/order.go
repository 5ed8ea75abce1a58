package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/order"
)

type checkoutRequest struct {
	ShippingAddress cart.Address `json:"shipping_address"`
	BillingAddress  cart.Address `json:"billing_address"`
	PaymentMethod   string       `json:"payment_method"`
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
	Actor  string `json:"actor,omitempty"`
}

type paymentRequest struct {
	Status     string `json:"status"`
	GatewayRef string `json:"gateway_ref,omitempty"`
}

type fulfillmentRequest struct {
	Status   string          `json:"status"`
	Tracking *order.Tracking `json:"tracking,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	o, err := h.orders.CreateFromCart(r.Context(), r.PathValue("userID"),
		req.ShippingAddress, req.BillingAddress, req.PaymentMethod)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) listUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrderList(e, orders) })
}

func (h *Handler) listVendorOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByVendor(r.Context(), r.PathValue("vendorID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrderList(e, orders) })
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	actor := req.Actor
	if actor == "" {
		actor = "system"
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("orderID"),
		order.Status(req.Status), req.Note, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	o, err := h.orders.UpdatePaymentStatus(r.Context(), r.PathValue("orderID"),
		order.PaymentStatus(req.Status), req.GatewayRef)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) updateFulfillment(w http.ResponseWriter, r *http.Request) {
	var req fulfillmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	o, err := h.orders.UpdateFulfillmentStatus(r.Context(), r.PathValue("orderID"),
		r.PathValue("vendorID"), order.FulfillmentStatus(req.Status), req.Tracking)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	o, err := h.orders.Cancel(r.Context(), r.PathValue("orderID"), req.Reason, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}

func encOrderList(e *jx.Encoder, orders []order.Order) {
	e.Arr(func(e *jx.Encoder) {
		for i := range orders {
			encOrder(e, &orders[i])
		}
	})
}
