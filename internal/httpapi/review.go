package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/rima833/menders-cs-sub001/internal/domain/review"
)

type createReviewRequest struct {
	UserID    string   `json:"user_id"`
	ProductID string   `json:"product_id"`
	OrderID   string   `json:"order_id"`
	Rating    int      `json:"rating"`
	Title     string   `json:"title,omitempty"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images,omitempty"`
}

type updateReviewRequest struct {
	Rating  *int     `json:"rating,omitempty"`
	Title   *string  `json:"title,omitempty"`
	Comment *string  `json:"comment,omitempty"`
	Images  []string `json:"images,omitempty"`
}

type moderateReviewRequest struct {
	Status string `json:"status"`
}

type respondReviewRequest struct {
	Comment string `json:"comment"`
}

type voteReviewRequest struct {
	Helpful bool `json:"helpful"`
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	rv, err := h.reviews.Create(r.Context(), review.CreateInput{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		Images:    req.Images,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encReview(e, rv) })
}

func (h *Handler) updateReview(w http.ResponseWriter, r *http.Request) {
	var req updateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	rv, err := h.reviews.Update(r.Context(), r.PathValue("reviewID"), review.UpdateInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
		Images:  req.Images,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encReview(e, rv) })
}

func (h *Handler) moderateReview(w http.ResponseWriter, r *http.Request) {
	var req moderateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	rv, err := h.reviews.SetStatus(r.Context(), r.PathValue("reviewID"), review.ModerationStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encReview(e, rv) })
}

func (h *Handler) respondReview(w http.ResponseWriter, r *http.Request) {
	var req respondReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	rv, err := h.reviews.Respond(r.Context(), r.PathValue("reviewID"), req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encReview(e, rv) })
}

func (h *Handler) voteReview(w http.ResponseWriter, r *http.Request) {
	var req voteReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	rv, err := h.reviews.Vote(r.Context(), r.PathValue("reviewID"), req.Helpful)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encReview(e, rv) })
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.Delete(r.Context(), r.PathValue("reviewID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProductReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListByProduct(r.Context(), r.PathValue("productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range reviews {
				encReview(e, &reviews[i])
			}
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encProduct(e, p) })
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range products {
				encProduct(e, &products[i])
			}
		})
	})
}
