package httpapi

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/rima833/menders-cs-sub001/internal/domain/cart"
	"github.com/rima833/menders-cs-sub001/internal/domain/order"
	"github.com/rima833/menders-cs-sub001/internal/domain/pricing"
	"github.com/rima833/menders-cs-sub001/internal/domain/product"
	"github.com/rima833/menders-cs-sub001/internal/domain/review"
)

// Monetary amounts are emitted as fixed-point strings so clients never see
// binary floating point.

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encMoney(e *jx.Encoder, d decimal.Decimal) { e.Str(d.StringFixed(2)) }

func encTime(e *jx.Encoder, t time.Time) { e.Str(t.Format(time.RFC3339)) }

func encTotals(e *jx.Encoder, t pricing.Totals) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, t.Subtotal) })
		e.Field("discount", func(e *jx.Encoder) { encMoney(e, t.Discount) })
		e.Field("shipping", func(e *jx.Encoder) { encMoney(e, t.Shipping) })
		e.Field("tax", func(e *jx.Encoder) { encMoney(e, t.Tax) })
		e.Field("total", func(e *jx.Encoder) { encMoney(e, t.Total) })
	})
}

func encCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("user_id", func(e *jx.Encoder) { e.Str(c.UserID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range c.Items {
					encCartItem(e, it)
				}
			})
		})
		if c.Coupon != nil {
			e.Field("coupon", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("code", func(e *jx.Encoder) { e.Str(c.Coupon.Code) })
					e.Field("kind", func(e *jx.Encoder) { e.Str(string(c.Coupon.Kind)) })
					e.Field("value", func(e *jx.Encoder) { encMoney(e, c.Coupon.Value) })
					e.Field("amount", func(e *jx.Encoder) { encMoney(e, c.Coupon.Amount) })
				})
			})
		}
		e.Field("totals", func(e *jx.Encoder) { encTotals(e, c.Totals) })
		e.Field("item_count", func(e *jx.Encoder) { e.Int(c.ItemCount()) })
		e.Field("expires_at", func(e *jx.Encoder) { encTime(e, c.ExpiresAt) })
	})
}

func encCartItem(e *jx.Encoder, it cart.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("vendor_id", func(e *jx.Encoder) { e.Str(it.VendorID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		if it.Variant != nil {
			e.Field("variant", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("name", func(e *jx.Encoder) { e.Str(it.Variant.Name) })
					e.Field("value", func(e *jx.Encoder) { e.Str(it.Variant.Value) })
				})
			})
		}
		e.Field("price", func(e *jx.Encoder) { encMoney(e, it.Price) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
	})
}

func encOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("number", func(e *jx.Encoder) { e.Str(o.Number) })
		e.Field("user_id", func(e *jx.Encoder) { e.Str(o.UserID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					encOrderItem(e, it)
				}
			})
		})
		e.Field("pricing", func(e *jx.Encoder) { encTotals(e, o.Pricing) })
		e.Field("fees", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("shipping", func(e *jx.Encoder) { encMoney(e, o.Fees.Shipping) })
				e.Field("tax", func(e *jx.Encoder) { encMoney(e, o.Fees.Tax) })
			})
		})
		e.Field("payment", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("method", func(e *jx.Encoder) { e.Str(o.Payment.Method) })
				e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Payment.Status)) })
				if o.Payment.GatewayRef != "" {
					e.Field("gateway_ref", func(e *jx.Encoder) { e.Str(o.Payment.GatewayRef) })
				}
			})
		})
		e.Field("fulfillments", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range o.Fulfillments {
					encFulfillment(e, &o.Fulfillments[i])
				}
			})
		})
		e.Field("timeline", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, entry := range o.Timeline {
					e.Obj(func(e *jx.Encoder) {
						e.Field("status", func(e *jx.Encoder) { e.Str(string(entry.Status)) })
						if entry.Note != "" {
							e.Field("note", func(e *jx.Encoder) { e.Str(entry.Note) })
						}
						e.Field("actor", func(e *jx.Encoder) { e.Str(entry.Actor) })
						e.Field("at", func(e *jx.Encoder) { encTime(e, entry.At) })
					})
				}
			})
		})
		if o.CancelledAt != nil {
			e.Field("cancel_reason", func(e *jx.Encoder) { e.Str(o.CancelReason) })
			e.Field("cancelled_at", func(e *jx.Encoder) { encTime(e, *o.CancelledAt) })
		}
		e.Field("created_at", func(e *jx.Encoder) { encTime(e, o.CreatedAt) })
	})
}

func encOrderItem(e *jx.Encoder, it order.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("vendor_id", func(e *jx.Encoder) { e.Str(it.VendorID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("price", func(e *jx.Encoder) { encMoney(e, it.Price) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, it.Subtotal) })
	})
}

func encFulfillment(e *jx.Encoder, f *order.Fulfillment) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("vendor_id", func(e *jx.Encoder) { e.Str(f.VendorID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(f.Status)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range f.Items {
					encOrderItem(e, it)
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, f.Subtotal) })
		e.Field("shipping_fee", func(e *jx.Encoder) { encMoney(e, f.ShippingFee) })
		e.Field("commission", func(e *jx.Encoder) { encMoney(e, f.Commission) })
		if f.Tracking != nil {
			e.Field("tracking", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("carrier", func(e *jx.Encoder) { e.Str(f.Tracking.Carrier) })
					e.Field("number", func(e *jx.Encoder) { e.Str(f.Tracking.Number) })
				})
			})
		}
	})
}

func encReview(e *jx.Encoder, r *review.Review) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
		e.Field("user_id", func(e *jx.Encoder) { e.Str(r.UserID) })
		e.Field("product_id", func(e *jx.Encoder) { e.Str(r.ProductID) })
		e.Field("order_id", func(e *jx.Encoder) { e.Str(r.OrderID) })
		e.Field("rating", func(e *jx.Encoder) { e.Int(r.Rating) })
		if r.Title != "" {
			e.Field("title", func(e *jx.Encoder) { e.Str(r.Title) })
		}
		e.Field("comment", func(e *jx.Encoder) { e.Str(r.Comment) })
		e.Field("images", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, img := range r.Images {
					e.Str(img)
				}
			})
		})
		e.Field("helpful", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("up", func(e *jx.Encoder) { e.Int(r.Helpful.Up) })
				e.Field("down", func(e *jx.Encoder) { e.Int(r.Helpful.Down) })
			})
		})
		e.Field("status", func(e *jx.Encoder) { e.Str(string(r.Status)) })
		if r.VendorResponse != nil {
			e.Field("vendor_response", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("comment", func(e *jx.Encoder) { e.Str(r.VendorResponse.Comment) })
					e.Field("at", func(e *jx.Encoder) { encTime(e, r.VendorResponse.At) })
				})
			})
		}
		e.Field("created_at", func(e *jx.Encoder) { encTime(e, r.CreatedAt) })
	})
}

func encProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("vendor_id", func(e *jx.Encoder) { e.Str(p.VendorID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { encMoney(e, p.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("rating", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("average", func(e *jx.Encoder) { e.Str(p.Rating.Average.String()) })
				e.Field("count", func(e *jx.Encoder) { e.Int(p.Rating.Count) })
			})
		})
	})
}
