package order

import "fmt"

// Status is the order-level lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// orderTransitions is the forward chain pending → confirmed → processing →
// shipped → delivered. Cancelled and returned are reachable from any
// non-terminal state and are handled in CanTransitionTo.
var orderTransitions = map[Status]Status{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

// CanTransitionTo reports whether the order status may move from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StatusCancelled || target == StatusReturned {
		return true
	}
	return orderTransitions[s] == target
}

// PaymentStatus is the independently driven payment state.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {PaymentRefunded, PaymentPartiallyRefunded},
}

// CanTransitionTo reports whether the payment status may move from s to target.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// FulfillmentStatus mirrors a subset of the order vocabulary, tracked per
// vendor. Fulfillment statuses advance independently; the order status is
// never auto-promoted from them.
type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentConfirmed  FulfillmentStatus = "confirmed"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
)

var fulfillmentChain = map[FulfillmentStatus]FulfillmentStatus{
	FulfillmentPending:    FulfillmentConfirmed,
	FulfillmentConfirmed:  FulfillmentProcessing,
	FulfillmentProcessing: FulfillmentShipped,
	FulfillmentShipped:    FulfillmentDelivered,
}

// fulfillmentRank orders the forward chain for past-a-stage comparisons.
var fulfillmentRank = map[FulfillmentStatus]int{
	FulfillmentPending:    0,
	FulfillmentConfirmed:  1,
	FulfillmentProcessing: 2,
	FulfillmentShipped:    3,
	FulfillmentDelivered:  4,
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentDelivered || s == FulfillmentCancelled
}

// CanTransitionTo reports whether a fulfillment may move from s to target.
func (s FulfillmentStatus) CanTransitionTo(target FulfillmentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == FulfillmentCancelled {
		return true
	}
	return fulfillmentChain[s] == target
}

// Past reports whether s has progressed beyond the given stage in the
// forward chain. Cancelled fulfillments are not past anything.
func (s FulfillmentStatus) Past(stage FulfillmentStatus) bool {
	r, ok := fulfillmentRank[s]
	if !ok {
		return false
	}
	return r > fulfillmentRank[stage]
}

// InvalidTransitionError indicates an illegal order, payment, or fulfillment
// status change. It is terminal; callers should not retry.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: cannot transition from %s to %s: %s", e.Entity, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("%s: cannot transition from %s to %s", e.Entity, e.From, e.To)
}
