package models

// OrderStatus represents where an order sits in the fulfillment pipeline.
// The values map one-to-one to the columns of the admin Kanban board.
type OrderStatus string

const (
	StatusPendingApproval OrderStatus = "pending_approval"
	StatusApproved        OrderStatus = "approved"
	StatusPrinting        OrderStatus = "printing"
	StatusPrinted         OrderStatus = "printed"
	StatusReadyToShip     OrderStatus = "ready_to_ship"
	StatusShipped         OrderStatus = "shipped"
	StatusDelivered       OrderStatus = "delivered"
	StatusPaid            OrderStatus = "paid"
	StatusRejected        OrderStatus = "rejected"
	StatusCancelled       OrderStatus = "cancelled"
)

// orderStatusFlow is the required forward order of the pipeline. Forward
// transitions must follow this sequence exactly one step at a time.
var orderStatusFlow = []OrderStatus{
	StatusPendingApproval,
	StatusApproved,
	StatusPrinting,
	StatusPrinted,
	StatusReadyToShip,
	StatusShipped,
	StatusDelivered,
	StatusPaid,
}

// OrderStatuses returns every status in Kanban column order, including the
// two absorbing failure columns.
func OrderStatuses() []OrderStatus {
	statuses := make([]OrderStatus, 0, len(orderStatusFlow)+2)
	statuses = append(statuses, orderStatusFlow...)
	statuses = append(statuses, StatusRejected, StatusCancelled)
	return statuses
}

// IsValid reports whether s is one of the ten known statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusPrinting, StatusPrinted,
		StatusReadyToShip, StatusShipped, StatusDelivered, StatusPaid,
		StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusRejected || s == StatusCancelled
}

// Next returns the immediate successor in the forward flow. ok is false for
// terminal statuses and for the failure statuses, which have no successor.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, status := range orderStatusFlow {
		if status == s && i+1 < len(orderStatusFlow) {
			return orderStatusFlow[i+1], true
		}
	}
	return "", false
}

// CanReject reports whether an order in status s may still be rejected or
// cancelled. Once printing has started the physical card exists, so the
// escape transitions are only open while the order is pending or approved.
func (s OrderStatus) CanReject() bool {
	return s == StatusPendingApproval || s == StatusApproved
}

// CanTransitionTo reports whether moving from s to target is a legal
// transition: either the single forward step or an escape to
// rejected/cancelled while that is still allowed.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() || !target.IsValid() {
		return false
	}
	if target == StatusRejected || target == StatusCancelled {
		return s.CanReject()
	}
	next, ok := s.Next()
	return ok && next == target
}

// PaymentStatus tracks how the customer paid for the order itself. It is
// independent of the fulfillment status.
type PaymentStatus string

const (
	PaymentPending      PaymentStatus = "pending"
	PaymentAdvancePaid  PaymentStatus = "advance_paid"
	PaymentPaid         PaymentStatus = "paid"
	PaymentCashDelivery PaymentStatus = "cod"
)

// IsValid reports whether p is a known payment status.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentAdvancePaid, PaymentPaid, PaymentCashDelivery:
		return true
	}
	return false
}
