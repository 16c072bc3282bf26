package services

import (
	"errors"
	"fmt"

	"github.com/taponce/taponce_backend/models"
)

var (
	// ErrOrderNotFound is returned when the order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrAgentNotFound is returned when the agent does not exist.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentInactive is returned when an inactive agent tries to sell.
	ErrAgentInactive = errors.New("agent is inactive")

	// ErrDesignNotFound is returned when the card design does not exist.
	ErrDesignNotFound = errors.New("card design not found")

	// ErrDesignInactive is returned when ordering an inactive card design.
	ErrDesignInactive = errors.New("card design is not active")

	// ErrBelowMspApproval is returned when an ordinary approval is attempted
	// on an order priced below the agent's minimum selling price. Such orders
	// can only be approved through the explicit below-MSP override.
	ErrBelowMspApproval = errors.New("order is priced below MSP; explicit admin override required")

	// ErrOverrideNotRequired is returned when the below-MSP override is
	// invoked on an order that is not below MSP.
	ErrOverrideNotRequired = errors.New("order is not below MSP; use the normal approval")

	// ErrMissingTrackingNumber is returned when moving to shipped without a
	// tracking number.
	ErrMissingTrackingNumber = errors.New("tracking number is required to mark an order shipped")

	// ErrMissingRejectionReason is returned when rejecting without a reason.
	ErrMissingRejectionReason = errors.New("rejection reason is required")

	// ErrInsufficientBalance is returned when a payout exceeds the agent's
	// available balance.
	ErrInsufficientBalance = errors.New("payout amount exceeds available balance")

	// ErrInvalidPayoutAmount is returned when a payout amount is not
	// positive.
	ErrInvalidPayoutAmount = errors.New("payout amount must be greater than zero")

	// ErrInvalidPaymentMethod is returned for unknown payout methods.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// TransitionError reports an illegal order status transition. It is distinct
// from ErrBelowMspApproval so callers can tell "wrong order of states" apart
// from "missing override".
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	if e.From.IsTerminal() {
		return fmt.Sprintf("order is already %s; no further transitions allowed", e.From)
	}
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}
