package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusForwardFlow(t *testing.T) {
	steps := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{StatusPendingApproval, StatusApproved},
		{StatusApproved, StatusPrinting},
		{StatusPrinting, StatusPrinted},
		{StatusPrinted, StatusReadyToShip},
		{StatusReadyToShip, StatusShipped},
		{StatusShipped, StatusDelivered},
		{StatusDelivered, StatusPaid},
	}

	for _, step := range steps {
		next, ok := step.from.Next()
		assert.True(t, ok, "%s should have a successor", step.from)
		assert.Equal(t, step.to, next)
		assert.True(t, step.from.CanTransitionTo(step.to), "%s -> %s", step.from, step.to)
	}
}

func TestOrderStatusNoSkipping(t *testing.T) {
	// From pending_approval only approved, rejected and cancelled are legal.
	legal := map[OrderStatus]bool{
		StatusApproved:  true,
		StatusRejected:  true,
		StatusCancelled: true,
	}
	for _, target := range OrderStatuses() {
		assert.Equal(t, legal[target], StatusPendingApproval.CanTransitionTo(target),
			"pending_approval -> %s", target)
	}

	// Skipping a production step is never legal.
	assert.False(t, StatusApproved.CanTransitionTo(StatusPrinted))
	assert.False(t, StatusApproved.CanTransitionTo(StatusShipped))
	assert.False(t, StatusPrinting.CanTransitionTo(StatusReadyToShip))

	// Backwards is never legal.
	assert.False(t, StatusShipped.CanTransitionTo(StatusPrinting))
	assert.False(t, StatusApproved.CanTransitionTo(StatusPendingApproval))
}

func TestOrderStatusEscapeWindow(t *testing.T) {
	assert.True(t, StatusPendingApproval.CanReject())
	assert.True(t, StatusApproved.CanReject())

	// Once printing has started the order can no longer be rejected or
	// cancelled.
	for _, s := range []OrderStatus{StatusPrinting, StatusPrinted, StatusReadyToShip, StatusShipped, StatusDelivered} {
		assert.False(t, s.CanReject(), "%s should not allow rejection", s)
		assert.False(t, s.CanTransitionTo(StatusRejected))
		assert.False(t, s.CanTransitionTo(StatusCancelled))
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, s := range []OrderStatus{StatusPaid, StatusRejected, StatusCancelled} {
		assert.True(t, s.IsTerminal())
		for _, target := range OrderStatuses() {
			assert.False(t, s.CanTransitionTo(target), "%s -> %s", s, target)
		}
		_, ok := s.Next()
		assert.False(t, ok)
	}

	for _, s := range orderStatusFlow[:len(orderStatusFlow)-1] {
		assert.False(t, s.IsTerminal(), "%s", s)
	}
}

func TestOrderStatusIsValid(t *testing.T) {
	for _, s := range OrderStatuses() {
		assert.True(t, s.IsValid())
	}
	assert.False(t, OrderStatus("packed").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}
