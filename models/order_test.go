// models/order_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusProcessing, OrderStatusCompleted, true},
		{OrderStatusProcessing, OrderStatusFailed, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, true},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusProcessing, false},
		{OrderStatusFailed, OrderStatusPending, true},
		{OrderStatusFailed, OrderStatusProcessing, true},
		{OrderStatusFailed, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusCompleted, false},
		{OrderStatusCancelled, OrderStatusFailed, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	assert.Empty(t, AllowedTransitionsFrom(OrderStatusCancelled))
}

func TestInvalidTransitionErrorNamesStates(t *testing.T) {
	err := &InvalidTransitionError{
		Current:   OrderStatusCancelled,
		Requested: OrderStatusPending,
		Allowed:   AllowedTransitionsFrom(OrderStatusCancelled),
	}
	assert.Contains(t, err.Error(), "CANCELLED")
	assert.Contains(t, err.Error(), "PENDING")
}
