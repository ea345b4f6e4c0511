package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusAwaitingPayment},
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusAwaitingPayment, StatusPaid},
		{StatusAwaitingPayment, StatusCancelled},
		{StatusConfirmed, StatusShipping},
		{StatusPaid, StatusShipping},
		{StatusShipping, StatusDelivered},
		{StatusDelivered, StatusCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPaid, StatusCancelled},
		{StatusShipping, StatusCancelled},
		{StatusDelivered, StatusCancelled},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusPaid},
		{StatusPending, StatusPaid},
		{StatusAwaitingPayment, StatusConfirmed},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel(StatusPending))
	assert.True(t, CanCancel(StatusAwaitingPayment))
	assert.False(t, CanCancel(StatusPaid))
	assert.False(t, CanCancel(StatusDelivered))
	assert.False(t, CanCancel(StatusCancelled))
}

func TestOrderTransition(t *testing.T) {
	o := &Order{Status: StatusAwaitingPayment}
	require.NoError(t, o.Transition(StatusPaid))
	assert.Equal(t, StatusPaid, o.Status)

	err := o.Transition(StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, StatusPaid, o.Status)
}

func TestOrderValidate(t *testing.T) {
	o := &Order{
		Lines: []OrderLine{
			{ProductID: "p1", Quantity: 2, UnitPriceCents: 50000},
			{ProductID: "p2", Quantity: 1, UnitPriceCents: 30000},
		},
		TotalCents: 130000,
	}
	require.NoError(t, o.Validate())

	o.TotalCents = 130001
	assert.ErrorIs(t, o.Validate(), ErrValidation)

	assert.ErrorIs(t, (&Order{}).Validate(), ErrValidation)

	bad := &Order{Lines: []OrderLine{{ProductID: "p1", Quantity: 0, UnitPriceCents: 10}}}
	assert.ErrorIs(t, bad.Validate(), ErrValidation)
}
