package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
)

func placedOrder(t *testing.T, f *assembleFixture, owner domain.OwnerKey, method domain.PaymentMethod) *domain.Order {
	t.Helper()
	order, err := f.assemble.Execute(context.Background(), AssembleInput{
		Owner:         owner,
		Shipping:      shipping(),
		PaymentMethod: method,
	})
	require.NoError(t, err)
	return order
}

func TestCancelPendingRestoresStock(t *testing.T) {
	f := newAssembleFixture()
	f.stock.addProduct("bear", "Teddy Bear", 5, 40000)
	owner := domain.AccountKey("42")
	f.seedCart(t, owner, domain.CartLine{ProductID: "bear", Quantity: 2})
	order := placedOrder(t, f, owner, domain.PaymentCOD)
	require.Equal(t, 3, f.stock.available("bear"))

	canceller := NewCancelOrder(f.orders, f.stock, f.events, f.cache)
	got, err := canceller.Execute(context.Background(), order.ID, owner)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, domain.StatusCancelled, f.orders.status(order.ID))
	assert.Equal(t, 5, f.stock.available("bear"))
	assert.Contains(t, f.events.types(), "order.cancelled")
}

func TestCancelTwiceReleasesOnce(t *testing.T) {
	f := newAssembleFixture()
	f.stock.addProduct("bear", "Teddy Bear", 5, 40000)
	owner := domain.AccountKey("42")
	f.seedCart(t, owner, domain.CartLine{ProductID: "bear", Quantity: 2})
	order := placedOrder(t, f, owner, domain.PaymentCOD)

	canceller := NewCancelOrder(f.orders, f.stock, f.events, f.cache)
	_, err := canceller.Execute(context.Background(), order.ID, owner)
	require.NoError(t, err)

	// second cancel is a no-op, not a second release
	got, err := canceller.Execute(context.Background(), order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, 5, f.stock.available("bear"))
}

func TestCancelAfterPaidRejected(t *testing.T) {
	f := newAssembleFixture()
	f.stock.addProduct("bear", "Teddy Bear", 5, 40000)
	owner := domain.AccountKey("42")
	f.seedCart(t, owner, domain.CartLine{ProductID: "bear", Quantity: 1})
	order := placedOrder(t, f, owner, domain.PaymentGateway)

	ok, err := f.orders.UpdateStatusIf(context.Background(), order.ID, domain.StatusAwaitingPayment, domain.StatusPaid)
	require.NoError(t, err)
	require.True(t, ok)

	canceller := NewCancelOrder(f.orders, f.stock, f.events, f.cache)
	_, err = canceller.Execute(context.Background(), order.ID, owner)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, 4, f.stock.available("bear"))
}

func TestCancelSomeoneElsesOrder(t *testing.T) {
	f := newAssembleFixture()
	f.stock.addProduct("bear", "Teddy Bear", 5, 40000)
	owner := domain.AccountKey("42")
	f.seedCart(t, owner, domain.CartLine{ProductID: "bear", Quantity: 1})
	order := placedOrder(t, f, owner, domain.PaymentCOD)

	canceller := NewCancelOrder(f.orders, f.stock, f.events, f.cache)
	_, err := canceller.Execute(context.Background(), order.ID, domain.AccountKey("99"))
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = canceller.Execute(context.Background(), "no-such-order", owner)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
