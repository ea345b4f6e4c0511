package usecase

import (
	"context"
	"fmt"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/logging"
)

// CancelOrder cancels a PENDING or AWAITING_PAYMENT order and restores
// the decremented stock. The guarded status update makes the release
// happen at most once per order, however many cancel requests arrive.
type CancelOrder struct {
	orders OrderRepo
	stock  StockLedger
	events EventPublisher
	cache  OrderCache
}

func NewCancelOrder(orders OrderRepo, stock StockLedger, events EventPublisher, cache OrderCache) *CancelOrder {
	return &CancelOrder{orders: orders, stock: stock, events: events, cache: cache}
}

func (uc *CancelOrder) Execute(ctx context.Context, orderID string, requester domain.OwnerKey) (*domain.Order, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.Owner != requester {
		return nil, domain.ErrOrderNotFound
	}
	return uc.cancel(ctx, order)
}

// cancel is shared with the payment path (verified decline).
func (uc *CancelOrder) cancel(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order.Status == domain.StatusCancelled {
		return order, nil
	}
	if !domain.CanCancel(order.Status) {
		return nil, fmt.Errorf("%w: cannot cancel a %s order", domain.ErrInvalidStateTransition, order.Status)
	}

	// The CAS is the at-most-once guard: only the request that wins the
	// transition releases stock.
	ok, err := uc.orders.UpdateStatusIf(ctx, order.ID, order.Status, domain.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := uc.orders.GetByID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == domain.StatusCancelled {
			return current, nil
		}
		return nil, fmt.Errorf("%w: order moved while cancelling", domain.ErrInvalidStateTransition)
	}

	for _, l := range order.Lines {
		if err := uc.stock.Release(ctx, l.ProductID, l.Quantity); err != nil {
			logging.FromCtx(ctx).Error("release stock on cancel", "order", order.ID, "product", l.ProductID, "qty", l.Quantity, "err", err)
		}
	}

	order.Status = domain.StatusCancelled
	_ = uc.cache.SetStatus(ctx, order.ID, order.Owner.String(), string(order.Status))
	_ = uc.events.Publish(ctx, orderEvent("order.cancelled", order))
	return order, nil
}
