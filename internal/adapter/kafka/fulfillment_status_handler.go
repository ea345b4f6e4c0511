package kafka

import (
	"context"
	"fmt"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

// FulfillmentStatusHandler applies shipping progress reported by the
// fulfillment system. Each step is a guarded transition, so a replayed
// or out-of-order event changes nothing.
type FulfillmentStatusHandler struct {
	Repo  usecase.OrderRepo
	Cache usecase.OrderCache // optional
}

func NewFulfillmentStatusHandler(repo usecase.OrderRepo, cache usecase.OrderCache) *FulfillmentStatusHandler {
	return &FulfillmentStatusHandler{Repo: repo, Cache: cache}
}

// froms lists the statuses each fulfillment step may move from.
var froms = map[domain.Status][]domain.Status{
	domain.StatusShipping:  {domain.StatusPaid, domain.StatusConfirmed},
	domain.StatusDelivered: {domain.StatusShipping},
	domain.StatusCompleted: {domain.StatusDelivered},
}

func (h *FulfillmentStatusHandler) Handle(ctx context.Context, ev usecase.FulfillmentStatusMsg) error {
	target := domain.Status(ev.Status)
	allowed, ok := froms[target]
	if !ok {
		return fmt.Errorf("unknown fulfillment status %q", ev.Status)
	}

	for _, from := range allowed {
		applied, err := h.Repo.UpdateStatusIf(ctx, ev.OrderID, from, target)
		if err != nil {
			return err
		}
		if applied {
			if h.Cache != nil {
				// The event carries no owner; read it back for the
				// owner-tagged cache entry.
				if o, err := h.Repo.GetByID(ctx, ev.OrderID); err == nil && o != nil {
					_ = h.Cache.SetStatus(ctx, ev.OrderID, o.Owner.String(), ev.Status)
				}
			}
			return nil
		}
	}
	// No matching from-status: stale or duplicate event, drop it.
	return nil
}
