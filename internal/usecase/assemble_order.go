package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/logging"
)

var ErrDuplicate = errors.New("duplicate idempotency key")

type AssembleInput struct {
	Owner          domain.OwnerKey
	Shipping       domain.ShippingAddress
	PaymentMethod  domain.PaymentMethod
	IdempotencyKey string
}

// OrderAssembler turns a validated cart snapshot into an immutable
// order, driving the stock decrement. Decrement and order creation
// succeed or fail together.
type OrderAssembler struct {
	carts   CartRepo
	orders  OrderRepo
	stock   StockLedger
	catalog Catalog
	idem    IdempotencyStore
	events  EventPublisher
	cache   OrderCache
}

func NewOrderAssembler(carts CartRepo, orders OrderRepo, stock StockLedger, catalog Catalog, idem IdempotencyStore, events EventPublisher, cache OrderCache) *OrderAssembler {
	return &OrderAssembler{carts: carts, orders: orders, stock: stock, catalog: catalog, idem: idem, events: events, cache: cache}
}

func (a *OrderAssembler) Execute(ctx context.Context, in AssembleInput) (*domain.Order, error) {
	if in.PaymentMethod != domain.PaymentCOD && in.PaymentMethod != domain.PaymentGateway {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, in.PaymentMethod)
	}
	if in.Shipping.FullName == "" || in.Shipping.Phone == "" || in.Shipping.Street == "" {
		return nil, fmt.Errorf("%w: shipping name, phone and street are required", domain.ErrValidation)
	}

	scope := in.Owner.String()
	if in.IdempotencyKey != "" {
		// Fast path: a retried request returns the order it already made.
		if id, ok, _ := a.idem.Recall(ctx, scope, in.IdempotencyKey); ok {
			return a.orders.GetByID(ctx, id)
		}
		ok, err := a.idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicate
		}
	}

	cart, err := a.carts.Get(ctx, in.Owner)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.IsEmpty() {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}

	// Re-validate every line against current stock and re-snapshot the
	// current price; the cart may have been built against data that has
	// since changed. Any mismatch aborts the whole assembly.
	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		name, price, err := a.catalog.Price(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		avail, err := a.stock.CheckAvailable(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if l.Quantity > avail {
			return nil, fmt.Errorf("%w: product %s has %d left, cart wants %d", domain.ErrStaleCart, l.ProductID, avail, l.Quantity)
		}
		lines = append(lines, domain.OrderLine{
			ProductID:      l.ProductID,
			ProductName:    name,
			Quantity:       l.Quantity,
			UnitPriceCents: price,
		})
	}

	// Decrement line by line; a lost race mid-sequence rolls back every
	// decrement that already went through.
	for i, l := range lines {
		ok, err := a.stock.TryDecrement(ctx, l.ProductID, l.Quantity)
		if err == nil && !ok {
			err = fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, l.ProductID)
		}
		if err != nil {
			a.releaseLines(ctx, lines[:i])
			return nil, err
		}
	}

	order := &domain.Order{
		ID:            uuid.NewString(),
		Owner:         in.Owner,
		Lines:         lines,
		Status:        domain.StatusPending,
		PaymentMethod: in.PaymentMethod,
		Shipping:      in.Shipping,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	order.HumanCode = humanCode(order.ID)
	for _, l := range lines {
		order.TotalCents += int64(l.Quantity) * l.UnitPriceCents
	}
	if in.PaymentMethod == domain.PaymentGateway {
		order.Status = domain.StatusAwaitingPayment
	}

	if err := a.orders.Create(ctx, order); err != nil {
		// No order row may exist with an uncommitted stock decrement.
		a.releaseLines(ctx, lines)
		return nil, err
	}

	if err := a.carts.Delete(ctx, in.Owner); err != nil {
		logging.FromCtx(ctx).Error("clear cart after assembly", "owner", scope, "err", err)
	}

	if in.IdempotencyKey != "" {
		_ = a.idem.Remember(ctx, scope, in.IdempotencyKey, order.ID)
	}
	_ = a.cache.SetStatus(ctx, order.ID, order.Owner.String(), string(order.Status))
	_ = a.events.Publish(ctx, orderEvent("order.created", order))
	return order, nil
}

func (a *OrderAssembler) releaseLines(ctx context.Context, lines []domain.OrderLine) {
	for _, l := range lines {
		if err := a.stock.Release(ctx, l.ProductID, l.Quantity); err != nil {
			logging.FromCtx(ctx).Error("release stock after failed assembly", "product", l.ProductID, "qty", l.Quantity, "err", err)
		}
	}
}

// humanCode is the short reference customers quote, e.g. "TS-9F2C41D0".
func humanCode(orderID string) string {
	s := strings.ToUpper(strings.ReplaceAll(orderID, "-", ""))
	if len(s) > 8 {
		s = s[:8]
	}
	return "TS-" + s
}
