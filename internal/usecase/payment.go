package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/logging"
)

// PaymentService bridges the two payment modes: COD is confirmed
// locally and synchronously; the redirect gateway is asynchronous and
// verified through a signed callback.
type PaymentService struct {
	orders    OrderRepo
	payments  PaymentRepo
	gateway   RedirectGateway
	canceller *CancelOrder
	events    EventPublisher
	cache     OrderCache
}

func NewPaymentService(orders OrderRepo, payments PaymentRepo, gateway RedirectGateway, canceller *CancelOrder, events EventPublisher, cache OrderCache) *PaymentService {
	return &PaymentService{orders: orders, payments: payments, gateway: gateway, canceller: canceller, events: events, cache: cache}
}

// ConfirmCOD transitions PENDING -> CONFIRMED with no external call.
// Confirming an already-confirmed order is a no-op.
func (s *PaymentService) ConfirmCOD(ctx context.Context, orderID string, requester domain.OwnerKey) (*domain.Order, error) {
	order, err := s.ownedOrder(ctx, orderID, requester)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.PaymentCOD {
		return nil, fmt.Errorf("%w: order %s is not cash on delivery", domain.ErrValidation, orderID)
	}
	if order.Status == domain.StatusConfirmed {
		return order, nil
	}
	ok, err := s.orders.UpdateStatusIf(ctx, order.ID, domain.StatusPending, domain.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidStateTransition, orderID, order.Status)
	}
	order.Status = domain.StatusConfirmed
	_ = s.cache.SetStatus(ctx, order.ID, order.Owner.String(), string(order.Status))
	_ = s.events.Publish(ctx, orderEvent("order.confirmed", order))
	return order, nil
}

// CreatePaymentURL builds the signed redirect for an AWAITING_PAYMENT
// order. The caller-supplied amount is checked against the order's
// frozen total and never trusted on its own.
func (s *PaymentService) CreatePaymentURL(ctx context.Context, orderID string, requester domain.OwnerKey, amountCents int64, locale, bankCode, clientIP string) (string, error) {
	order, err := s.ownedOrder(ctx, orderID, requester)
	if err != nil {
		return "", err
	}
	if order.PaymentMethod != domain.PaymentGateway {
		return "", fmt.Errorf("%w: order %s does not use the gateway", domain.ErrValidation, orderID)
	}
	if order.Status != domain.StatusAwaitingPayment {
		return "", fmt.Errorf("%w: order %s is %s", domain.ErrInvalidStateTransition, orderID, order.Status)
	}
	if amountCents != order.TotalCents {
		return "", fmt.Errorf("%w: amount %d does not match order total %d", domain.ErrValidation, amountCents, order.TotalCents)
	}

	txnRef := order.HumanCode + "-" + strconv.FormatInt(time.Now().Unix(), 10)
	url, err := s.gateway.BuildRedirectURL(RedirectBuild{
		OrderRef:    order.HumanCode,
		TxnRef:      txnRef,
		AmountCents: order.TotalCents,
		Locale:      locale,
		BankCode:    bankCode,
		ClientIP:    clientIP,
	})
	if err != nil {
		return "", err
	}
	if err := s.payments.CreateAttempt(ctx, &domain.PaymentAttempt{
		OrderID:   order.ID,
		TxnRef:    txnRef,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return "", err
	}
	return url, nil
}

// CallbackOutcome reports what a verified callback did. Applied is
// false when the callback was a replay or mapped to no transition.
type CallbackOutcome struct {
	Order      *domain.Order
	Applied    bool
	ResultCode string
}

// HandleCallback verifies a gateway return and applies at most one
// state transition. Safe to call repeatedly with the same parameters:
// the replay guard and the state check make the repeat a no-op.
func (s *PaymentService) HandleCallback(ctx context.Context, params map[string][]string) (CallbackOutcome, error) {
	log := logging.FromCtx(ctx)

	cb, err := s.gateway.VerifyCallback(params)
	if err != nil {
		if errors.Is(err, domain.ErrSignature) {
			// Never guess intent on a bad signature: log and stop,
			// order state untouched.
			log.Error("gateway callback rejected", "reason", "signature mismatch")
		}
		return CallbackOutcome{}, err
	}

	order, err := s.orders.GetByHumanCode(ctx, cb.OrderRef)
	if err != nil {
		return CallbackOutcome{}, err
	}
	if order == nil {
		return CallbackOutcome{}, domain.ErrOrderNotFound
	}
	if cb.AmountCents != order.TotalCents {
		log.Error("gateway callback rejected", "reason", "amount mismatch", "order", order.ID, "got", cb.AmountCents, "want", order.TotalCents)
		return CallbackOutcome{}, fmt.Errorf("%w: callback amount does not match order total", domain.ErrValidation)
	}

	// The verification slot is consumed only by result codes that map to
	// a transition. An interim or unknown code leaves it free: the
	// definitive callback for the same txnRef may still arrive.
	switch cb.ResultCode {
	case domain.GatewayResultSuccess:
		applied, err := s.payments.MarkVerified(ctx, order.ID, cb.TxnRef, true, cb.ResultCode, cb.Raw)
		if err != nil {
			return CallbackOutcome{}, err
		}
		if !applied {
			// Replayed callback (browser back button, network retry).
			return CallbackOutcome{Order: order, ResultCode: cb.ResultCode}, nil
		}
		ok, err := s.orders.UpdateStatusIf(ctx, order.ID, domain.StatusAwaitingPayment, domain.StatusPaid)
		if err != nil {
			return CallbackOutcome{}, err
		}
		if !ok {
			current, err := s.orders.GetByID(ctx, order.ID)
			if err != nil {
				return CallbackOutcome{}, err
			}
			return CallbackOutcome{Order: current, ResultCode: cb.ResultCode}, nil
		}
		order.Status = domain.StatusPaid
		_ = s.cache.SetStatus(ctx, order.ID, order.Owner.String(), string(order.Status))
		_ = s.events.Publish(ctx, orderEvent("order.paid", order))
		return CallbackOutcome{Order: order, Applied: true, ResultCode: cb.ResultCode}, nil

	case domain.GatewayResultDeclined:
		applied, err := s.payments.MarkVerified(ctx, order.ID, cb.TxnRef, true, cb.ResultCode, cb.Raw)
		if err != nil {
			return CallbackOutcome{}, err
		}
		if !applied {
			return CallbackOutcome{Order: order, ResultCode: cb.ResultCode}, nil
		}
		cancelled, err := s.canceller.cancel(ctx, order)
		if err != nil {
			return CallbackOutcome{}, err
		}
		return CallbackOutcome{Order: cancelled, Applied: true, ResultCode: cb.ResultCode}, nil

	default:
		log.Warn("gateway callback ignored", "order", order.ID, "result", cb.ResultCode)
		return CallbackOutcome{Order: order, ResultCode: cb.ResultCode}, nil
	}
}

func (s *PaymentService) ownedOrder(ctx context.Context, orderID string, requester domain.OwnerKey) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.Owner != requester {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func orderEvent(typ string, o *domain.Order) OrderEventMsg {
	return OrderEventMsg{
		Type:       typ,
		OrderID:    o.ID,
		HumanCode:  o.HumanCode,
		OwnerKey:   o.Owner.String(),
		TotalCents: o.TotalCents,
		Status:     string(o.Status),
	}
}
