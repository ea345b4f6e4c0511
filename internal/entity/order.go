package domain

import "time"

type Status string

const (
	StatusPending         Status = "PENDING"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusConfirmed       Status = "CONFIRMED"
	StatusPaid            Status = "PAID"
	StatusShipping        Status = "SHIPPING"
	StatusDelivered       Status = "DELIVERED"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "COD"
	PaymentGateway PaymentMethod = "GATEWAY"
)

// transitions is the order lifecycle table. Cancel is only reachable
// while no money has moved (PENDING or AWAITING_PAYMENT).
var transitions = map[Status][]Status{
	StatusPending:         {StatusAwaitingPayment, StatusConfirmed, StatusCancelled},
	StatusAwaitingPayment: {StatusPaid, StatusCancelled},
	StatusConfirmed:       {StatusShipping},
	StatusPaid:            {StatusShipping},
	StatusShipping:        {StatusDelivered},
	StatusDelivered:       {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether an order in the given status may still be cancelled.
func CanCancel(s Status) bool { return CanTransition(s, StatusCancelled) }

// OrderLine is a frozen snapshot; quantity and unit price never change
// after the order is assembled.
type OrderLine struct {
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPriceCents int64
}

type ShippingAddress struct {
	FullName string
	Phone    string
	Email    string
	Street   string
	Ward     string
	District string
	Province string
	Note     string
}

type Order struct {
	ID            string
	HumanCode     string
	Owner         OwnerKey
	Lines         []OrderLine
	TotalCents    int64
	Status        Status
	PaymentMethod PaymentMethod
	Shipping      ShippingAddress
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (o *Order) Validate() error {
	if len(o.Lines) == 0 {
		return ErrValidation
	}
	var total int64
	for _, l := range o.Lines {
		if l.Quantity <= 0 || l.UnitPriceCents < 0 {
			return ErrValidation
		}
		total += int64(l.Quantity) * l.UnitPriceCents
	}
	if total != o.TotalCents {
		return ErrValidation
	}
	return nil
}

// Transition moves the order to the target status or reports
// ErrInvalidStateTransition.
func (o *Order) Transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidStateTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}
