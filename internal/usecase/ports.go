package usecase

import (
	"context"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
)

// StockLedger is the sole authority on available quantity. TryDecrement
// must be a single atomic conditional update at the storage layer;
// everything above it is advisory.
type StockLedger interface {
	CheckAvailable(ctx context.Context, productID string) (int, error)
	TryDecrement(ctx context.Context, productID string, qty int) (bool, error)
	Release(ctx context.Context, productID string, qty int) error
}

// Catalog serves current product price and display name. Prices read
// here are only ever frozen into orders by the assembler.
type Catalog interface {
	Price(ctx context.Context, productID string) (name string, unitPriceCents int64, err error)
}

type CartRepo interface {
	// Get returns nil when no cart is stored for the owner.
	Get(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, owner domain.OwnerKey) error
	// MergeGuestIntoAccount sums guest lines into the account cart,
	// clamps each line to current stock and deletes the guest cart,
	// all within one atomic unit.
	MergeGuestIntoAccount(ctx context.Context, guest, account domain.OwnerKey) (*domain.Cart, error)
}

type OrderFilter struct {
	Status   domain.Status // empty = all
	Page     int           // 1-based
	PageSize int
}

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByHumanCode(ctx context.Context, code string) (*domain.Order, error)
	ListByOwner(ctx context.Context, owner domain.OwnerKey, f OrderFilter) ([]*domain.Order, int, error)
	// UpdateStatusIf performs a guarded transition; false means the
	// order was not in fromStatus (or does not exist).
	UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error)
}

type PaymentRepo interface {
	CreateAttempt(ctx context.Context, a *domain.PaymentAttempt) error
	// MarkVerified records the callback verdict once. Returns false if
	// this orderID+txnRef was already verified (replayed callback).
	MarkVerified(ctx context.Context, orderID, txnRef string, sigOK bool, resultCode, raw string) (bool, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// OrderCache keeps a short-lived status copy keyed by order id. The
// owner key is stored alongside so the read path can authorize a hit
// without touching the orders table.
type OrderCache interface {
	SetStatus(ctx context.Context, orderID, ownerKey, status string) error
	GetStatus(ctx context.Context, orderID string) (ownerKey, status string, ok bool, err error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev OrderEventMsg) error
}

// RedirectBuild carries the parameters of a gateway redirect. Amount
// always comes from the stored order, never from the caller.
type RedirectBuild struct {
	OrderRef    string
	TxnRef      string
	AmountCents int64
	Locale      string
	BankCode    string
	ClientIP    string
}

// GatewayCallback is the verified content of a gateway return.
type GatewayCallback struct {
	OrderRef    string
	TxnRef      string
	AmountCents int64
	ResultCode  string
	Raw         string
}

// RedirectGateway abstracts the third-party redirect processor.
type RedirectGateway interface {
	BuildRedirectURL(b RedirectBuild) (string, error)
	// VerifyCallback recomputes the signature over all parameters and
	// returns domain.ErrSignature on mismatch.
	VerifyCallback(params map[string][]string) (GatewayCallback, error)
}
