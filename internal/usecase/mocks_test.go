package usecase

import (
	"context"
	"strconv"
	"sync"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
)

// memStore plays both StockLedger and Catalog. TryDecrement holds the
// mutex across check and write, matching the atomicity the SQL
// conditional update gives the real ledger.
type memStore struct {
	mu    sync.Mutex
	qty   map[string]int
	price map[string]int64
	name  map[string]string
}

func newMemStore() *memStore {
	return &memStore{qty: map[string]int{}, price: map[string]int64{}, name: map[string]string{}}
}

func (m *memStore) addProduct(id, name string, qty int, priceCents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qty[id] = qty
	m.price[id] = priceCents
	m.name[id] = name
}

func (m *memStore) available(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.qty[id]
}

func (m *memStore) CheckAvailable(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.qty[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return q, nil
}

func (m *memStore) TryDecrement(_ context.Context, productID string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.qty[productID]; !ok {
		return false, domain.ErrProductNotFound
	}
	if m.qty[productID] < qty {
		return false, nil
	}
	m.qty[productID] -= qty
	return true, nil
}

func (m *memStore) Release(_ context.Context, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qty[productID] += qty
	return nil
}

func (m *memStore) Price(_ context.Context, productID string) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.price[productID]
	if !ok {
		return "", 0, domain.ErrProductNotFound
	}
	return m.name[productID], p, nil
}

type memCarts struct {
	mu    sync.Mutex
	byKey map[string]*domain.Cart
	stock *memStore
}

func newMemCarts(stock *memStore) *memCarts {
	return &memCarts{byKey: map[string]*domain.Cart{}, stock: stock}
}

func cloneCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Lines = append([]domain.CartLine(nil), c.Lines...)
	return &cp
}

func (m *memCarts) Get(_ context.Context, owner domain.OwnerKey) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byKey[owner.String()]
	if !ok {
		return nil, nil
	}
	return cloneCart(c), nil
}

func (m *memCarts) Save(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[cart.Owner.String()] = cloneCart(cart)
	return nil
}

func (m *memCarts) Delete(_ context.Context, owner domain.OwnerKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byKey, owner.String())
	return nil
}

func (m *memCarts) MergeGuestIntoAccount(_ context.Context, guest, account domain.OwnerKey) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	merged := domain.NewCart(account)
	if acc, ok := m.byKey[account.String()]; ok {
		merged.Lines = append(merged.Lines, acc.Lines...)
	}
	if g, ok := m.byKey[guest.String()]; ok {
		for _, l := range g.Lines {
			_ = merged.Add(l.ProductID, l.Quantity)
		}
	}
	for i := range merged.Lines {
		if avail := m.stock.available(merged.Lines[i].ProductID); merged.Lines[i].Quantity > avail {
			merged.Lines[i].Quantity = avail
		}
	}
	kept := merged.Lines[:0]
	for _, l := range merged.Lines {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	merged.Lines = kept
	m.byKey[account.String()] = cloneCart(merged)
	delete(m.byKey, guest.String())
	return merged, nil
}

type memOrders struct {
	mu        sync.Mutex
	byID      map[string]*domain.Order
	byCode    map[string]string
	createErr error
}

func newMemOrders() *memOrders {
	return &memOrders{byID: map[string]*domain.Order{}, byCode: map[string]string{}}
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &cp
}

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[o.ID] = cloneOrder(o)
	m.byCode[o.HumanCode] = o.ID
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (m *memOrders) GetByHumanCode(_ context.Context, code string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, nil
	}
	return cloneOrder(m.byID[id]), nil
}

func (m *memOrders) ListByOwner(_ context.Context, owner domain.OwnerKey, f OrderFilter) ([]*domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.byID {
		if o.Owner != owner {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, len(out), nil
}

func (m *memOrders) UpdateStatusIf(_ context.Context, id string, from, to domain.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (m *memOrders) status(id string) domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Status
}

type memPayments struct {
	mu       sync.Mutex
	attempts []*domain.PaymentAttempt
	verified map[string]bool
}

func newMemPayments() *memPayments {
	return &memPayments{verified: map[string]bool{}}
}

func (m *memPayments) CreateAttempt(_ context.Context, a *domain.PaymentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.attempts = append(m.attempts, &cp)
	return nil
}

func (m *memPayments) MarkVerified(_ context.Context, orderID, txnRef string, _ bool, _, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := orderID + "|" + txnRef
	if m.verified[key] {
		return false, nil
	}
	m.verified[key] = true
	return true, nil
}

type memIdem struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + "|" + key
	if m.locks[k] {
		return false, nil
	}
	m.locks[k] = true
	return true, nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope+"|"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[scope+"|"+key]
	return v, ok, nil
}

type cachedStatus struct {
	owner  string
	status string
}

type memCache struct {
	mu sync.Mutex
	st map[string]cachedStatus
}

func newMemCache() *memCache { return &memCache{st: map[string]cachedStatus{}} }

func (m *memCache) SetStatus(_ context.Context, orderID, ownerKey, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st[orderID] = cachedStatus{owner: ownerKey, status: status}
	return nil
}

func (m *memCache) GetStatus(_ context.Context, orderID string) (string, string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.st[orderID]
	return v.owner, v.status, ok, nil
}

type memEvents struct {
	mu  sync.Mutex
	evs []OrderEventMsg
}

func (m *memEvents) Publish(_ context.Context, ev OrderEventMsg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evs = append(m.evs, ev)
	return nil
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.evs))
	for i, ev := range m.evs {
		out[i] = ev.Type
	}
	return out
}

// fakeGateway accepts any callback whose "signature" param equals
// "valid" and rejects everything else, so tests drive both branches
// without real HMAC material.
type fakeGateway struct {
	urls []RedirectBuild
}

func (g *fakeGateway) BuildRedirectURL(b RedirectBuild) (string, error) {
	g.urls = append(g.urls, b)
	return "https://pay.example.com/redirect?orderRef=" + b.OrderRef, nil
}

func (g *fakeGateway) VerifyCallback(params map[string][]string) (GatewayCallback, error) {
	first := func(k string) string {
		if v := params[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	if first("signature") != "valid" {
		return GatewayCallback{}, domain.ErrSignature
	}
	amount, _ := strconv.ParseInt(first("amount"), 10, 64)
	return GatewayCallback{
		OrderRef:    first("orderRef"),
		TxnRef:      first("txnRef"),
		AmountCents: amount,
		ResultCode:  first("resultCode"),
	}, nil
}
