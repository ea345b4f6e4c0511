package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

type orderQueryMock struct {
	byID map[string]*domain.Order
}

func (m orderQueryMock) Create(context.Context, *domain.Order) error { return nil }

func (m orderQueryMock) GetByID(_ context.Context, id string) (*domain.Order, error) {
	return m.byID[id], nil
}

func (m orderQueryMock) GetByHumanCode(_ context.Context, code string) (*domain.Order, error) {
	for _, o := range m.byID {
		if o.HumanCode == code {
			return o, nil
		}
	}
	return nil, nil
}

func (m orderQueryMock) ListByOwner(context.Context, domain.OwnerKey, usecase.OrderFilter) ([]*domain.Order, int, error) {
	return nil, 0, nil
}

func (m orderQueryMock) UpdateStatusIf(context.Context, string, domain.Status, domain.Status) (bool, error) {
	return false, nil
}

type statusCacheMock struct {
	owners   map[string]string
	statuses map[string]string
}

func (m statusCacheMock) SetStatus(_ context.Context, orderID, ownerKey, status string) error {
	m.owners[orderID] = ownerKey
	m.statuses[orderID] = status
	return nil
}

func (m statusCacheMock) GetStatus(_ context.Context, orderID string) (string, string, bool, error) {
	owner, ok := m.owners[orderID]
	return owner, m.statuses[orderID], ok, nil
}

func statusTestRouter(query orderQueryMock, cch statusCacheMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(nil, nil, nil, query, cch)
	r := gin.New()
	r.GET("/v1/orders/:id/status", func(c *gin.Context) {
		if key := c.GetHeader("X-Test-Owner"); key != "" {
			owner, _ := domain.ParseOwnerKey(key)
			c.Set("owner", owner)
		}
		c.Next()
	}, h.GetOrderStatus)
	return r
}

func getStatus(t *testing.T, r *gin.Engine, orderID string, owner domain.OwnerKey) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/"+orderID+"/status", nil)
	req.Header.Set("X-Test-Owner", owner.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func paidOrder(owner domain.OwnerKey) *domain.Order {
	return &domain.Order{
		ID:        "order-1",
		HumanCode: "TS-9F2C41D0",
		Owner:     owner,
		Status:    domain.StatusPaid,
		CreatedAt: time.Now().UTC(),
	}
}

func TestGetOrderStatusCachedForOwner(t *testing.T) {
	owner := domain.AccountKey("42")
	cch := statusCacheMock{
		owners:   map[string]string{"order-1": owner.String()},
		statuses: map[string]string{"order-1": "PAID"},
	}
	r := statusTestRouter(orderQueryMock{byID: map[string]*domain.Order{}}, cch)

	w := getStatus(t, r, "order-1", owner)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAID", resp.Status)
}

// A cached status belongs to its owner; another identity holding the
// order id gets the same 404 as for any order that is not theirs.
func TestGetOrderStatusCachedHiddenFromOthers(t *testing.T) {
	owner := domain.AccountKey("42")
	cch := statusCacheMock{
		owners:   map[string]string{"order-1": owner.String()},
		statuses: map[string]string{"order-1": "PAID"},
	}
	r := statusTestRouter(orderQueryMock{byID: map[string]*domain.Order{}}, cch)

	w := getStatus(t, r, "order-1", domain.AccountKey("99"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = getStatus(t, r, "order-1", domain.GuestKey("g-1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderStatusFallsBackToTable(t *testing.T) {
	owner := domain.AccountKey("42")
	query := orderQueryMock{byID: map[string]*domain.Order{"order-1": paidOrder(owner)}}
	cch := statusCacheMock{owners: map[string]string{}, statuses: map[string]string{}}
	r := statusTestRouter(query, cch)

	w := getStatus(t, r, "order-1", owner)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAID", resp.Status)

	// stranger gets 404 from the table path too
	w = getStatus(t, r, "order-1", domain.AccountKey("99"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
