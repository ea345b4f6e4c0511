package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/intekaih/toystore-app-sub001/internal/adapter/http/middleware"
	"github.com/intekaih/toystore-app-sub001/internal/adapter/observ"
	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

type OrderHandler struct {
	assemble  *usecase.OrderAssembler
	cancel    *usecase.CancelOrder
	payments  *usecase.PaymentService
	query     usecase.OrderRepo
	statusCch usecase.OrderCache
}

func NewOrderHandler(assemble *usecase.OrderAssembler, cancel *usecase.CancelOrder, payments *usecase.PaymentService, query usecase.OrderRepo, statusCch usecase.OrderCache) *OrderHandler {
	return &OrderHandler{assemble: assemble, cancel: cancel, payments: payments, query: query, statusCch: statusCch}
}

type shippingReq struct {
	FullName string `json:"fullName" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email"`
	Street   string `json:"street" binding:"required"`
	Ward     string `json:"ward"`
	District string `json:"district"`
	Province string `json:"province"`
	Note     string `json:"note"`
}

type createOrderReq struct {
	Shipping      shippingReq `json:"shippingAddress" binding:"required"`
	PaymentMethod string      `json:"paymentMethod" binding:"required"`
}

type orderLineResp struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	Quantity       int    `json:"qty"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type orderResp struct {
	ID            string          `json:"id"`
	HumanCode     string          `json:"humanCode"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	TotalCents    int64           `json:"totalCents"`
	Lines         []orderLineResp `json:"lines"`
	CreatedAt     string          `json:"createdAt"`
}

func orderToResp(o *domain.Order) orderResp {
	resp := orderResp{
		ID:            o.ID,
		HumanCode:     o.HumanCode,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		TotalCents:    o.TotalCents,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, orderLineResp{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		})
	}
	return resp
}

// CreateOrder assembles the caller's cart into an order. COD orders
// are confirmed in the same request; gateway orders come back
// AWAITING_PAYMENT and the client follows up with create-payment-url.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	owner, _ := middleware.Owner(c)
	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests

	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.assemble.Execute(ctx, usecase.AssembleInput{
		Owner:          owner,
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
		IdempotencyKey: idemKey,
		Shipping: domain.ShippingAddress{
			FullName: req.Shipping.FullName,
			Phone:    req.Shipping.Phone,
			Email:    req.Shipping.Email,
			Street:   req.Shipping.Street,
			Ward:     req.Shipping.Ward,
			District: req.Shipping.District,
			Province: req.Shipping.Province,
			Note:     req.Shipping.Note,
		},
	})
	if err != nil {
		fail(c, err)
		return
	}
	observ.OrdersAssembled.WithLabelValues(req.PaymentMethod).Inc()

	if order.PaymentMethod == domain.PaymentCOD && order.Status == domain.StatusPending {
		order, err = h.payments.ConfirmCOD(ctx, order.ID, owner)
		if err != nil {
			fail(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, orderToResp(order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	orders, total, err := h.query.ListByOwner(ctx, owner, usecase.OrderFilter{
		Status:   domain.Status(c.Query("status")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, orderToResp(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp, "total": total, "page": page})
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.query.GetByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if order == nil || order.Owner != owner {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, orderToResp(order))
}

// GetOrderStatus serves the cached status when fresh, falling back to
// the orders table.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	id := c.Param("id")
	if ownerKey, status, ok, err := h.statusCch.GetStatus(ctx, id); err == nil && ok {
		if ownerKey != owner.String() {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
		return
	}
	order, err := h.query.GetByID(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if order == nil || order.Owner != owner {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": string(order.Status)})
}

// GetPublicOrder looks up an order by its human code. Without proof of
// ownership only limited fields are returned.
func (h *OrderHandler) GetPublicOrder(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.query.GetByHumanCode(ctx, c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if owner, ok := middleware.Owner(c); ok && owner == order.Owner {
		c.JSON(http.StatusOK, orderToResp(order))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"humanCode": order.HumanCode,
		"status":    string(order.Status),
		"createdAt": order.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.cancel.Execute(ctx, c.Param("id"), owner)
	if err != nil {
		fail(c, err)
		return
	}
	observ.OrdersCancelled.Inc()
	c.JSON(http.StatusOK, orderToResp(order))
}
