package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/intekaih/toystore-app-sub001/internal/adapter/http/middleware"
	"github.com/intekaih/toystore-app-sub001/internal/adapter/observ"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

type PaymentHandler struct {
	payments *usecase.PaymentService
}

func NewPaymentHandler(payments *usecase.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreatePaymentURL builds the signed gateway redirect for an order.
// The amount query parameter is cross-checked against the order's
// frozen total; a mismatch is rejected.
func (h *PaymentHandler) CreatePaymentURL(c *gin.Context) {
	orderID := c.Query("orderId")
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if orderID == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId and amount are required"})
		return
	}
	owner, _ := middleware.Owner(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	url, err := h.payments.CreatePaymentURL(ctx, orderID, owner, amount,
		c.DefaultQuery("locale", "vn"), c.Query("bankCode"), c.ClientIP())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentUrl": url})
}

// Return handles the browser redirect back from the gateway. The
// signature is verified and the order transition applied at most once;
// a replayed return reports the already-applied outcome.
func (h *PaymentHandler) Return(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	outcome, err := h.payments.HandleCallback(ctx, c.Request.URL.Query())
	if err != nil {
		observ.PaymentCallbacks.WithLabelValues("rejected").Inc()
		fail(c, err)
		return
	}
	if outcome.Applied {
		observ.PaymentCallbacks.WithLabelValues("applied").Inc()
	} else {
		observ.PaymentCallbacks.WithLabelValues("replay").Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"humanCode":  outcome.Order.HumanCode,
		"status":     string(outcome.Order.Status),
		"resultCode": outcome.ResultCode,
		"applied":    outcome.Applied,
	})
}
