package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/intekaih/toystore-app-sub001/internal/adapter/http/middleware"
	"github.com/intekaih/toystore-app-sub001/internal/logging"
)

func NewRouter(ch *CartHandler, oh *OrderHandler, ph *PaymentHandler, sh *SessionHandler, id *middleware.Identity) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/v1/session/guest", sh.IssueGuestSession)

	// Gateway return has no identity: the browser arrives straight
	// from the processor and the signature is the credential.
	r.GET("/v1/payment/return", ph.Return)

	cart := r.Group("/v1/cart", id.Resolve())
	{
		cart.GET("", ch.GetCart)
		cart.POST("/add", ch.AddItem)
		cart.POST("/update", ch.UpdateItem)
		cart.POST("/increment/:productId", ch.Increment)
		cart.POST("/decrement/:productId", ch.Decrement)
		cart.DELETE("/remove/:productId", ch.RemoveItem)
		cart.POST("/clear", ch.Clear)
		cart.POST("/restore", ch.Restore)
	}
	r.POST("/v1/cart/merge", id.RequireAccount(), ch.Merge)

	orders := r.Group("/v1/orders", id.Resolve())
	{
		orders.POST("", oh.CreateOrder)
		orders.GET("", oh.ListOrders)
		orders.GET("/:id", oh.GetOrderByID)
		orders.GET("/:id/status", oh.GetOrderStatus)
		orders.POST("/:id/cancel", oh.CancelOrder)
	}
	// Guest checkout carries full contact and address in the body;
	// identity resolution is the same tagged owner key.
	r.POST("/v1/orders/guest", id.Resolve(), oh.CreateOrder)
	r.GET("/v1/orders/public/:code", id.Optional(), oh.GetPublicOrder)

	r.GET("/v1/payment/create-payment-url", id.Resolve(), ph.CreatePaymentURL)

	return r
}
