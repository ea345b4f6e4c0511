package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/intekaih/toystore-app-sub001/internal/adapter/http/middleware"
	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/security"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

type CartHandler struct {
	carts  *usecase.CartService
	guests *security.GuestSessions
}

func NewCartHandler(carts *usecase.CartService, guests *security.GuestSessions) *CartHandler {
	return &CartHandler{carts: carts, guests: guests}
}

type cartLineReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"qty"`
}

type cartLineResp struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"qty"`
}

type cartResp struct {
	OwnerKey string         `json:"ownerKey"`
	Lines    []cartLineResp `json:"lines"`
	Adjusted []string       `json:"adjusted,omitempty"` // lines clamped to stock
}

func viewResp(v usecase.CartView) cartResp {
	return cartResp{
		OwnerKey: v.Cart.Owner.String(),
		Lines:    lineResps(v.Cart),
		Adjusted: v.Adjusted,
	}
}

func lineResps(cart *domain.Cart) []cartLineResp {
	out := make([]cartLineResp, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		out = append(out, cartLineResp{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}

func (h *CartHandler) GetCart(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	cart, err := h.carts.Get(ctx, owner)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResp{OwnerKey: owner.String(), Lines: lineResps(cart)})
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartLineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	view, err := h.carts.AddItem(ctx, owner, req.ProductID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResp(view))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req cartLineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	view, err := h.carts.UpdateItem(ctx, owner, req.ProductID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResp(view))
}

func (h *CartHandler) Increment(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	view, err := h.carts.Increment(ctx, owner, c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResp(view))
}

func (h *CartHandler) Decrement(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	view, err := h.carts.Decrement(ctx, owner, c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResp(view))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	cart, err := h.carts.RemoveItem(ctx, owner, c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResp{OwnerKey: owner.String(), Lines: lineResps(cart)})
}

func (h *CartHandler) Clear(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.carts.Clear(ctx, owner); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Merge folds the guest cart named by X-Guest-Session into the
// authenticated account's cart. Called once at login.
func (h *CartHandler) Merge(c *gin.Context) {
	owner, _ := middleware.Owner(c)
	token := c.GetHeader(middleware.GuestSessionHeader)
	if token == "" || !h.guests.Validate(token) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid guest session"})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cart, err := h.carts.Merge(ctx, token, owner.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResp{OwnerKey: cart.Owner.String(), Lines: lineResps(cart)})
}

type restoreReq struct {
	SessionToken string        `json:"sessionToken" binding:"required"`
	Lines        []cartLineReq `json:"lines" binding:"required"`
}

// Restore rebuilds a guest cart after an abandoned or failed payment.
func (h *CartHandler) Restore(c *gin.Context) {
	var req restoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	if !h.guests.Validate(req.SessionToken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guest session"})
		return
	}
	lines := make([]domain.CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, domain.CartLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	view, err := h.carts.Restore(ctx, req.SessionToken, lines)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResp(view))
}

func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 3*time.Second)
}
