package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/logger"
	"go.uber.org/zap"
)

const cartEvent = "cart"

// addItemRequest is the body of POST /carts/:cartID/items
type addItemRequest struct {
	ProductID string `json:"productId" binding:"required_without=Handle"`
	Handle    string `json:"handle" binding:"required_without=ProductID"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=99"`
}

// ref returns the product id, or the handle when no id was sent
func (r addItemRequest) ref() string {
	if r.ProductID != "" {
		return r.ProductID
	}
	return r.Handle
}

// updateItemRequest is the body of PATCH /carts/:cartID/items/:itemID.
// A quantity of zero or less removes the line.
type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CreateCart opens a new empty cart
func (h *Handler) CreateCart(c *gin.Context) {
	store, err := h.carts.Create(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+store.ID())
	c.JSON(http.StatusCreated, store.View())
}

// GetCart returns the cart with its derived totals
func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.carts.View(c.Request.Context(), c.Param("cartID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddItem adds a product, or one of its variants, to the cart
func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	view, err := h.carts.AddProduct(c.Request.Context(), c.Param("cartID"), req.ref(), req.VariantID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateItem sets the quantity of a cart line
func (h *Handler) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	store, err := h.carts.Open(c.Request.Context(), c.Param("cartID"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	itemID := c.Param("itemID")
	if _, ok := store.GetItem(itemID); !ok {
		h.respondError(c, fmt.Errorf("%w: %s", domain.ErrCartItemNotFound, itemID))
		return
	}
	store.UpdateQuantity(c.Request.Context(), itemID, *req.Quantity)
	c.JSON(http.StatusOK, store.View())
}

// RemoveItem removes a cart line
func (h *Handler) RemoveItem(c *gin.Context) {
	store, err := h.carts.Open(c.Request.Context(), c.Param("cartID"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	itemID := c.Param("itemID")
	if _, ok := store.GetItem(itemID); !ok {
		h.respondError(c, fmt.Errorf("%w: %s", domain.ErrCartItemNotFound, itemID))
		return
	}
	store.RemoveItem(c.Request.Context(), itemID)
	c.JSON(http.StatusOK, store.View())
}

// ClearCart removes every line
func (h *Handler) ClearCart(c *gin.Context) {
	store, err := h.carts.Open(c.Request.Context(), c.Param("cartID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	store.ClearCart(c.Request.Context())
	c.JSON(http.StatusOK, store.View())
}

// Checkout hands the cart to the hosted checkout. With ?redirect=true the
// client is sent straight to the checkout page.
func (h *Handler) Checkout(c *gin.Context) {
	redirect, _ := strconv.ParseBool(c.Query("redirect"))

	result, err := h.carts.Checkout(c.Request.Context(), c.Param("cartID"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if redirect {
		c.Redirect(http.StatusSeeOther, result.WebURL)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CartEvents streams the cart as server-sent events: the current state
// first, then one event per change until the client disconnects.
// Intermediate states may be skipped when the client reads slowly; the
// latest state is always delivered.
func (h *Handler) CartEvents(c *gin.Context) {
	ctx := c.Request.Context()
	updates := make(chan domain.CartView, 1)
	store, unsubscribe, err := h.carts.Watch(ctx, c.Param("cartID"), func(view domain.CartView) {
		for {
			select {
			case updates <- view:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(cartEvent, store.View())
	c.Writer.Flush()

	log := logger.FromGin(c, h.logger)
	log.Debug("cart stream opened", zap.String("cart_id", store.ID()))
	for {
		select {
		case <-ctx.Done():
			log.Debug("cart stream closed", zap.String("cart_id", store.ID()))
			return
		case view := <-updates:
			c.SSEvent(cartEvent, view)
			c.Writer.Flush()
		}
	}
}
