package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/logger"
	"go.uber.org/zap"
)

// statusClientClosedRequest is reported when the client went away first
const statusClientClosedRequest = 499

// errorResponse is the body of every failed request
type errorResponse struct {
	Error     string                     `json:"error"`
	Details   []domain.CheckoutUserError `json:"details,omitempty"`
	Retryable bool                       `json:"retryable,omitempty"`
}

// respondError maps a usecase error to a status code and JSON body
func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var userErrors *domain.UserErrors
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrCartItemNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrOutOfStock):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &userErrors):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Details: userErrors.Errors})
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrNoResolvableItems):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrCheckoutUnavailable), errors.Is(err, domain.ErrPlatformFailure):
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error(), Retryable: true})
	case errors.Is(err, domain.ErrGraphQL), errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, errorResponse{Error: "upstream request timed out", Retryable: true})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		logger.FromGin(c, h.logger).Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// badRequest reports a malformed request
func (h *Handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
