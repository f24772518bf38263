package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/backend"
	"tillpoint/internal/terminal/checkout"
)

type CheckoutHTTPHandler struct {
	orchestrator *checkout.Orchestrator
}

func NewCheckoutHTTPHandler(orchestrator *checkout.Orchestrator) *CheckoutHTTPHandler {
	return &CheckoutHTTPHandler{orchestrator: orchestrator}
}

type CheckoutRequest struct {
	PaymentType string `json:"payment_type" binding:"required"`
	OrderType   string `json:"order_type,omitempty"`
}

func (h *CheckoutHTTPHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Payment type is required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sale, err := h.orchestrator.Submit(ctx, req.PaymentType, req.OrderType)
	if err != nil {
		status, msg := checkoutFailure(err)
		c.JSON(status, errorResponse(msg))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Sale completed successfully", sale))
}

// checkoutFailure maps the error taxonomy onto HTTP: local validation is
// a client error, a register gate a conflict, and a backend rejection
// surfaces its own message verbatim when it carries one.
func checkoutFailure(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrEmptyPaymentType):
		return http.StatusBadRequest, "Payment type is required"
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, "Cart is empty"
	case errors.Is(err, checkout.ErrRegisterClosed):
		return http.StatusConflict, "No open register session; open the register before selling"
	}
	if msg := backend.Message(err); msg != "" {
		return http.StatusBadGateway, msg
	}
	return http.StatusBadGateway, "Failed to complete the sale"
}
