package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tillpoint/internal/backend"
	"tillpoint/internal/pos"
	"tillpoint/internal/terminal/register"
	"tillpoint/internal/terminal/ticket"
)

type RegisterHTTPHandler struct {
	manager *register.Manager
	tickets *ticket.Controller
	log     *logrus.Logger
}

func NewRegisterHTTPHandler(manager *register.Manager, tickets *ticket.Controller, log *logrus.Logger) *RegisterHTTPHandler {
	return &RegisterHTTPHandler{manager: manager, tickets: tickets, log: log}
}

type OpenRegisterRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float" binding:"required"`
}

type CloseRegisterRequest struct {
	OperatorName string `json:"operator_name" binding:"required"`
}

type registerStateView struct {
	State   string               `json:"state"`
	Session *pos.RegisterSession `json:"session,omitempty"`
}

func (h *RegisterHTTPHandler) GetState(c *gin.Context) {
	view := registerStateView{State: h.manager.State().String()}
	if session, ok := h.manager.CurrentSession(); ok {
		view.Session = &session
	}
	c.JSON(http.StatusOK, successResponse("Register state retrieved successfully", view))
}

func (h *RegisterHTTPHandler) OpenRegister(c *gin.Context) {
	var req OpenRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Opening float must be a number"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := h.manager.Open(ctx, req.OpeningFloat)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, successResponse("Register opened", nil))
	case errors.Is(err, register.ErrInvalidOpeningFloat):
		c.JSON(http.StatusBadRequest, errorResponse("Opening float must be a positive amount"))
	case errors.Is(err, register.ErrNoLocation):
		c.JSON(http.StatusBadRequest, errorResponse("Select a location first"))
	case errors.Is(err, register.ErrAlreadyOpen), backend.IsConflict(err):
		c.JSON(http.StatusConflict, errorResponse("A register session is already open"))
	default:
		c.JSON(http.StatusBadGateway, errorResponse(backendMessage(err, "Failed to open register")))
	}
}

func (h *RegisterHTTPHandler) CloseRegister(c *gin.Context) {
	var req CloseRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Operator name is required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := h.manager.Close(ctx, req.OperatorName)
	switch {
	case err == nil:
	case errors.Is(err, register.ErrNotOpen):
		c.JSON(http.StatusConflict, errorResponse("No register session is open"))
		return
	case errors.Is(err, register.ErrNoLocation):
		c.JSON(http.StatusBadRequest, errorResponse("Select a location first"))
		return
	default:
		c.JSON(http.StatusBadGateway, errorResponse(backendMessage(err, "Failed to close register")))
		return
	}

	if printErr := h.tickets.PrintRegisterSummary(ctx, summary); printErr != nil {
		h.log.WithError(printErr).Warn("closing summary could not be printed")
	}
	c.JSON(http.StatusOK, successResponse("Register closed", summary))
}

func (h *RegisterHTTPHandler) History(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	history, err := h.manager.History(ctx)
	if err != nil {
		if errors.Is(err, register.ErrNoLocation) {
			c.JSON(http.StatusBadRequest, errorResponse("Select a location first"))
			return
		}
		c.JSON(http.StatusBadGateway, errorResponse(backendMessage(err, "Failed to list register history")))
		return
	}
	c.JSON(http.StatusOK, successResponse("Register history retrieved successfully", history))
}
