package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tillpoint/internal/backend"
	"tillpoint/internal/pos"
	"tillpoint/internal/terminal/cart"
	"tillpoint/internal/terminal/checkout"
)

// HeldTicketsAPI is the backend slice the held-ticket handlers use
// directly (saving goes through the checkout orchestrator).
type HeldTicketsAPI interface {
	ListHeldTickets(ctx context.Context, locationID string) ([]pos.HeldTicket, error)
	DiscardHeldTicket(ctx context.Context, locationID, ticketID string) error
}

type HeldTicketHTTPHandler struct {
	orchestrator *checkout.Orchestrator
	api          HeldTicketsAPI
	cart         *cart.Store
	location     func() string
	log          *logrus.Logger
}

func NewHeldTicketHTTPHandler(orchestrator *checkout.Orchestrator, api HeldTicketsAPI, store *cart.Store, location func() string, log *logrus.Logger) *HeldTicketHTTPHandler {
	return &HeldTicketHTTPHandler{
		orchestrator: orchestrator,
		api:          api,
		cart:         store,
		location:     location,
		log:          log,
	}
}

type SaveHeldTicketRequest struct {
	Name string `json:"name" binding:"required"`
}

type LoadHeldTicketRequest struct {
	Replace bool `json:"replace"`
}

func (h *HeldTicketHTTPHandler) SaveHeldTicket(c *gin.Context) {
	var req SaveHeldTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Ticket name is required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.orchestrator.SaveAsHeldTicket(ctx, req.Name); err != nil {
		switch {
		case errors.Is(err, checkout.ErrBlankTicketName):
			c.JSON(http.StatusBadRequest, errorResponse("Ticket name is required"))
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, errorResponse("Cart is empty"))
		default:
			c.JSON(http.StatusBadGateway, errorResponse(backendMessage(err, "Failed to save ticket")))
		}
		return
	}
	c.JSON(http.StatusCreated, successResponse("Ticket saved", nil))
}

func (h *HeldTicketHTTPHandler) ListHeldTickets(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tickets, err := h.api.ListHeldTickets(ctx, h.location())
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse(backendMessage(err, "Failed to list held tickets")))
		return
	}
	c.JSON(http.StatusOK, successResponse("Held tickets retrieved successfully", tickets))
}

// LoadHeldTicket pulls a held ticket back into the cart, consuming it:
// replace swaps the whole cart, otherwise its lines append.
func (h *HeldTicketHTTPHandler) LoadHeldTicket(c *gin.Context) {
	ticketID := c.Param("id")
	var req LoadHeldTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tickets, err := h.api.ListHeldTickets(ctx, h.location())
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse(backendMessage(err, "Failed to load ticket")))
		return
	}

	var found *pos.HeldTicket
	for i := range tickets {
		if tickets[i].ID == ticketID {
			found = &tickets[i]
			break
		}
	}
	if found == nil {
		c.JSON(http.StatusNotFound, errorResponse("Held ticket not found"))
		return
	}

	h.cart.LoadFrom(pos.CartLinesFromSale(found.Lines), req.Replace)

	if err := h.api.DiscardHeldTicket(ctx, h.location(), ticketID); err != nil {
		h.log.WithError(err).WithField("ticket", ticketID).Warn("loaded held ticket could not be removed from backend")
	}
	c.JSON(http.StatusOK, successResponse("Ticket loaded into cart", h.cart.Lines()))
}

func (h *HeldTicketHTTPHandler) DiscardHeldTicket(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.api.DiscardHeldTicket(ctx, h.location(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, errorResponse(backendMessage(err, "Failed to discard ticket")))
		return
	}
	c.JSON(http.StatusOK, successResponse("Ticket discarded", nil))
}

func backendMessage(err error, fallback string) string {
	if msg := backend.Message(err); msg != "" {
		return msg
	}
	return fallback
}
