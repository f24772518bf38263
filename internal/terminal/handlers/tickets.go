package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/pos"
	"tillpoint/internal/terminal/ticket"
)

// SalesAPI recalls stored sales for reprinting.
type SalesAPI interface {
	GetSale(ctx context.Context, locationID, orderNumber string) (pos.Sale, error)
}

type TicketHTTPHandler struct {
	api      SalesAPI
	tickets  *ticket.Controller
	location func() string
}

func NewTicketHTTPHandler(api SalesAPI, tickets *ticket.Controller, location func() string) *TicketHTTPHandler {
	return &TicketHTTPHandler{api: api, tickets: tickets, location: location}
}

// GetTicket returns the stored sale together with its rendered document,
// so the till UI can preview before printing.
func (h *TicketHTTPHandler) GetTicket(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sale, err := h.api.GetSale(ctx, h.location(), c.Param("orderNumber"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse(backendMessage(err, "Sale not found")))
		return
	}

	c.JSON(http.StatusOK, successResponse("Ticket retrieved successfully", gin.H{
		"sale":     sale,
		"document": h.tickets.RenderSaleDocument(ctx, sale),
	}))
}

// PrintTicket reprints a stored sale. Printing mutates nothing, so the
// operator can invoke it as many times as needed.
func (h *TicketHTTPHandler) PrintTicket(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sale, err := h.api.GetSale(ctx, h.location(), c.Param("orderNumber"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse(backendMessage(err, "Sale not found")))
		return
	}

	if err := h.tickets.PrintSale(ctx, sale); err != nil {
		c.JSON(http.StatusBadGateway, errorResponse("Printer is not responding"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Ticket sent to printer", nil))
}
