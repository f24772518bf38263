package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tillpoint/internal/pos"
	"tillpoint/internal/terminal/cart"
)

type CartHTTPHandler struct {
	cart *cart.Store
}

func NewCartHTTPHandler(store *cart.Store) *CartHTTPHandler {
	return &CartHTTPHandler{cart: store}
}

type AddItemRequest struct {
	ProductID      string          `json:"product_id" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	UnitPrice      decimal.Decimal `json:"unit_price" binding:"required"`
	VariantID      string          `json:"variant_id,omitempty"`
	VariantLabel   string          `json:"variant_label,omitempty"`
	AvailableStock *int            `json:"available_stock,omitempty"`
	AddOns         []pos.AddOn     `json:"addons,omitempty"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type SetNoteRequest struct {
	Note string `json:"note"`
}

type cartView struct {
	Lines []pos.CartLine `json:"lines"`
	Total string         `json:"total"`
}

func (h *CartHTTPHandler) view() cartView {
	return cartView{
		Lines: h.cart.Lines(),
		Total: h.cart.Total().StringFixed(2),
	}
}

func (h *CartHTTPHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse("Cart retrieved successfully", h.view()))
}

func (h *CartHTTPHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	line := h.cart.Add(pos.Product{
		ProductID:      req.ProductID,
		VariantID:      req.VariantID,
		VariantLabel:   req.VariantLabel,
		Name:           req.Name,
		UnitPrice:      req.UnitPrice,
		AvailableStock: req.AvailableStock,
		AddOns:         req.AddOns,
	})
	c.JSON(http.StatusOK, successWithMetaResponse("Item added to cart", line, h.view()))
}

func (h *CartHTTPHandler) SetQuantity(c *gin.Context) {
	lineID := c.Param("id")
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	line, err := h.cart.SetQuantity(lineID, req.Quantity)
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		c.JSON(http.StatusNotFound, errorResponse("Cart line not found"))
		return
	case errors.Is(err, cart.ErrStockExceeded):
		c.JSON(http.StatusBadRequest, errorResponse("Requested quantity exceeds available stock"))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update quantity"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Quantity updated", line, h.view()))
}

func (h *CartHTTPHandler) SetNote(c *gin.Context) {
	lineID := c.Param("id")
	var req SetNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	line, err := h.cart.SetNote(lineID, req.Note)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Cart line not found"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Note updated", line, h.view()))
}

func (h *CartHTTPHandler) RemoveLine(c *gin.Context) {
	if err := h.cart.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Cart line not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Line removed", h.view()))
}

func (h *CartHTTPHandler) ClearCart(c *gin.Context) {
	h.cart.Clear()
	c.JSON(http.StatusOK, successResponse("Cart cleared", h.view()))
}
