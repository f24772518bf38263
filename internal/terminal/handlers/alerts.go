package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/terminal/watch"
)

type AlertsHTTPHandler struct {
	center *watch.Center
}

func NewAlertsHTTPHandler(center *watch.Center) *AlertsHTTPHandler {
	return &AlertsHTTPHandler{center: center}
}

func (h *AlertsHTTPHandler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse("Alerts retrieved successfully", h.center.Active()))
}

func (h *AlertsHTTPHandler) DismissAlert(c *gin.Context) {
	if err := h.center.Dismiss(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, errorResponse("Alert not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Alert dismissed", nil))
}
