package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tillpoint/internal/terminal/location"
	"tillpoint/internal/terminal/register"
	"tillpoint/internal/terminal/watch"
)

type LocationHTTPHandler struct {
	store      *location.Store
	register   *register.Manager
	supervisor *watch.Supervisor
	log        *logrus.Logger
}

func NewLocationHTTPHandler(store *location.Store, reg *register.Manager, supervisor *watch.Supervisor, log *logrus.Logger) *LocationHTTPHandler {
	return &LocationHTTPHandler{store: store, register: reg, supervisor: supervisor, log: log}
}

type SetLocationRequest struct {
	LocationID string `json:"location_id"`
}

func (h *LocationHTTPHandler) GetLocation(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse("Active location retrieved successfully", gin.H{
		"location_id": h.store.Get(),
	}))
}

// SetLocation switches the active location: the choice is persisted for
// the session, the watchers restart against the new location, and the
// register state is re-derived from the backend.
func (h *LocationHTTPHandler) SetLocation(c *gin.Context) {
	var req SetLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.store.Set(ctx, req.LocationID); err != nil {
		h.log.WithError(err).Warn("active location could not be persisted")
	}
	h.supervisor.SetLocation(req.LocationID)
	if err := h.register.SetLocation(ctx, req.LocationID); err != nil {
		// Advisory cache only: the register stays Closed until a
		// refresh succeeds, and the backend still arbitrates.
		h.log.WithError(err).Warn("register state could not be derived for new location")
	}

	c.JSON(http.StatusOK, successResponse("Active location updated", gin.H{
		"location_id":    req.LocationID,
		"register_state": h.register.State().String(),
	}))
}
