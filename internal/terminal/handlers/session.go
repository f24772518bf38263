package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/utils"
)

const sessionTTL = 12 * time.Hour

// SessionHTTPHandler issues operator tokens for this terminal. The PIN is
// terminal-local configuration; backend authentication stays the
// backend's business.
type SessionHTTPHandler struct {
	pin string
}

func NewSessionHTTPHandler(pin string) *SessionHTTPHandler {
	return &SessionHTTPHandler{pin: pin}
}

type LoginRequest struct {
	OperatorName string `json:"operator_name" binding:"required"`
	Role         string `json:"role,omitempty"`
	PIN          string `json:"pin" binding:"required"`
}

func (h *SessionHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Operator name and PIN are required"))
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.PIN), []byte(h.pin)) != 1 {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid PIN"))
		return
	}

	role := req.Role
	if role == "" {
		role = "cashier"
	}
	token, exp, err := utils.GenerateToken(req.OperatorName, role, sessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create session"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Session created", gin.H{
		"token":      token,
		"expires_at": exp,
	}))
}
