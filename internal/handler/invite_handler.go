package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"emberchat/authgate/internal/service"
)

type InviteHandler struct {
	inviteService service.InviteService
}

func NewInviteHandler(inviteService service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

type ClaimRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// claimResponse is a fixed public contract consumed by the sign-up
// form; it does not use the standard API envelope.
type claimResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Claim redeems an invite code for an email address ahead of the
// magic-link sign-in. Validation failures name the specific reason so
// users can self-serve; only the gate keeps its answers vague.
func (h *InviteHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, claimResponse{OK: false, Error: "email and code are required"})
		return
	}

	result, err := h.inviteService.Claim(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, claimResponse{OK: false, Error: "email and code are required"})
		case errors.Is(err, service.ErrInviteCodeInvalid):
			c.JSON(http.StatusUnauthorized, claimResponse{OK: false, Error: "Invalid invite code"})
		case errors.Is(err, service.ErrInviteCodeInactive):
			c.JSON(http.StatusUnauthorized, claimResponse{OK: false, Error: "Invite code inactive"})
		case errors.Is(err, service.ErrInviteCodeExhausted):
			c.JSON(http.StatusUnauthorized, claimResponse{OK: false, Error: "Invite code exhausted"})
		default:
			c.JSON(http.StatusInternalServerError, claimResponse{OK: false, Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "reused": result.Reused})
}
