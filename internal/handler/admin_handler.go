package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"emberchat/authgate/internal/service"
	"emberchat/authgate/pkg/response"
)

type AdminHandler struct {
	inviteService service.InviteService
}

func NewAdminHandler(inviteService service.InviteService) *AdminHandler {
	return &AdminHandler{inviteService: inviteService}
}

type CreateInviteCodeRequest struct {
	MaxUses *int `json:"max_uses,omitempty"` // omit for unbounded
}

type SetInviteCodeActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// CreateInviteCode creates a new invite code.
func (h *AdminHandler) CreateInviteCode(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req CreateInviteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		response.BadRequest(c, "max_uses must be greater than 0")
		return
	}

	code, err := h.inviteService.CreateInviteCode(c.Request.Context(), userID, req.MaxUses)
	if err != nil {
		response.InternalError(c, "failed to create invite code")
		return
	}

	response.Success(c, code)
}

// ListInviteCodes returns all invite codes.
func (h *AdminHandler) ListInviteCodes(c *gin.Context) {
	codes, err := h.inviteService.ListInviteCodes(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list invite codes")
		return
	}

	response.Success(c, codes)
}

// SetInviteCodeActive activates or deactivates a code. Inactive codes
// are never claimable regardless of remaining capacity.
func (h *AdminHandler) SetInviteCodeActive(c *gin.Context) {
	var req SetInviteCodeActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	code := c.Param("code")
	if err := h.inviteService.SetInviteCodeActive(c.Request.Context(), code, *req.Active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, 404, 404, "invite code not found")
			return
		}
		response.InternalError(c, "failed to update invite code")
		return
	}

	response.Success(c, nil)
}
