package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"emberchat/authgate/internal/service"
	"emberchat/authgate/pkg/response"
)

type IdentityHandler struct {
	identityService service.IdentityService
}

func NewIdentityHandler(identityService service.IdentityService) *IdentityHandler {
	return &IdentityHandler{identityService: identityService}
}

type BindPasswordRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *IdentityHandler) BindPassword(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req BindPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.identityService.BindPassword(c.Request.Context(), userID, req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrIdentityAlreadyExists):
			response.Conflict(c, err.Error())
		case errors.Is(err, service.ErrInvalidInput):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrUserDisabled):
			response.Forbidden(c, err.Error())
		default:
			response.InternalError(c, "failed to bind password")
		}
		return
	}

	response.Success(c, nil)
}

func (h *IdentityHandler) Unbind(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	identityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid identity id")
		return
	}

	if err := h.identityService.UnbindIdentity(c.Request.Context(), userID, identityID); err != nil {
		switch {
		case errors.Is(err, service.ErrCannotUnbindLast):
			response.Conflict(c, err.Error())
		case errors.Is(err, service.ErrIdentityNotOwned):
			response.Forbidden(c, err.Error())
		default:
			response.InternalError(c, "failed to unbind identity")
		}
		return
	}

	response.Success(c, nil)
}

func (h *IdentityHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	identities, err := h.identityService.ListIdentities(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to list identities")
		return
	}

	response.Success(c, identities)
}
