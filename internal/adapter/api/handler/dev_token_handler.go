package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/firebase"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

type DevTokenHandler struct {
	tokens   *firebase.DevTokenManager
	userRepo repository.UserRepository
}

func NewDevTokenHandler(tokens *firebase.DevTokenManager, userRepo repository.UserRepository) *DevTokenHandler {
	return &DevTokenHandler{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

type devTokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// GenerateToken signs a development token for an existing user.
func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userRepo.GetByID(c.Request().Context(), req.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	token, expiresAt, err := h.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return response.Error(c, errors.Internal("Failed to sign token", err))
	}

	return response.Success(c, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
	})
}
