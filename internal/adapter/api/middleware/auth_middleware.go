package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

// TokenVerifier resolves a bearer token to a user id. Firebase ID tokens
// and development tokens both satisfy it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		uid, err := m.GetUIDFromToken(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("uid", uid)
		return next(c)
	}
}

func (m *AuthMiddleware) GetUIDFromToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.Unauthorized("Token is required", nil)
	}
	uid, err := m.verifier.VerifyToken(ctx, token)
	if err != nil || uid == "" {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return uid, nil
}
