package middleware

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

type AdminMiddleware struct {
	userRepo repository.UserRepository
}

func NewAdminMiddleware(userRepo repository.UserRepository) *AdminMiddleware {
	return &AdminMiddleware{
		userRepo: userRepo,
	}
}

// Require lets the request through only when the caller's role grants
// permission. It must run after Authenticate.
func (m *AdminMiddleware) Require(permission entity.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get("uid").(string)
			if !ok || uid == "" {
				return response.Error(c, errors.Unauthorized("Authentication required", nil))
			}

			user, err := m.userRepo.GetByID(c.Request().Context(), uid)
			if err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					return response.Error(c, errors.Forbidden("Insufficient privileges", nil))
				}
				return response.Error(c, err)
			}

			if !user.Role.Can(permission) {
				return response.Error(c, errors.Forbidden("Insufficient privileges", nil))
			}

			return next(c)
		}
	}
}
