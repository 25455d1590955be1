package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
)

func SetupDevRouter(e *echo.Echo, environment string, devTokenHandler *handler.DevTokenHandler) {
	if environment != "development" || devTokenHandler == nil {
		return
	}

	e.POST("/_dev/token", devTokenHandler.GenerateToken)
}
