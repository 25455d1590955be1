package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupChatRouter(e, handler.GetChatHandler(), authMiddleware)
	SetupListingRouter(e, handler.GetListingHandler(), authMiddleware)
}
