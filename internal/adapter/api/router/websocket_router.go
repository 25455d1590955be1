package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the live chat endpoint. The handler
// authenticates from the ?token= query itself since browsers cannot set
// headers on websocket requests.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
