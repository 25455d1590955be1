package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/response"
)

type AdminHandler struct {
	storeDriver string
	environment string
	wsManager   *ws.Manager
	startedAt   time.Time
}

func NewAdminHandler(storeDriver, environment string, wsManager *ws.Manager) *AdminHandler {
	return &AdminHandler{
		storeDriver: storeDriver,
		environment: environment,
		wsManager:   wsManager,
		startedAt:   time.Now(),
	}
}

// GetSystemInfo reports the store driver and live connection counts.
func (h *AdminHandler) GetSystemInfo(c echo.Context) error {
	return response.Success(c, map[string]interface{}{
		"store_driver":          h.storeDriver,
		"environment":           h.environment,
		"websocket_connections": h.wsManager.ConnectionCount(),
		"online_users":          h.wsManager.OnlineUsers(),
		"uptime_seconds":        int64(time.Since(h.startedAt).Seconds()),
	})
}
