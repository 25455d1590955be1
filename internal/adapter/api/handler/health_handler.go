package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"foodshare/internal/infrastructure/docstore"
)

type HealthHandler struct {
	store docstore.Store
}

func NewHealthHandler(store docstore.Store) *HealthHandler {
	return &HealthHandler{
		store: store,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"driver": h.store.Driver(),
		"time":   time.Now().Format(time.RFC3339),
	})
}

// CheckStoreHealth runs a bounded read against the document store. A
// missing probe document still proves the store answered.
func (h *HealthHandler) CheckStoreHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	_, err := h.store.Get(ctx, docstore.DocPath("health", "probe"))
	if err != nil && !errors.Is(docstore.Classify(err), docstore.ErrNotFound) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "Document store unreachable",
			"driver": h.store.Driver(),
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Document store connected",
		"driver": h.store.Driver(),
	})
}
