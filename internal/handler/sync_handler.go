package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// SyncHandler handles persistence health and explicit save requests
type SyncHandler struct {
	stores *service.StoreManager
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(stores *service.StoreManager) *SyncHandler {
	return &SyncHandler{stores: stores}
}

// SyncStatusResponse reports persistence health for the session
type SyncStatusResponse struct {
	State     string `json:"state"`
	Revision  int64  `json:"revision"`
	UpdatedAt string `json:"updatedAt"`
}

// GetStatus godoc
// @Summary Get persistence health
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SyncStatusResponse
// @Router /sync/status [get]
func (h *SyncHandler) GetStatus(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	snapshot := store.Snapshot()
	return c.JSON(http.StatusOK, SyncStatusResponse{
		State:     string(store.ConnectionState()),
		Revision:  snapshot.Revision,
		UpdatedAt: snapshot.UpdatedAt.Format(time.RFC3339),
	})
}

// ForceSave godoc
// @Summary Force an immediate save
// @Description Bypass the debounce and persist the current state now
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SyncStatusResponse
// @Failure 409 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /sync/save [post]
func (h *SyncHandler) ForceSave(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	if err := store.ForceSave(c.Request().Context()); err != nil {
		if errors.Is(err, domain.ErrStaleSnapshot) {
			return c.JSON(http.StatusConflict, ProblemDetails{
				Type:     ErrorTypeConflict,
				Title:    "Snapshot Conflict",
				Status:   http.StatusConflict,
				Detail:   "The remote copy holds a newer revision; local changes could not be persisted",
				Instance: c.Request().URL.Path,
			})
		}
		return c.JSON(http.StatusBadGateway, ProblemDetails{
			Type:     ErrorTypeInternal,
			Title:    "Save Failed",
			Status:   http.StatusBadGateway,
			Detail:   "Remote persistence is unavailable; local state is preserved",
			Instance: c.Request().URL.Path,
		})
	}

	snapshot := store.Snapshot()
	return c.JSON(http.StatusOK, SyncStatusResponse{
		State:     string(store.ConnectionState()),
		Revision:  snapshot.Revision,
		UpdatedAt: snapshot.UpdatedAt.Format(time.RFC3339),
	})
}

// Reset godoc
// @Summary Reset all budget data
// @Description Discard all state for the authenticated user, keeping identity
// @Tags sync
// @Security BearerAuth
// @Success 204
// @Router /sync/reset [post]
func (h *SyncHandler) Reset(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	store.Reset()
	return c.NoContent(http.StatusNoContent)
}
