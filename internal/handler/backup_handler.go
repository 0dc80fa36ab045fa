package handler

import (
	"net/http"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BackupHandler handles snapshot export requests
type BackupHandler struct {
	stores  *service.StoreManager
	backups *service.BackupService
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(stores *service.StoreManager, backups *service.BackupService) *BackupHandler {
	return &BackupHandler{stores: stores, backups: backups}
}

// CreateBackup godoc
// @Summary Export a snapshot backup
// @Description Upload a full JSON snapshot to object storage and return a
// @Description temporary download link
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Success 201 {object} service.BackupResult
// @Failure 502 {object} ProblemDetails
// @Router /backups [post]
func (h *BackupHandler) CreateBackup(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	result, err := h.backups.Export(c.Request().Context(), store.Snapshot())
	if err != nil {
		log.Error().Err(err).Msg("Backup export failed")
		return c.JSON(http.StatusBadGateway, ProblemDetails{
			Type:     ErrorTypeInternal,
			Title:    "Backup Failed",
			Status:   http.StatusBadGateway,
			Detail:   "Object storage is unavailable",
			Instance: c.Request().URL.Path,
		})
	}
	return c.JSON(http.StatusCreated, result)
}
