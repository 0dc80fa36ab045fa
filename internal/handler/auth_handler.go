package handler

import (
	"net/http"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/middleware"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles session attach/detach HTTP requests
type AuthHandler struct {
	stores *service.StoreManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(stores *service.StoreManager) *AuthHandler {
	return &AuthHandler{stores: stores}
}

// SessionResponse represents the attached session in API responses
type SessionResponse struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName,omitempty"`
	EffectivePlan string `json:"effectivePlan"`
	Revision      int64  `json:"revision"`
	SyncState     string `json:"syncState"`
	UpdatedAt     string `json:"updatedAt"`
}

// Callback handles the Auth0 callback after successful authentication.
// Attaching the identity hydrates the user's store and performs an immediate
// save so the remote copy is keyed to the account right away.
// POST /auth/callback
func (h *AuthHandler) Callback(c echo.Context) error {
	identity := middleware.GetIdentity(c)
	if identity.ID == "" {
		log.Error().Msg("No identity in context - middleware may not be configured")
		return NewUnauthorizedError(c, "Authentication required")
	}

	store, err := h.stores.StoreFor(c.Request().Context(), identity)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.ID).Msg("Failed to attach session")
		return NewInternalError(c, "Failed to attach session")
	}

	if err := store.ForceSave(c.Request().Context()); err != nil {
		// Attach still succeeds; the scheduler keeps retrying on later
		// mutations.
		log.Warn().Err(err).Str("user_id", identity.ID).Msg("Initial save after login failed")
	}

	return c.JSON(http.StatusOK, h.sessionResponse(store))
}

// Me returns the current authenticated session's information
// GET /auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.sessionResponse(store))
}

// LogoutResponse represents the response from logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// Logout force-saves and detaches the user's store
// POST /auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	identity := middleware.GetIdentity(c)
	if identity.ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if err := h.stores.Detach(c.Request().Context(), identity.ID); err != nil {
		log.Warn().Err(err).Str("user_id", identity.ID).Msg("Final save on logout failed")
	}

	log.Info().Str("user_id", identity.ID).Msg("User logged out")

	return c.JSON(http.StatusOK, LogoutResponse{
		Message: "Logged out successfully",
	})
}

func (h *AuthHandler) sessionResponse(store *service.BudgetStore) SessionResponse {
	snapshot := store.Snapshot()
	return SessionResponse{
		UserID:        snapshot.Identity.ID,
		Email:         snapshot.Identity.Email,
		DisplayName:   snapshot.Identity.DisplayName,
		EffectivePlan: string(store.EffectivePlan()),
		Revision:      snapshot.Revision,
		SyncState:     string(store.ConnectionState()),
		UpdatedAt:     snapshot.UpdatedAt.Format(time.RFC3339),
	}
}
