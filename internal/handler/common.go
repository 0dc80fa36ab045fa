package handler

import (
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/middleware"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// resolveStore loads the authenticated user's budget store. The returned error
// is already an HTTP response, ready to be returned from the handler.
func resolveStore(c echo.Context, stores *service.StoreManager) (*service.BudgetStore, error) {
	identity := middleware.GetIdentity(c)
	if identity.ID == "" {
		return nil, NewUnauthorizedError(c, "Authentication required")
	}
	store, err := stores.StoreFor(c.Request().Context(), identity)
	if err != nil {
		return nil, NewInternalError(c, "Failed to load budget state")
	}
	return store, nil
}
