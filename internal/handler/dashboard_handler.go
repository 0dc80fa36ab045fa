package handler

import (
	"net/http"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// DashboardHandler handles aggregated reporting HTTP requests
type DashboardHandler struct {
	stores *service.StoreManager
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(stores *service.StoreManager) *DashboardHandler {
	return &DashboardHandler{stores: stores}
}

// MonthlyTotalsResponse maps month keys to per-category net amounts
// (incomes positive, expenses negative)
type MonthlyTotalsResponse struct {
	Months map[string]map[string]string `json:"months"`
}

// GetMonthlyTotals godoc
// @Summary Get per-category monthly totals
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MonthlyTotalsResponse
// @Router /dashboard/monthly-totals [get]
func (h *DashboardHandler) GetMonthlyTotals(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	snapshot := store.Snapshot()
	resp := MonthlyTotalsResponse{Months: make(map[string]map[string]string, len(snapshot.MonthlyTotals))}
	for month, byCategory := range snapshot.MonthlyTotals {
		inner := make(map[string]string, len(byCategory))
		for category, total := range byCategory {
			inner[string(category)] = total.String()
		}
		resp.Months[month] = inner
	}
	return c.JSON(http.StatusOK, resp)
}
