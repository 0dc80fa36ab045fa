package handler

import (
	"net/http"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// SubscriptionHandler handles subscription and feature gating HTTP requests
type SubscriptionHandler struct {
	stores *service.StoreManager
	gate   *service.GateService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(stores *service.StoreManager, gate *service.GateService) *SubscriptionHandler {
	return &SubscriptionHandler{stores: stores, gate: gate}
}

// SubscriptionRequest represents the subscription update request body, fed by
// the payment provider webhook relay
type SubscriptionRequest struct {
	PlanID               string `json:"planId"`
	Status               string `json:"status"`
	StripeCustomerID     string `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string `json:"stripeSubscriptionId,omitempty"`
}

// SubscriptionResponse represents subscription state in API responses
type SubscriptionResponse struct {
	CurrentPlan   string `json:"currentPlan"`
	EffectivePlan string `json:"effectivePlan"`
	Status        string `json:"status"`
}

// FeatureResponse reports availability of a single feature
type FeatureResponse struct {
	Feature   string `json:"feature"`
	Available bool   `json:"available"`
}

// LimitResponse reports a usage-limit check result
type LimitResponse struct {
	Feature   string `json:"feature"`
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// GetSubscription godoc
// @Summary Get subscription state
// @Tags subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SubscriptionResponse
// @Router /subscription [get]
func (h *SubscriptionHandler) GetSubscription(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	sub := store.Subscription()
	return c.JSON(http.StatusOK, SubscriptionResponse{
		CurrentPlan:   string(sub.CurrentPlan),
		EffectivePlan: string(store.EffectivePlan()),
		Status:        sub.Status,
	})
}

// UpdateSubscription godoc
// @Summary Update subscription state
// @Description Record a plan change from the payment provider
// @Tags subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubscriptionRequest true "Subscription update request"
// @Success 200 {object} SubscriptionResponse
// @Failure 400 {object} ProblemDetails
// @Router /subscription [put]
func (h *SubscriptionHandler) UpdateSubscription(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	var req SubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	sub := store.UpdateSubscription(req.PlanID, req.Status, req.StripeCustomerID, req.StripeSubscriptionID)
	return c.JSON(http.StatusOK, SubscriptionResponse{
		CurrentPlan:   string(sub.CurrentPlan),
		EffectivePlan: string(store.EffectivePlan()),
		Status:        sub.Status,
	})
}

// CheckFeature godoc
// @Summary Check feature availability
// @Tags subscription
// @Produce json
// @Security BearerAuth
// @Param feature path string true "Feature name"
// @Success 200 {object} FeatureResponse
// @Router /features/{feature} [get]
func (h *SubscriptionHandler) CheckFeature(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	feature := domain.Feature(c.Param("feature"))
	return c.JSON(http.StatusOK, FeatureResponse{
		Feature:   string(feature),
		Available: h.gate.IsFeatureAvailable(store.EffectivePlan(), feature),
	})
}

// CheckLimit godoc
// @Summary Check a usage limit
// @Description Report whether one more unit of a limited resource is allowed
// @Tags subscription
// @Produce json
// @Security BearerAuth
// @Param feature path string true "Feature name"
// @Success 200 {object} LimitResponse
// @Router /limits/{feature} [get]
func (h *SubscriptionHandler) CheckLimit(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	feature := domain.Feature(c.Param("feature"))
	usage := h.currentUsage(store, feature)
	check := h.gate.CheckUsageLimit(store.EffectivePlan(), feature, usage)

	return c.JSON(http.StatusOK, LimitResponse{
		Feature:   string(feature),
		Allowed:   check.Allowed,
		Remaining: check.Remaining,
		Unlimited: check.Unlimited,
	})
}

func (h *SubscriptionHandler) currentUsage(store *service.BudgetStore, feature domain.Feature) int {
	switch feature {
	case domain.FeatureMaxTransactions:
		return len(store.Transactions(domain.TransactionTypeExpense)) +
			len(store.Transactions(domain.TransactionTypeIncome))
	case domain.FeatureMaxSavingsGoals:
		return len(store.SavingsGoals())
	}
	return 0
}
