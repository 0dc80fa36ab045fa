package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// GoalHandler handles savings goal HTTP requests
type GoalHandler struct {
	stores *service.StoreManager
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(stores *service.StoreManager) *GoalHandler {
	return &GoalHandler{stores: stores}
}

// GoalRequest represents the create/update goal request body
type GoalRequest struct {
	Name     string  `json:"name"`
	Target   string  `json:"target"`
	Deadline *string `json:"deadline,omitempty"`
}

// ContributeRequest represents a goal contribution request body
type ContributeRequest struct {
	Amount string `json:"amount"`
}

// GoalResponse represents a savings goal in API responses
type GoalResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Target   string  `json:"target"`
	Current  string  `json:"current"`
	Deadline *string `json:"deadline,omitempty"`
}

func toGoalResponse(goal *domain.SavingsGoal) GoalResponse {
	resp := GoalResponse{
		ID:      goal.ID,
		Name:    goal.Name,
		Target:  goal.Target.String(),
		Current: goal.Current.String(),
	}
	if goal.Deadline != nil {
		deadline := goal.Deadline.Format("2006-01-02")
		resp.Deadline = &deadline
	}
	return resp
}

func parseGoalInput(c echo.Context, req GoalRequest) (service.GoalInput, error) {
	target, err := decimal.NewFromString(req.Target)
	if err != nil {
		return service.GoalInput{}, NewValidationError(c, "Invalid target", []ValidationError{
			{Field: "target", Message: "Must be a valid decimal number"},
		})
	}
	input := service.GoalInput{Name: req.Name, Target: target}
	if req.Deadline != nil && *req.Deadline != "" {
		parsed, err := time.Parse("2006-01-02", *req.Deadline)
		if err != nil {
			return service.GoalInput{}, NewValidationError(c, "Invalid deadline", []ValidationError{
				{Field: "deadline", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.Deadline = &parsed
	}
	return input, nil
}

// ListGoals godoc
// @Summary List savings goals
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} GoalResponse
// @Router /goals [get]
func (h *GoalHandler) ListGoals(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	goals := store.SavingsGoals()
	resp := make([]GoalResponse, len(goals))
	for i, goal := range goals {
		resp[i] = toGoalResponse(goal)
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateGoal godoc
// @Summary Create a savings goal
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GoalRequest true "Goal creation request"
// @Success 201 {object} GoalResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /goals [post]
func (h *GoalHandler) CreateGoal(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := parseGoalInput(c, req)
	if err != nil {
		return err
	}

	goal, err := store.AddSavingsGoal(input)
	if err != nil {
		return h.mapGoalError(c, err)
	}
	return c.JSON(http.StatusCreated, toGoalResponse(goal))
}

// UpdateGoal godoc
// @Summary Update a savings goal
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param request body GoalRequest true "Goal update request"
// @Success 200 {object} GoalResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := parseGoalInput(c, req)
	if err != nil {
		return err
	}

	goal, err := store.UpdateSavingsGoal(c.Param("id"), input)
	if err != nil {
		return h.mapGoalError(c, err)
	}
	return c.JSON(http.StatusOK, toGoalResponse(goal))
}

// Contribute godoc
// @Summary Contribute to a savings goal
// @Description Add an amount to a goal's current progress
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param request body ContributeRequest true "Contribution request"
// @Success 200 {object} GoalResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /goals/{id}/contribute [post]
func (h *GoalHandler) Contribute(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	var req ContributeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	goal, err := store.ContributeToGoal(c.Param("id"), amount)
	if err != nil {
		return h.mapGoalError(c, err)
	}
	return c.JSON(http.StatusOK, toGoalResponse(goal))
}

// DeleteGoal godoc
// @Summary Delete a savings goal
// @Tags goals
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c echo.Context) error {
	store, err := resolveStore(c, h.stores)
	if err != nil {
		return err
	}

	if err := store.DeleteSavingsGoal(c.Param("id")); err != nil {
		return h.mapGoalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GoalHandler) mapGoalError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrLimitReached):
		return NewForbiddenError(c, "Savings goal limit reached for your plan")
	case errors.Is(err, domain.ErrGoalNotFound):
		return NewNotFoundError(c, "Savings goal not found")
	default:
		return NewInternalError(c, "Failed to process savings goal")
	}
}
