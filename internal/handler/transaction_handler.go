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

// TransactionHandler handles expense and income HTTP requests
type TransactionHandler struct {
	stores *service.StoreManager
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(stores *service.StoreManager) *TransactionHandler {
	return &TransactionHandler{stores: stores}
}

// TransactionRequest represents the create/update transaction request body
type TransactionRequest struct {
	Amount           string  `json:"amount"`
	Category         string  `json:"category"`
	Date             *string `json:"date,omitempty"`
	Recurring        bool    `json:"recurring"`
	RecurringType    string  `json:"recurringType,omitempty"`
	RecurringEndDate *string `json:"recurringEndDate,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID               string  `json:"id"`
	Amount           string  `json:"amount"`
	Category         string  `json:"category"`
	Date             string  `json:"date"`
	Recurring        bool    `json:"recurring"`
	RecurringType    string  `json:"recurringType,omitempty"`
	RecurringEndDate *string `json:"recurringEndDate,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

func toTransactionResponse(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            tx.ID,
		Amount:        tx.Amount.String(),
		Category:      string(tx.Category),
		Date:          tx.Date.Format(time.RFC3339),
		Recurring:     tx.Recurring,
		RecurringType: string(tx.RecurringType),
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.RecurringEndDate != nil {
		end := tx.RecurringEndDate.Format("2006-01-02")
		resp.RecurringEndDate = &end
	}
	return resp
}

// parseTransactionInput converts a request body to a service input. Malformed
// dates are passed through as nil so the store falls back to "now".
func parseTransactionInput(req TransactionRequest) (service.TransactionInput, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return service.TransactionInput{}, domain.ErrInvalidAmount
	}

	input := service.TransactionInput{
		Amount:        amount,
		Category:      req.Category,
		Recurring:     req.Recurring,
		RecurringType: req.RecurringType,
	}
	if req.Date != nil && *req.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, *req.Date); err == nil {
			input.Date = &parsed
		} else if parsed, err := time.Parse("2006-01-02", *req.Date); err == nil {
			input.Date = &parsed
		}
	}
	if req.RecurringEndDate != nil && *req.RecurringEndDate != "" {
		if parsed, err := time.Parse("2006-01-02", *req.RecurringEndDate); err == nil {
			input.RecurringEndDate = &parsed
		}
	}
	return input, nil
}

func (h *TransactionHandler) store(c echo.Context) (*service.BudgetStore, error) {
	return resolveStore(c, h.stores)
}

// ListExpenses handles GET /expenses
func (h *TransactionHandler) ListExpenses(c echo.Context) error {
	return h.listTransactions(c, domain.TransactionTypeExpense)
}

// ListIncomes handles GET /incomes
func (h *TransactionHandler) ListIncomes(c echo.Context) error {
	return h.listTransactions(c, domain.TransactionTypeIncome)
}

// CreateExpense godoc
// @Summary Create an expense
// @Description Create a new expense transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "Transaction creation request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /expenses [post]
func (h *TransactionHandler) CreateExpense(c echo.Context) error {
	return h.createTransaction(c, domain.TransactionTypeExpense)
}

// CreateIncome godoc
// @Summary Create an income
// @Description Create a new income transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "Transaction creation request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /incomes [post]
func (h *TransactionHandler) CreateIncome(c echo.Context) error {
	return h.createTransaction(c, domain.TransactionTypeIncome)
}

// UpdateExpense handles PUT /expenses/:id
func (h *TransactionHandler) UpdateExpense(c echo.Context) error {
	return h.updateTransaction(c, domain.TransactionTypeExpense)
}

// UpdateIncome handles PUT /incomes/:id
func (h *TransactionHandler) UpdateIncome(c echo.Context) error {
	return h.updateTransaction(c, domain.TransactionTypeIncome)
}

// DeleteExpense handles DELETE /expenses/:id
func (h *TransactionHandler) DeleteExpense(c echo.Context) error {
	return h.deleteTransaction(c, domain.TransactionTypeExpense)
}

// DeleteIncome handles DELETE /incomes/:id
func (h *TransactionHandler) DeleteIncome(c echo.Context) error {
	return h.deleteTransaction(c, domain.TransactionTypeIncome)
}

func (h *TransactionHandler) listTransactions(c echo.Context, txType domain.TransactionType) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	transactions := store.Transactions(txType)
	resp := make([]TransactionResponse, len(transactions))
	for i, tx := range transactions {
		resp[i] = toTransactionResponse(tx)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *TransactionHandler) createTransaction(c echo.Context, txType domain.TransactionType) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := parseTransactionInput(req)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	tx, err := store.AddTransaction(txType, input)
	if err != nil {
		return h.mapTransactionError(c, err)
	}

	// Income and expense mutations can change today's net savings, so the
	// daily spin check runs opportunistically after each one.
	store.EvaluateDailySpin()

	return c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

func (h *TransactionHandler) updateTransaction(c echo.Context, txType domain.TransactionType) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := parseTransactionInput(req)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	tx, err := store.UpdateTransaction(txType, c.Param("id"), input)
	if err != nil {
		return h.mapTransactionError(c, err)
	}

	store.EvaluateDailySpin()

	return c.JSON(http.StatusOK, toTransactionResponse(tx))
}

func (h *TransactionHandler) deleteTransaction(c echo.Context, txType domain.TransactionType) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	if err := store.DeleteTransaction(txType, c.Param("id")); err != nil {
		return h.mapTransactionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TransactionHandler) mapTransactionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	case errors.Is(err, domain.ErrLimitReached):
		return NewForbiddenError(c, "Transaction limit reached for your plan")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found")
	default:
		return NewInternalError(c, "Failed to process transaction")
	}
}
