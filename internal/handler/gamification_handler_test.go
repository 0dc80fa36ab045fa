package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetState_Defaults(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewGamificationHandler(env.stores)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gamification", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.GetState(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response GamificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(0), response.Points)
	assert.Equal(t, 0, response.Spins)
	assert.NotNil(t, response.ActiveBoosters)
	assert.Empty(t, response.ActiveBoosters)
}

func TestEvaluateDailySpin_GrantedAfterIncome(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewGamificationHandler(env.stores)

	store, err := env.stores.StoreFor(context.Background(), domain.Identity{ID: "auth0|test", Email: "test@example.com"})
	require.NoError(t, err)
	_, err = store.AddTransaction(domain.TransactionTypeIncome, expenseServiceInput("150.00", "salary"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/gamification/daily-spin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.EvaluateDailySpin(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Granted          bool `json:"granted"`
		AlreadyEvaluated bool `json:"alreadyEvaluated"`
		Spins            int  `json:"spins"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Granted)
	assert.Equal(t, 1, response.Spins)
}

func TestSpin_NoCredits(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewGamificationHandler(env.stores)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/gamification/spin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.Spin(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, ErrorTypeConflict, problem.Type)
}

func TestSpin_ConsumesCredit(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewGamificationHandler(env.stores)

	// Earn a spin credit first.
	store, err := env.stores.StoreFor(context.Background(), domain.Identity{ID: "auth0|test", Email: "test@example.com"})
	require.NoError(t, err)
	_, err = store.AddTransaction(domain.TransactionTypeIncome, expenseServiceInput("150.00", "salary"))
	require.NoError(t, err)
	require.True(t, store.EvaluateDailySpin().Granted)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/gamification/spin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.Spin(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response RewardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Contains(t, []string{"small", "medium", "rare", "epic"}, response.Tier)
	assert.Equal(t, 0, store.Gamification().Spins)
}
