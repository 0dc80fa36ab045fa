package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStatus(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewSyncHandler(env.stores)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.GetStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response SyncStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "unknown", response.State)
	assert.Equal(t, int64(0), response.Revision)
}

func TestForceSave_Success(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewSyncHandler(env.stores)

	store, err := env.stores.StoreFor(context.Background(), domain.Identity{ID: "auth0|test", Email: "test@example.com"})
	require.NoError(t, err)
	_, err = store.AddTransaction(domain.TransactionTypeExpense, expenseServiceInput("10.00", "food"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/save", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.ForceSave(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response SyncStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "connected", response.State)
	assert.Equal(t, int64(1), response.Revision)
	require.NotNil(t, env.snapshots.Stored("auth0|test"))
}

func TestForceSave_RemoteDown(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewSyncHandler(env.stores)

	env.snapshots.SaveFn = func(ctx context.Context, userID string, snapshot *domain.BudgetAggregate) error {
		return errors.New("connection refused")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/save", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.ForceSave(c))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, http.StatusBadGateway, problem.Status)
}

func TestGetStatus_DegradedAfterFailedRemoteLoad(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewSyncHandler(env.stores)

	// A remote copy exists but cannot be read: the session must report the
	// outage instead of pretending the defaults are the real state.
	remote := domain.NewBudgetAggregate()
	remote.Revision = 50
	env.snapshots.AddSnapshot("auth0|test", remote)
	env.snapshots.GetFn = func(ctx context.Context, userID string) (*domain.BudgetAggregate, error) {
		return nil, errors.New("connection refused")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.GetStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response SyncStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.State)
}

func TestForceSave_StaleAfterFailedRemoteLoad(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewSyncHandler(env.stores)

	remote := domain.NewBudgetAggregate()
	remote.Revision = 50
	env.snapshots.AddSnapshot("auth0|test", remote)
	env.snapshots.GetFn = func(ctx context.Context, userID string) (*domain.BudgetAggregate, error) {
		return nil, errors.New("connection refused")
	}

	store, err := env.stores.StoreFor(context.Background(), domain.Identity{ID: "auth0|test", Email: "test@example.com"})
	require.NoError(t, err)
	_, err = store.AddTransaction(domain.TransactionTypeExpense, expenseServiceInput("10.00", "food"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/save", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	// The revision guard rejects the write; the client gets a conflict, not
	// a success that quietly lost the session's mutations.
	require.NoError(t, handler.ForceSave(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, http.StatusConflict, problem.Status)
	assert.Equal(t, int64(50), env.snapshots.Stored("auth0|test").Revision)
}

func TestReset(t *testing.T) {
	e := echo.New()
	env := newTestEnv()
	handler := NewSyncHandler(env.stores)

	store, err := env.stores.StoreFor(context.Background(), domain.Identity{ID: "auth0|test", Email: "test@example.com"})
	require.NoError(t, err)
	_, err = store.AddTransaction(domain.TransactionTypeExpense, expenseServiceInput("10.00", "food"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/reset", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User")

	require.NoError(t, handler.Reset(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	snap := store.Snapshot()
	assert.Empty(t, snap.Expenses)
	assert.Equal(t, "auth0|test", snap.Identity.ID)
}
