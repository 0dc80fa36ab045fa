package handler

import (
	"context"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/middleware"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/service"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/testutil"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// setupAuthContext injects a resolved identity into the request context the
// same way the auth middleware does
func setupAuthContext(c echo.Context, id, email, name string) {
	identity := domain.Identity{ID: id, Email: email, DisplayName: name}
	ctx := context.WithValue(c.Request().Context(), middleware.IdentityKey, identity)
	c.SetRequest(c.Request().WithContext(ctx))
}

// testEnv bundles a store manager with its mock repositories and fake clock
type testEnv struct {
	stores    *service.StoreManager
	snapshots *testutil.MockSnapshotRepository
	cache     *testutil.MockCacheRepository
	clock     *testutil.FakeClock
}

func newTestEnv() *testEnv {
	snapshots := testutil.NewMockSnapshotRepository()
	cache := testutil.NewMockCacheRepository()
	clock := testutil.NewFakeClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	stores := service.NewStoreManager(
		snapshots,
		cache,
		&websocket.NoOpPublisher{},
		clock,
		service.NewGateService(nil),
		500*time.Millisecond,
		zerolog.Nop(),
	)
	return &testEnv{stores: stores, snapshots: snapshots, cache: cache, clock: clock}
}

// expenseServiceInput builds a transaction input from literal strings
func expenseServiceInput(amount, category string) service.TransactionInput {
	amt, _ := decimal.NewFromString(amount)
	return service.TransactionInput{Amount: amt, Category: category}
}
