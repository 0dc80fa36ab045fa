package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_UploadsSnapshotJSON(t *testing.T) {
	backups := testutil.NewMockBackupRepository()
	clock := testutil.NewFakeClock(time.Date(2026, 8, 30, 12, 30, 45, 0, time.UTC))
	svc := NewBackupService(backups, clock, zerolog.Nop())

	snapshot := domain.NewBudgetAggregate()
	snapshot.Identity = domain.Identity{ID: "user-1", Email: "user@example.com"}
	snapshot.Revision = 12
	snapshot.Expenses = append(snapshot.Expenses, &domain.Transaction{
		ID:       "ex-1",
		Amount:   decimal.NewFromInt(40),
		Category: domain.CategoryFood,
		Date:     time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})

	result, err := svc.Export(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, "backups/user-1/20260830T123045Z.json", result.Key)
	assert.Equal(t, int64(12), result.Revision)
	assert.NotEmpty(t, result.DownloadURL)
	assert.Equal(t, clock.Now().UTC(), result.CreatedAt)

	// The uploaded payload round-trips as the full aggregate.
	data, ok := backups.Uploads[result.Key]
	require.True(t, ok)
	var decoded domain.BudgetAggregate
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "user-1", decoded.Identity.ID)
	assert.Len(t, decoded.Expenses, 1)
}

func TestExport_UploadFailure(t *testing.T) {
	backups := testutil.NewMockBackupRepository()
	backups.UploadFn = func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
		return "", errors.New("bucket unavailable")
	}
	clock := testutil.NewFakeClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	svc := NewBackupService(backups, clock, zerolog.Nop())

	_, err := svc.Export(context.Background(), domain.NewBudgetAggregate())
	assert.Error(t, err)
}

func TestExport_MissingPresignDegradesToEmptyURL(t *testing.T) {
	backups := testutil.NewMockBackupRepository()
	// Upload succeeds without recording the object, so the presign lookup
	// cannot find it.
	backups.UploadFn = func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
		return "https://backups.example.com/" + key, nil
	}
	clock := testutil.NewFakeClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	svc := NewBackupService(backups, clock, zerolog.Nop())

	snapshot := domain.NewBudgetAggregate()
	snapshot.Identity = domain.Identity{ID: "user-1"}

	result, err := svc.Export(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Empty(t, result.DownloadURL)
}
