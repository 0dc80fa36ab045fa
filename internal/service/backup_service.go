package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/domain"
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/util"
	"github.com/rs/zerolog"
)

// BackupURLExpiry is how long an export download link stays valid.
const BackupURLExpiry = 15 * time.Minute

// BackupService exports full aggregate snapshots to object storage so users
// can download a portable copy of their data.
type BackupService struct {
	backups domain.BackupRepository
	clock   util.Clock
	logger  zerolog.Logger
}

// NewBackupService creates a new BackupService
func NewBackupService(backups domain.BackupRepository, clock util.Clock, logger zerolog.Logger) *BackupService {
	return &BackupService{
		backups: backups,
		clock:   clock,
		logger:  logger.With().Str("component", "backup_service").Logger(),
	}
}

// BackupResult describes one completed export.
type BackupResult struct {
	Key         string    `json:"key"`
	DownloadURL string    `json:"downloadUrl"`
	Revision    int64     `json:"revision"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Export serializes the snapshot and uploads it under a timestamped key.
func (s *BackupService) Export(ctx context.Context, snapshot *domain.BudgetAggregate) (*BackupResult, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}

	now := s.clock.Now().UTC()
	key := fmt.Sprintf("backups/%s/%s.json", snapshot.Identity.ID, now.Format("20060102T150405Z"))

	if _, err := s.backups.Upload(ctx, key, data, "application/json"); err != nil {
		return nil, fmt.Errorf("uploading backup: %w", err)
	}

	url, err := s.backups.PresignedURL(ctx, key, BackupURLExpiry)
	if err != nil {
		// The export itself succeeded; a missing link only degrades the
		// response.
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to presign backup URL")
		url = ""
	}

	s.logger.Info().Str("user_id", snapshot.Identity.ID).Str("key", key).
		Int64("revision", snapshot.Revision).Msg("Exported snapshot backup")

	return &BackupResult{
		Key:         key,
		DownloadURL: url,
		Revision:    snapshot.Revision,
		CreatedAt:   now,
	}, nil
}
