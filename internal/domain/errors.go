package domain

import "errors"

// Domain errors
var (
	ErrNotFound               = errors.New("resource not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrGoalNotFound           = errors.New("savings goal not found")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrNameRequired           = errors.New("name is required")
	ErrNameTooLong            = errors.New("name exceeds maximum length")
	ErrLimitReached           = errors.New("plan limit reached")
	ErrNoSpinsAvailable       = errors.New("no spins available")
	ErrNotLoaded              = errors.New("aggregate not hydrated yet")
	ErrSnapshotNotFound       = errors.New("snapshot not found")
	ErrStaleSnapshot          = errors.New("snapshot revision is stale")
	ErrCacheMiss              = errors.New("cache entry not found")
)
