package storage

import (
	"context"
	"errors"

	"fintrack/internal/models"
)

// ErrNotFound indicates a record does not exist or is not owned by the caller.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Store captures the persistence operations needed by handlers. Every
// transaction and settings operation is scoped to the owning user id;
// implementations must never return rows owned by a different user.
type Store interface {
	// CreateUser inserts the user together with a zero-valued settings
	// row in a single database transaction. A username or (non-null)
	// email collision yields ErrAlreadyExists with no rows persisted.
	CreateUser(ctx context.Context, username string, email *string, passwordHash string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)

	ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, userID int64, tx models.Transaction) (models.Transaction, error)
	// UpdateTransaction replaces category, amount, description, and date
	// of a transaction owned by userID. ErrNotFound when no such row.
	UpdateTransaction(ctx context.Context, userID, txID int64, tx models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID int64) error

	// GetSettings returns the stored row, or zero-valued settings when
	// none exists. The default is not persisted.
	GetSettings(ctx context.Context, userID int64) (models.Settings, error)
	// UpdateSettings materializes a zero-valued row if absent, applies
	// the non-nil fields of patch, and returns the resulting row.
	UpdateSettings(ctx context.Context, userID int64, patch models.SettingsPatch) (models.Settings, error)

	// Summarize groups the user's transactions by category. Categories
	// is empty but never nil for a user with no transactions.
	Summarize(ctx context.Context, userID int64) (models.Summary, error)

	Close() error
}
