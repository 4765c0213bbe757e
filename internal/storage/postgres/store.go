package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/models"
	"fintrack/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			category TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT UNIQUE NOT NULL REFERENCES users(id),
			balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			monthly_limit DOUBLE PRECISION NOT NULL DEFAULT 0,
			start_date TEXT,
			end_date TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts the user and its zero-valued settings row in one
// transaction.
func (s *Store) CreateUser(ctx context.Context, username string, email *string, passwordHash string) (models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, password_hash, created_at`,
		username, email, passwordHash,
	)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, mapConstraintErr(err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO settings (user_id, balance, monthly_limit) VALUES ($1, 0, 0)`,
		user.ID,
	); err != nil {
		return models.User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// FindUserByUsername fetches a user by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`,
		username,
	)
	return scanUser(row)
}

// ListTransactions returns the user's transactions ordered by date descending.
func (s *Store) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, category, amount, description, date
		 FROM transactions WHERE user_id = $1 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Category, &t.Amount, &t.Description, &t.Date); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTransaction inserts a ledger entry with an uppercased category.
func (s *Store) CreateTransaction(ctx context.Context, userID int64, t models.Transaction) (models.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO transactions (user_id, category, amount, description, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, category, amount, description, date`,
		userID, strings.ToUpper(t.Category), t.Amount, t.Description, t.Date,
	)
	var created models.Transaction
	if err := row.Scan(&created.ID, &created.Category, &created.Amount, &created.Description, &created.Date); err != nil {
		return models.Transaction{}, err
	}
	return created, nil
}

// UpdateTransaction replaces all mutable fields of a transaction owned by userID.
func (s *Store) UpdateTransaction(ctx context.Context, userID, txID int64, t models.Transaction) (models.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE transactions SET category = $1, amount = $2, description = $3, date = $4
		 WHERE id = $5 AND user_id = $6
		 RETURNING id, category, amount, description, date`,
		strings.ToUpper(t.Category), t.Amount, t.Description, t.Date, txID, userID,
	)
	var updated models.Transaction
	if err := row.Scan(&updated.ID, &updated.Category, &updated.Amount, &updated.Description, &updated.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction owned by userID.
func (s *Store) DeleteTransaction(ctx context.Context, userID, txID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`,
		txID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetSettings returns the stored settings row or a non-persisted zero default.
func (s *Store) GetSettings(ctx context.Context, userID int64) (models.Settings, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT balance, monthly_limit, start_date, end_date FROM settings WHERE user_id = $1`,
		userID,
	)
	var set models.Settings
	if err := row.Scan(&set.Balance, &set.MonthlyLimit, &set.StartDate, &set.EndDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Settings{}, nil
		}
		return models.Settings{}, err
	}
	return set, nil
}

// UpdateSettings upserts the row and applies only non-nil patch fields.
func (s *Store) UpdateSettings(ctx context.Context, userID int64, patch models.SettingsPatch) (models.Settings, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO settings (user_id, balance, monthly_limit) VALUES ($1, 0, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return models.Settings{}, err
	}

	row := tx.QueryRow(ctx,
		`UPDATE settings SET
			balance       = COALESCE($1, balance),
			monthly_limit = COALESCE($2, monthly_limit),
			start_date    = COALESCE($3, start_date),
			end_date      = COALESCE($4, end_date)
		 WHERE user_id = $5
		 RETURNING balance, monthly_limit, start_date, end_date`,
		patch.Balance, patch.MonthlyLimit, patch.StartDate, patch.EndDate, userID,
	)
	var set models.Settings
	if err := row.Scan(&set.Balance, &set.MonthlyLimit, &set.StartDate, &set.EndDate); err != nil {
		return models.Settings{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Settings{}, err
	}
	return set, nil
}

// Summarize groups the user's transactions by category and sums amounts.
func (s *Store) Summarize(ctx context.Context, userID int64) (models.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT category, SUM(amount) FROM transactions WHERE user_id = $1 GROUP BY category`,
		userID,
	)
	if err != nil {
		return models.Summary{}, err
	}
	defer rows.Close()

	summary := models.Summary{Categories: map[string]float64{}}
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return models.Summary{}, err
		}
		summary.Categories[category] = total
		summary.TotalSpent += total
	}
	return summary, rows.Err()
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.ErrAlreadyExists
	}
	return err
}
