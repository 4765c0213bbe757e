package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"fintrack/internal/models"
	"fintrack/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides SQLite-backed persistence.
type Store struct {
	conn *sql.DB
}

// New opens the database at path and applies embedded migrations.
// Pass ":memory:" for an ephemeral database (tests).
func New(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if strings.Contains(path, ":memory:") {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &Store{conn: conn}, nil
}

func runMigrations(conn *sql.DB) error {
	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// CreateUser inserts the user and a zero-valued settings row in one
// transaction so a failed settings insert never leaves a user without
// settings.
func (s *Store) CreateUser(ctx context.Context, username string, email *string, passwordHash string) (models.User, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, passwordHash,
	)
	if err != nil {
		return models.User{}, mapConstraintErr(err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (user_id, balance, monthly_limit) VALUES (?, 0, 0)`,
		userID,
	); err != nil {
		return models.User{}, err
	}

	row := tx.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`,
		userID,
	)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// FindUserByUsername fetches a user by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`,
		username,
	)
	return scanUser(row)
}

// ListTransactions returns the user's transactions ordered by date
// descending. Date is compared as text, so ISO-8601 dates sort newest first.
func (s *Store) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, category, amount, description, date
		 FROM transactions WHERE user_id = ? ORDER BY date DESC`,
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

// CreateTransaction inserts a ledger entry for the user. The category is
// uppercased before storage.
func (s *Store) CreateTransaction(ctx context.Context, userID int64, t models.Transaction) (models.Transaction, error) {
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category, amount, description, date)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, strings.ToUpper(t.Category), t.Amount, t.Description, t.Date,
	)
	if err != nil {
		return models.Transaction{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Transaction{}, err
	}
	return s.getTransaction(ctx, userID, id)
}

// UpdateTransaction replaces all mutable fields of a transaction owned by
// userID. ErrNotFound when the row does not exist or belongs to another user.
func (s *Store) UpdateTransaction(ctx context.Context, userID, txID int64, t models.Transaction) (models.Transaction, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE transactions SET category = ?, amount = ?, description = ?, date = ?
		 WHERE id = ? AND user_id = ?`,
		strings.ToUpper(t.Category), t.Amount, t.Description, t.Date, txID, userID,
	)
	if err != nil {
		return models.Transaction{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Transaction{}, err
	}
	if affected == 0 {
		return models.Transaction{}, storage.ErrNotFound
	}
	return s.getTransaction(ctx, userID, txID)
}

// DeleteTransaction removes a transaction owned by userID.
func (s *Store) DeleteTransaction(ctx context.Context, userID, txID int64) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`,
		txID, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) getTransaction(ctx context.Context, userID, txID int64) (models.Transaction, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, category, amount, description, date
		 FROM transactions WHERE id = ? AND user_id = ?`,
		txID, userID,
	)
	var t models.Transaction
	if err := row.Scan(&t.ID, &t.Category, &t.Amount, &t.Description, &t.Date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	return t, nil
}

// GetSettings returns the user's settings, or a zero-valued default when
// no row exists yet. The default is not persisted.
func (s *Store) GetSettings(ctx context.Context, userID int64) (models.Settings, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT balance, monthly_limit, start_date, end_date FROM settings WHERE user_id = ?`,
		userID,
	)
	var set models.Settings
	if err := row.Scan(&set.Balance, &set.MonthlyLimit, &set.StartDate, &set.EndDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, nil
		}
		return models.Settings{}, err
	}
	return set, nil
}

// UpdateSettings materializes a zero-valued row if absent, then applies
// only the non-nil fields of patch. The update is a fixed statement of
// conditional assignments; nil patch fields keep their stored value.
func (s *Store) UpdateSettings(ctx context.Context, userID int64, patch models.SettingsPatch) (models.Settings, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Settings{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (user_id, balance, monthly_limit) VALUES (?, 0, 0)`,
		userID,
	); err != nil {
		return models.Settings{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE settings SET
			balance       = COALESCE(?, balance),
			monthly_limit = COALESCE(?, monthly_limit),
			start_date    = COALESCE(?, start_date),
			end_date      = COALESCE(?, end_date)
		 WHERE user_id = ?`,
		patch.Balance, patch.MonthlyLimit, patch.StartDate, patch.EndDate, userID,
	); err != nil {
		return models.Settings{}, err
	}

	row := tx.QueryRowContext(ctx,
		`SELECT balance, monthly_limit, start_date, end_date FROM settings WHERE user_id = ?`,
		userID,
	)
	var set models.Settings
	if err := row.Scan(&set.Balance, &set.MonthlyLimit, &set.StartDate, &set.EndDate); err != nil {
		return models.Settings{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Settings{}, err
	}
	return set, nil
}

// Summarize groups the user's transactions by category and sums amounts.
func (s *Store) Summarize(ctx context.Context, userID int64) (models.Summary, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT category, SUM(amount) FROM transactions WHERE user_id = ? GROUP BY category`,
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

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func mapConstraintErr(err error) error {
	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return storage.ErrAlreadyExists
		}
	}
	return err
}
