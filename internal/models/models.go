package models

import "time"

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transaction is a single ledger entry owned by exactly one user.
// Date is a caller-supplied string used only for sorting and display;
// ISO-8601 dates sort correctly under the lexicographic ordering the
// store applies.
type Transaction struct {
	ID          int64   `json:"id"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// Settings is the per-user singleton budget configuration.
type Settings struct {
	Balance      float64 `json:"balance"`
	MonthlyLimit float64 `json:"monthly_limit"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
}

// SettingsPatch carries a partial settings update. Nil fields are left
// untouched by the store.
type SettingsPatch struct {
	Balance      *float64 `json:"balance"`
	MonthlyLimit *float64 `json:"monthly_limit"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
}

// Summary aggregates a user's ledger by category.
type Summary struct {
	Categories map[string]float64 `json:"categories"`
	TotalSpent float64            `json:"total_spent"`
}
