package dto

import "fintrack/internal/models"

type RegisterRequest struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by both register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TransactionRequest is the body of transaction create and update calls.
// Description may be omitted; it is stored as an empty string, never null.
type TransactionRequest struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// Model converts the request into a transaction ready for persistence.
func (r TransactionRequest) Model() models.Transaction {
	return models.Transaction{
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
		Date:        r.Date,
	}
}
