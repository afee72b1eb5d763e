package dto

import "time"

type BalanceResponse struct {
	AccountID    string `json:"account_id"`
	BalanceCents int64  `json:"balance_cents"`
}

type DeltaResponse struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	BalanceCents  int64  `json:"balance_cents"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

type TransactionResponse struct {
	ID                string    `json:"id"`
	AmountCents       int64     `json:"amount_cents"`
	Kind              string    `json:"kind"`
	BalanceAfterCents int64     `json:"balance_after_cents"`
	IdempotencyKey    string    `json:"idempotency_key"`
	Reference         string    `json:"reference,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
