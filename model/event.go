package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCompleted is published once for every COMPLETED ledger entry.
type TransactionCompleted struct {
	TransactionID string          `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	FromAccountID *int64          `json:"from_account_id,omitempty"`
	ToAccountID   *int64          `json:"to_account_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewTransactionCompleted(t *Transaction) TransactionCompleted {
	occurred := t.CreatedAt
	if t.CompletedAt != nil {
		occurred = *t.CompletedAt
	}
	return TransactionCompleted{
		TransactionID: t.TransactionID,
		Type:          t.Type,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount,
		OccurredAt:    occurred,
	}
}
