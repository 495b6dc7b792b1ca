package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit        TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal     TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer       TransactionType = "TRANSFER"
	TransactionTypeInterestCredit TransactionType = "INTEREST_CREDIT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer, TransactionTypeInterestCredit:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	// TransactionStatusCancelled is reserved for manual cancellation and is never set by the engine.
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

func (s TransactionStatus) Terminal() bool {
	return s != TransactionStatusPending
}

// Transaction records one attempted money movement. DEPOSIT and INTEREST_CREDIT
// only have a destination, WITHDRAWAL only a source, TRANSFER both.
type Transaction struct {
	ID            int64             `json:"id"`
	TransactionID string            `json:"transaction_id"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	Description   string            `json:"description,omitempty"`
	FromAccountID *int64            `json:"from_account_id,omitempty"`
	ToAccountID   *int64            `json:"to_account_id,omitempty"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	PublishedAt   *time.Time        `json:"-"`
}

func (t *Transaction) Clone() *Transaction {
	cp := *t
	if t.FromAccountID != nil {
		v := *t.FromAccountID
		cp.FromAccountID = &v
	}
	if t.ToAccountID != nil {
		v := *t.ToAccountID
		cp.ToAccountID = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		cp.CompletedAt = &v
	}
	if t.PublishedAt != nil {
		v := *t.PublishedAt
		cp.PublishedAt = &v
	}
	return &cp
}

// Touches reports whether the transaction references the given account.
func (t *Transaction) Touches(accountID int64) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}

// TransactionFilter narrows ledger queries. Zero values mean "no constraint".
type TransactionFilter struct {
	AccountID  int64
	CustomerID int64
	From       *time.Time
	To         *time.Time
	Status     TransactionStatus
	Type       TransactionType
	Limit      int
	Offset     int
}
