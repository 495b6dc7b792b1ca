package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeCurrent AccountType = "CURRENT"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
	AccountStatusClosed   AccountStatus = "CLOSED"
	AccountStatusFrozen   AccountStatus = "FROZEN"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusClosed, AccountStatusFrozen:
		return true
	}
	return false
}

// Account is a balance-holding entity owned by one customer. Balance,
// InterestRate and AccruedInterest carry two fractional digits.
type Account struct {
	ID                     int64           `json:"id"`
	AccountNumber          string          `json:"account_number"`
	AccountType            AccountType     `json:"account_type"`
	Balance                decimal.Decimal `json:"balance"`
	InterestRate           decimal.Decimal `json:"interest_rate"`
	AccruedInterest        decimal.Decimal `json:"accrued_interest"`
	LastInterestCalculated *time.Time      `json:"last_interest_calculated,omitempty"`
	Status                 AccountStatus   `json:"status"`
	CustomerID             int64           `json:"customer_id"`
	Version                int64           `json:"version"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with a.
func (a *Account) Clone() *Account {
	cp := *a
	if a.LastInterestCalculated != nil {
		t := *a.LastInterestCalculated
		cp.LastInterestCalculated = &t
	}
	return &cp
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "ACTIVE"
	CustomerStatusInactive  CustomerStatus = "INACTIVE"
	CustomerStatusSuspended CustomerStatus = "SUSPENDED"
)
