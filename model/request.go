// file: model/request.go

package model

import "github.com/shopspring/decimal"

// OpenAccountRequest defines the payload for opening a new account.
// CustomerID is filled from the caller's identity, never from the body, on customer routes.
type OpenAccountRequest struct {
	CustomerID         int64            `json:"customer_id"`
	AccountType        AccountType      `json:"account_type" validate:"required,oneof=SAVINGS CURRENT"`
	InitialDeposit     *decimal.Decimal `json:"initial_deposit,omitempty" validate:"omitempty,gte=0"`
	CustomInterestRate *decimal.Decimal `json:"custom_interest_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// AmountRequest is used by deposit and withdrawal; the account comes from the URL.
type AmountRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Description string          `json:"description,omitempty" validate:"max=200"`
}

type TransferRequest struct {
	FromAccountNumber string          `json:"from_account_number" validate:"required"`
	ToAccountNumber   string          `json:"to_account_number" validate:"required"`
	Amount            decimal.Decimal `json:"amount" validate:"gt=0"`
	Description       string          `json:"description,omitempty" validate:"max=200"`
}

type UpdateAccountStatusRequest struct {
	Status AccountStatus `json:"status" validate:"required,oneof=ACTIVE INACTIVE CLOSED FROZEN"`
}

type UpdateInterestRateRequest struct {
	InterestRate decimal.Decimal `json:"interest_rate" validate:"gte=0,lte=100"`
}
