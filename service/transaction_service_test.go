package service

import (
	"context"
	"go-ledger-api/common"
	"go-ledger-api/model"
	"go-ledger-api/repository/memory"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionService_Lookups(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "ACC1", 1, "100.00")
	seedAccount(t, store, "ACC2", 2, "100.00")
	seedAccount(t, store, "ACC3", 3, "100.00")
	engine := newTestEngine(store)
	svc := NewTransactionService(store, store.Ledger())

	transfer, err := engine.Transfer(ctx, "ACC1", "ACC2", dec("10.00"), "")
	require.NoError(t, err)
	_, err = engine.Deposit(ctx, "ACC3", dec("1.00"), "")
	require.NoError(t, err)

	got, err := svc.GetTransaction(ctx, transfer.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, transfer.TransactionID, got.TransactionID)

	// Both sides of a transfer can see it, a stranger cannot.
	_, err = svc.GetTransactionForCustomer(ctx, transfer.TransactionID, 1)
	assert.NoError(t, err)
	_, err = svc.GetTransactionForCustomer(ctx, transfer.TransactionID, 2)
	assert.NoError(t, err)
	_, err = svc.GetTransactionForCustomer(ctx, transfer.TransactionID, 3)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.GetTransaction(ctx, "TXN404")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactionService_ListTransactions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedAccount(t, store, "ACC1", 1, "10.00")
	seedAccount(t, store, "ACC2", 2, "0.00")
	engine := newTestEngine(store)
	svc := NewTransactionService(store, store.Ledger())

	_, err := engine.Deposit(ctx, "ACC1", dec("5.00"), "")
	require.NoError(t, err)
	_, err = engine.Withdraw(ctx, "ACC1", dec("100.00"), "")
	require.ErrorIs(t, err, common.ErrInsufficientFunds)
	_, err = engine.Deposit(ctx, "ACC2", dec("1.00"), "")
	require.NoError(t, err)

	forAccount, err := svc.ListForAccount(ctx, "ACC1", model.TransactionFilter{CustomerID: 2})
	require.NoError(t, err)
	assert.Len(t, forAccount, 2, "account listing ignores a caller supplied customer")
	assert.Equal(t, model.TransactionTypeWithdrawal, forAccount[0].Type)

	failed, err := svc.ListForAccount(ctx, "ACC1", model.TransactionFilter{Status: model.TransactionStatusFailed})
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	forCustomer, err := svc.ListForCustomer(ctx, 2, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, forCustomer, 1)

	future := time.Now().Add(time.Hour)
	none, err := svc.ListTransactions(ctx, model.TransactionFilter{From: &future})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListForAccount(ctx, "ACC404", model.TransactionFilter{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactionService_ListTransactionsValidation(t *testing.T) {
	svc := NewTransactionService(memory.NewStore(), memory.NewStore().Ledger())
	from := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	for name, filter := range map[string]model.TransactionFilter{
		"unknown status":  {Status: "DONE"},
		"unknown type":    {Type: "REFUND"},
		"inverted range":  {From: &from, To: &to},
		"negative limit":  {Limit: -1},
		"negative offset": {Offset: -3},
	} {
		_, err := svc.ListTransactions(context.Background(), filter)
		assert.ErrorIs(t, err, common.ErrInvalidArgument, name)
	}
}
