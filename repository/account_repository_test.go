package repository

import (
	"context"
	"errors"
	"go-ledger-api/common"
	"go-ledger-api/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumnNames = []string{"id", "account_number", "account_type", "balance", "interest_rate", "accrued_interest",
	"last_interest_calculated", "status", "customer_id", "version", "created_at", "updated_at"}

var created = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func accountRows(accounts ...*model.Account) *sqlmock.Rows {
	rows := sqlmock.NewRows(accountColumnNames)
	for _, a := range accounts {
		var last any
		if a.LastInterestCalculated != nil {
			last = *a.LastInterestCalculated
		}
		rows.AddRow(a.ID, a.AccountNumber, string(a.AccountType), a.Balance.StringFixed(2), a.InterestRate.StringFixed(2),
			a.AccruedInterest.StringFixed(2), last, string(a.Status), a.CustomerID, a.Version, created, created)
	}
	return rows
}

func storedAccount(id int64, number, balance string, version int64) *model.Account {
	return &model.Account{
		ID:            id,
		AccountNumber: number,
		AccountType:   model.AccountTypeSavings,
		Balance:       decimal.RequireFromString(balance),
		InterestRate:  decimal.RequireFromString("3.50"),
		Status:        model.AccountStatusActive,
		CustomerID:    1,
		Version:       version,
	}
}

func newMockRepo(t *testing.T) (*AccountRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAccountRepository(db), mock
}

func TestAccountRepository_GetByNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		acc := storedAccount(3, "ACC1", "250.75", 2)
		mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE account_number = $1")).
			WithArgs("ACC1").
			WillReturnRows(accountRows(acc))

		got, err := repo.GetByNumber(ctx, "ACC1")

		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ID)
		assert.Equal(t, model.AccountTypeSavings, got.AccountType)
		assert.True(t, got.Balance.Equal(decimal.RequireFromString("250.75")))
		assert.Nil(t, got.LastInterestCalculated)
		assert.Equal(t, int64(2), got.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE account_number = $1")).
			WithArgs("ACC404").
			WillReturnRows(sqlmock.NewRows(accountColumnNames))

		_, err := repo.GetByNumber(ctx, "ACC404")

		assert.True(t, errors.Is(err, common.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE account_number = $1")).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByNumber(ctx, "ACC1")

		assert.True(t, errors.Is(err, common.ErrStorageFailure))
	})
}

func TestAccountRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	account := storedAccount(0, "ACC1", "50.00", 0)
	opening := &model.Transaction{
		TransactionID: "TXN1",
		Type:          model.TransactionTypeDeposit,
		Amount:        decimal.RequireFromString("50.00"),
		Description:   "Initial deposit",
		Status:        model.TransactionStatusCompleted,
		CompletedAt:   &created,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at", "updated_at"}).AddRow(42, 0, created, created))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("TXN1", "DEPOSIT", sqlmock.AnyArg(), "Initial deposit", nil, int64(42), "COMPLETED", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, created))
	mock.ExpectCommit()

	err := repo.Create(ctx, account, opening)

	require.NoError(t, err)
	assert.Equal(t, int64(42), account.ID)
	assert.Equal(t, int64(7), opening.ID)
	require.NotNil(t, opening.ToAccountID)
	assert.Equal(t, int64(42), *opening.ToAccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Apply(t *testing.T) {
	ctx := context.Background()
	debit := func(a *model.Account) error {
		a.Balance = a.Balance.Sub(decimal.NewFromInt(10))
		return nil
	}
	credit := func(a *model.Account) error {
		a.Balance = a.Balance.Add(decimal.NewFromInt(10))
		return nil
	}

	t.Run("locks in ascending id order and completes the entry", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		src := storedAccount(7, "ACC7", "100.00", 1)
		dst := storedAccount(3, "ACC3", "0.00", 5)
		txn := &model.Transaction{TransactionID: "TXN1", Status: model.TransactionStatusPending}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1 FOR UPDATE")).
			WithArgs(int64(3)).WillReturnRows(accountRows(dst))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1 FOR UPDATE")).
			WithArgs(int64(7)).WillReturnRows(accountRows(src))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = 'COMPLETED'")).
			WithArgs("TXN1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := repo.Apply(ctx, ChangeSet{
			Mutations: []Mutation{
				{AccountID: 7, ExpectedVersion: 1, Apply: debit},
				{AccountID: 3, ExpectedVersion: 5, Apply: credit},
			},
			Complete: []*model.Transaction{txn},
		})

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(7), got[0].ID)
		assert.True(t, got[0].Balance.Equal(decimal.NewFromInt(90)))
		assert.Equal(t, int64(2), got[0].Version)
		assert.True(t, got[1].Balance.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, model.TransactionStatusCompleted, txn.Status)
		assert.NotNil(t, txn.CompletedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale expected version rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs(int64(3)).WillReturnRows(accountRows(storedAccount(3, "ACC3", "10.00", 6)))
		mock.ExpectRollback()

		_, err := repo.CompareAndSwap(ctx, 3, 5, credit)

		assert.True(t, errors.Is(err, common.ErrConcurrencyConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update that matches no row is a conflict", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs(int64(3)).WillReturnRows(accountRows(storedAccount(3, "ACC3", "10.00", 5)))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.CompareAndSwap(ctx, 3, 5, credit)

		assert.True(t, errors.Is(err, common.ErrConcurrencyConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mutator failure writes nothing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs(int64(3)).WillReturnRows(accountRows(storedAccount(3, "ACC3", "5.00", 5)))
		mock.ExpectRollback()

		_, err := repo.CompareAndSwap(ctx, 3, 5, debit)

		assert.True(t, errors.Is(err, common.ErrInvalidArgument))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_FindDueForInterest(t *testing.T) {
	repo, mock := newMockRepo(t)
	repo.PageSize = 2
	ctx := context.Background()
	cutoff := created.Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("last_interest_calculated < $1")).
		WithArgs(cutoff, int64(0), 2).
		WillReturnRows(accountRows(storedAccount(1, "ACC1", "1.00", 0), storedAccount(2, "ACC2", "2.00", 0)))
	mock.ExpectQuery(regexp.QuoteMeta("last_interest_calculated < $1")).
		WithArgs(cutoff, int64(2), 2).
		WillReturnRows(accountRows(storedAccount(5, "ACC5", "5.00", 0)))

	var ids []int64
	for acc, err := range repo.FindDueForInterest(ctx, cutoff) {
		require.NoError(t, err)
		ids = append(ids, acc.ID)
	}

	assert.Equal(t, []int64{1, 2, 5}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
