package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-ledger-api/common"
	"go-ledger-api/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionColumnNames = []string{"id", "transaction_id", "type", "amount", "description", "from_account_id",
	"to_account_id", "status", "created_at", "completed_at", "published_at"}

func newMockLedger(t *testing.T) (*TransactionRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTransactionRepository(db), mock
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()
	to := int64(4)

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockLedger(t)
		txn := &model.Transaction{
			TransactionID: "TXN1",
			Type:          model.TransactionTypeDeposit,
			Amount:        decimal.RequireFromString("12.50"),
			ToAccountID:   &to,
			Status:        model.TransactionStatusPending,
		}
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO transactions")).
			WithArgs("TXN1", "DEPOSIT", sqlmock.AnyArg(), "", nil, int64(4), "PENDING", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, created))

		require.NoError(t, repo.Create(ctx, txn))
		assert.Equal(t, int64(11), txn.ID)
		assert.Equal(t, created, txn.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate transaction id", func(t *testing.T) {
		repo, mock := newMockLedger(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO transactions")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "transactions_transaction_id_key"})

		err := repo.Create(ctx, &model.Transaction{TransactionID: "TXN1", ToAccountID: &to})

		assert.True(t, errors.Is(err, common.ErrDuplicateResource))
	})
}

func TestTransactionRepository_Finalize(t *testing.T) {
	ctx := context.Background()
	at := created.Add(time.Minute)
	finalize := regexp.QuoteMeta("UPDATE transactions SET status = $2, completed_at = $3")

	t.Run("pending to failed", func(t *testing.T) {
		repo, mock := newMockLedger(t)
		mock.ExpectExec(finalize).
			WithArgs("TXN1", "FAILED", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Finalize(ctx, "TXN1", model.TransactionStatusFailed, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already terminal", func(t *testing.T) {
		repo, mock := newMockLedger(t)
		mock.ExpectExec(finalize).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE transaction_id = $1")).
			WithArgs("TXN1").
			WillReturnRows(sqlmock.NewRows(transactionColumnNames).
				AddRow(1, "TXN1", "DEPOSIT", "5.00", nil, nil, 2, "COMPLETED", created, created, nil))

		err := repo.Finalize(ctx, "TXN1", model.TransactionStatusFailed, at)

		assert.True(t, errors.Is(err, common.ErrInvalidArgument))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown entry", func(t *testing.T) {
		repo, mock := newMockLedger(t)
		mock.ExpectExec(finalize).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE transaction_id = $1")).
			WillReturnError(sql.ErrNoRows)

		err := repo.Finalize(ctx, "TXN404", model.TransactionStatusCompleted, at)

		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("pending is not a terminal status", func(t *testing.T) {
		repo, mock := newMockLedger(t)

		err := repo.Finalize(ctx, "TXN1", model.TransactionStatusPending, at)

		assert.True(t, errors.Is(err, common.ErrInvalidArgument))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByTransactionID(t *testing.T) {
	repo, mock := newMockLedger(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE transaction_id = $1")).
		WithArgs("TXN9").
		WillReturnRows(sqlmock.NewRows(transactionColumnNames).
			AddRow(9, "TXN9", "TRANSFER", "20.00", "rent", 1, 2, "COMPLETED", created, created, nil))

	got, err := repo.GetByTransactionID(context.Background(), "TXN9")

	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeTransfer, got.Type)
	assert.Equal(t, "rent", got.Description)
	require.NotNil(t, got.FromAccountID)
	require.NotNil(t, got.ToAccountID)
	assert.Equal(t, int64(1), *got.FromAccountID)
	assert.Equal(t, int64(2), *got.ToAccountID)
	assert.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.PublishedAt)
}

func TestBuildTransactionQuery(t *testing.T) {
	from := created
	query, args := buildTransactionQuery(model.TransactionFilter{
		AccountID: 5,
		From:      &from,
		Status:    model.TransactionStatusCompleted,
		Limit:     50,
	})

	assert.Contains(t, query, "(from_account_id = $1 OR to_account_id = $1)")
	assert.Contains(t, query, "created_at >= $2")
	assert.Contains(t, query, "status = $3")
	assert.Contains(t, query, "ORDER BY created_at DESC, id DESC LIMIT $4")
	assert.NotContains(t, query, "OFFSET")
	assert.Equal(t, []any{int64(5), from, model.TransactionStatusCompleted, 50}, args)

	query, args = buildTransactionQuery(model.TransactionFilter{})
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestTransactionRepository_Outbox(t *testing.T) {
	ctx := context.Background()

	t.Run("list unpublished", func(t *testing.T) {
		repo, mock := newMockLedger(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'COMPLETED' AND published_at IS NULL")).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(transactionColumnNames).
				AddRow(1, "TXN1", "DEPOSIT", "5.00", nil, nil, 2, "COMPLETED", created, created, nil).
				AddRow(2, "TXN2", "WITHDRAWAL", "1.00", nil, 2, nil, "COMPLETED", created, created, nil))

		got, err := repo.ListUnpublished(ctx, 10)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Nil(t, got[0].FromAccountID)
		assert.Nil(t, got[1].ToAccountID)
	})

	t.Run("mark published", func(t *testing.T) {
		repo, mock := newMockLedger(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET published_at = $1 WHERE id = ANY($2)")).
			WithArgs(created, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, repo.MarkPublished(ctx, []int64{1, 2}, created))
		require.NoError(t, repo.MarkPublished(ctx, nil, created))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
