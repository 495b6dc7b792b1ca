package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ITransactionRepository is the TransactionLedger. Entries are appended once and
// their status changes once, from PENDING to a terminal state.
type ITransactionRepository interface {
	Create(ctx context.Context, transaction *model.Transaction) error
	Finalize(ctx context.Context, transactionID string, status model.TransactionStatus, at time.Time) error
	GetByTransactionID(ctx context.Context, transactionID string) (*model.Transaction, error)
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	List(ctx context.Context, filter model.TransactionFilter) ([]*model.Transaction, error)
	HasPending(ctx context.Context, accountID int64) (bool, error)
	ListUnpublished(ctx context.Context, limit int) ([]*model.Transaction, error)
	MarkPublished(ctx context.Context, ids []int64, at time.Time) error
}

const transactionColumns = `id, transaction_id, type, amount, description, from_account_id, to_account_id,
	status, created_at, completed_at, published_at`

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertTransaction(ctx context.Context, q queryRower, t *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id":  t.TransactionID,
		"type":            t.Type,
		"status":          t.Status,
		"from_account_id": t.FromAccountID,
		"to_account_id":   t.ToAccountID,
		"amount":          t.Amount.StringFixed(2),
	})
	log.Info("Executing query to create a new transaction")

	query := `INSERT INTO transactions (transaction_id, type, amount, description, from_account_id, to_account_id,
		status, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := q.QueryRowContext(ctx, query,
		t.TransactionID, t.Type, t.Amount, t.Description, t.FromAccountID, t.ToAccountID, t.Status, t.CompletedAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

func completeTransaction(ctx context.Context, tx *sql.Tx, t *model.Transaction, at time.Time) error {
	query := `UPDATE transactions SET status = 'COMPLETED', completed_at = $2
		WHERE transaction_id = $1 AND status = 'PENDING'`
	res, err := tx.ExecContext(ctx, query, t.TransactionID, at)
	if err != nil {
		return common.WrapStorage("complete transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapStorage("complete transaction", err)
	}
	if n != 1 {
		return common.InvalidArgument("transaction %s is not pending", t.TransactionID)
	}
	t.Status = model.TransactionStatusCompleted
	t.CompletedAt = &at
	return nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		t           model.Transaction
		description sql.NullString
		from, to    sql.NullInt64
		completedAt sql.NullTime
		publishedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.TransactionID, &t.Type, &t.Amount, &description, &from, &to,
		&t.Status, &t.CreatedAt, &completedAt, &publishedAt)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	if from.Valid {
		t.FromAccountID = &from.Int64
	}
	if to.Valid {
		t.ToAccountID = &to.Int64
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if publishedAt.Valid {
		t.PublishedAt = &publishedAt.Time
	}
	return &t, nil
}

func scanTransactions(rows *sql.Rows) ([]*model.Transaction, error) {
	defer rows.Close()
	var transactions []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) Create(ctx context.Context, transaction *model.Transaction) error {
	if err := insertTransaction(ctx, r.DB, transaction); err != nil {
		return common.WrapStorage("create transaction", err)
	}
	return nil
}

// Finalize moves a PENDING entry to a terminal status. completed_at is only
// stamped for COMPLETED.
func (r *TransactionRepository) Finalize(ctx context.Context, transactionID string, status model.TransactionStatus, at time.Time) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"status":         status,
	})
	log.Info("Executing query to finalize transaction")

	if !status.Terminal() || !status.Valid() {
		return common.InvalidArgument("cannot finalize transaction %s to %s", transactionID, status)
	}

	var completedAt *time.Time
	if status == model.TransactionStatusCompleted {
		completedAt = &at
	}

	query := `UPDATE transactions SET status = $2, completed_at = $3
		WHERE transaction_id = $1 AND status = 'PENDING'`
	res, err := r.DB.ExecContext(ctx, query, transactionID, status, completedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute finalize transaction query")
		return common.WrapStorage("finalize transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapStorage("finalize transaction", err)
	}
	if n == 1 {
		return nil
	}

	// Either the entry does not exist or it already reached a terminal state.
	if _, err := r.GetByTransactionID(ctx, transactionID); err != nil {
		return err
	}
	return common.InvalidArgument("transaction %s is already finalized", transactionID)
}

func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.Transaction, error) {
	log := logger.Log.WithField("transaction_id", transactionID)
	log.Debug("Executing query to get transaction by transaction ID")

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`
	t, err := scanTransaction(r.DB.QueryRowContext(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("Transaction", "transactionId", transactionID)
		}
		log.WithError(err).Error("Failed to execute get transaction query")
		return nil, common.WrapStorage("get transaction", err)
	}
	return t, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("Transaction", "id", id)
		}
		return nil, common.WrapStorage("get transaction", err)
	}
	return t, nil
}

// buildTransactionQuery turns a filter into a WHERE clause with positional args.
func buildTransactionQuery(filter model.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AccountID != 0 {
		p := arg(filter.AccountID)
		conds = append(conds, fmt.Sprintf("(from_account_id = %s OR to_account_id = %s)", p, p))
	}
	if filter.CustomerID != 0 {
		p := arg(filter.CustomerID)
		conds = append(conds, fmt.Sprintf(
			"(from_account_id IN (SELECT id FROM accounts WHERE customer_id = %s) OR to_account_id IN (SELECT id FROM accounts WHERE customer_id = %s))", p, p))
	}
	if filter.From != nil {
		conds = append(conds, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= "+arg(*filter.To))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.Type != "" {
		conds = append(conds, "type = "+arg(filter.Type))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}
	return query, args
}

// List retrieves ledger entries matching the filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter model.TransactionFilter) ([]*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  filter.AccountID,
		"customer_id": filter.CustomerID,
		"status":      filter.Status,
	})
	log.Info("Executing query to list transactions")

	query, args := buildTransactionQuery(filter)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions")
		return nil, common.WrapStorage("list transactions", err)
	}
	transactions, err := scanTransactions(rows)
	if err != nil {
		log.WithError(err).Error("Failed to scan transaction row")
		return nil, common.WrapStorage("scan transactions", err)
	}
	return transactions, nil
}

// HasPending reports whether any PENDING entry references the account.
func (r *TransactionRepository) HasPending(ctx context.Context, accountID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions
		WHERE status = 'PENDING' AND (from_account_id = $1 OR to_account_id = $1))`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, accountID).Scan(&exists); err != nil {
		return false, common.WrapStorage("check pending transactions", err)
	}
	return exists, nil
}

// ListUnpublished returns COMPLETED entries whose event has not been published yet, oldest first.
func (r *TransactionRepository) ListUnpublished(ctx context.Context, limit int) ([]*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = 'COMPLETED' AND published_at IS NULL
		ORDER BY id
		LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, common.WrapStorage("list unpublished transactions", err)
	}
	transactions, err := scanTransactions(rows)
	if err != nil {
		return nil, common.WrapStorage("scan transactions", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) MarkPublished(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE transactions SET published_at = $1 WHERE id = ANY($2)`
	if _, err := r.DB.ExecContext(ctx, query, at, pq.Array(ids)); err != nil {
		logger.Log.WithError(err).WithField("count", len(ids)).Error("Failed to mark transactions as published")
		return common.WrapStorage("mark transactions published", err)
	}
	return nil
}

var _ ITransactionRepository = (*TransactionRepository)(nil)
