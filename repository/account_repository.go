package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"iter"
	"time"

	"github.com/sirupsen/logrus"
)

// IAccountRepository is the AccountStore. CompareAndSwap and Apply are the only
// ways to change a stored account.
type IAccountRepository interface {
	Create(ctx context.Context, account *model.Account, entries ...*model.Transaction) error
	GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error)
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*model.Account, error)
	ListAll(ctx context.Context) ([]*model.Account, error)
	CompareAndSwap(ctx context.Context, accountID, expectedVersion int64, mutate Mutator) (*model.Account, error)
	Apply(ctx context.Context, cs ChangeSet) ([]*model.Account, error)
	FindDueForInterest(ctx context.Context, cutoff time.Time) iter.Seq2[*model.Account, error]
}

const accountColumns = `id, account_number, account_type, balance, interest_rate, accrued_interest,
	last_interest_calculated, status, customer_id, version, created_at, updated_at`

const dueForInterestPageSize = 200

type AccountRepository struct {
	DB       *sql.DB
	PageSize int
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db, PageSize: dueForInterestPageSize}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		acc     model.Account
		lastRun sql.NullTime
	)
	err := row.Scan(&acc.ID, &acc.AccountNumber, &acc.AccountType, &acc.Balance, &acc.InterestRate,
		&acc.AccruedInterest, &lastRun, &acc.Status, &acc.CustomerID, &acc.Version, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastRun.Valid {
		t := lastRun.Time
		acc.LastInterestCalculated = &t
	}
	return &acc, nil
}

func scanAccounts(rows *sql.Rows) ([]*model.Account, error) {
	defer rows.Close()
	var accounts []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// Create inserts the account and, in the same database transaction, any ledger
// entries that belong to its opening. Entries without a destination are
// attached to the new account.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account, entries ...*model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"customer_id":    account.CustomerID,
		"account_number": account.AccountNumber,
		"account_type":   account.AccountType,
	})
	log.Info("Executing query to create a new account")

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapStorage("begin create account", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO accounts (account_number, account_type, balance, interest_rate, accrued_interest,
		last_interest_calculated, status, customer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		account.AccountNumber, account.AccountType, account.Balance, account.InterestRate, account.AccruedInterest,
		account.LastInterestCalculated, account.Status, account.CustomerID,
	).Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return common.WrapStorage("create account", err)
	}

	for _, entry := range entries {
		if entry.ToAccountID == nil && entry.FromAccountID == nil {
			id := account.ID
			entry.ToAccountID = &id
		}
		if err := insertTransaction(ctx, tx, entry); err != nil {
			log.WithError(err).Error("Failed to record opening transaction")
			return common.WrapStorage("create opening transaction", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return common.WrapStorage("commit create account", err)
	}
	return nil
}

// GetByNumber retrieves an account by its externally visible number.
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	log := logger.Log.WithField("account_number", accountNumber)
	log.Debug("Executing query to get account by number")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	acc, err := scanAccount(r.DB.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("Account", "accountNumber", accountNumber)
		}
		log.WithError(err).Error("Failed to execute get account by number query")
		return nil, common.WrapStorage("get account by number", err)
	}
	return acc, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	log := logger.Log.WithField("account_id", id)
	log.Debug("Executing query to get account by ID")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	acc, err := scanAccount(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("Account", "id", id)
		}
		log.WithError(err).Error("Failed to execute get account by ID query")
		return nil, common.WrapStorage("get account by id", err)
	}
	return acc, nil
}

// ListByCustomer retrieves all accounts for a specific customer.
func (r *AccountRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*model.Account, error) {
	log := logger.Log.WithField("customer_id", customerID)
	log.Info("Executing query to get accounts by customer ID")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, customerID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for accounts by customer ID")
		return nil, common.WrapStorage("list accounts by customer", err)
	}
	accounts, err := scanAccounts(rows)
	if err != nil {
		log.WithError(err).Error("Failed to scan account row")
		return nil, common.WrapStorage("scan accounts", err)
	}
	return accounts, nil
}

// ListAll retrieves all accounts. For admin use only.
func (r *AccountRepository) ListAll(ctx context.Context) ([]*model.Account, error) {
	logger.Log.Info("Executing query to get all accounts")

	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for all accounts")
		return nil, common.WrapStorage("list accounts", err)
	}
	accounts, err := scanAccounts(rows)
	if err != nil {
		return nil, common.WrapStorage("scan accounts", err)
	}
	return accounts, nil
}

func (r *AccountRepository) CompareAndSwap(ctx context.Context, accountID, expectedVersion int64, mutate Mutator) (*model.Account, error) {
	accounts, err := r.Apply(ctx, ChangeSet{Mutations: []Mutation{{
		AccountID:       accountID,
		ExpectedVersion: expectedVersion,
		Apply:           mutate,
	}}})
	if err != nil {
		return nil, err
	}
	return accounts[0], nil
}

// Apply locks every account of the change set with SELECT ... FOR UPDATE in
// ascending id order, verifies the expected versions, writes the new states and
// the ledger effects, and commits. Accounts are returned in mutation order.
func (r *AccountRepository) Apply(ctx context.Context, cs ChangeSet) ([]*model.Account, error) {
	if cs.empty() {
		return nil, nil
	}
	order, err := LockOrder(cs.Mutations)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.WrapStorage("begin change set", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	results := make([]*model.Account, len(cs.Mutations))
	for _, i := range order {
		m := cs.Mutations[i]
		current, err := r.getForUpdate(ctx, tx, m.AccountID)
		if err != nil {
			return nil, err
		}
		next, err := ApplyMutation(current, m, now)
		if err != nil {
			return nil, err
		}
		if err := r.update(ctx, tx, next, m.ExpectedVersion); err != nil {
			return nil, err
		}
		results[i] = next
	}

	for _, entry := range cs.Append {
		if err := insertTransaction(ctx, tx, entry); err != nil {
			return nil, common.WrapStorage("append transaction", err)
		}
	}
	for _, entry := range cs.Complete {
		if err := completeTransaction(ctx, tx, entry, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, common.WrapStorage("commit change set", err)
	}
	return results, nil
}

func (r *AccountRepository) getForUpdate(ctx context.Context, tx *sql.Tx, accountID int64) (*model.Account, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Debug("Executing query to get account for update")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	acc, err := scanAccount(tx.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("Account not found for update")
			return nil, common.NewNotFound("Account", "id", accountID)
		}
		log.WithError(err).Error("Failed to execute get account for update query")
		return nil, common.WrapStorage("get account for update", err)
	}
	return acc, nil
}

func (r *AccountRepository) update(ctx context.Context, tx *sql.Tx, next *model.Account, expectedVersion int64) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  next.ID,
		"new_balance": next.Balance.StringFixed(2),
		"version":     next.Version,
	})
	log.Debug("Executing query to update account")

	query := `UPDATE accounts
		SET balance = $1, interest_rate = $2, accrued_interest = $3, last_interest_calculated = $4,
			status = $5, version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8`
	res, err := tx.ExecContext(ctx, query,
		next.Balance, next.InterestRate, next.AccruedInterest, next.LastInterestCalculated,
		next.Status, next.UpdatedAt, next.ID, expectedVersion)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account query")
		return common.WrapStorage("update account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapStorage("update account", err)
	}
	if n != 1 {
		return common.ErrConcurrencyConflict
	}
	return nil
}

// FindDueForInterest yields ACTIVE accounts whose interest was never calculated
// or last calculated before cutoff. Each call starts a new pass; pages are
// fetched lazily by ascending id.
func (r *AccountRepository) FindDueForInterest(ctx context.Context, cutoff time.Time) iter.Seq2[*model.Account, error] {
	pageSize := r.PageSize
	if pageSize <= 0 {
		pageSize = dueForInterestPageSize
	}
	return func(yield func(*model.Account, error) bool) {
		var afterID int64
		for {
			page, err := r.dueForInterestPage(ctx, cutoff, afterID, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, acc := range page {
				if !yield(acc, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			afterID = page[len(page)-1].ID
		}
	}
}

func (r *AccountRepository) dueForInterestPage(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{"cutoff": cutoff, "after_id": afterID})
	log.Debug("Executing query to find accounts due for interest")

	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE status = 'ACTIVE'
			AND (last_interest_calculated IS NULL OR last_interest_calculated < $1)
			AND id > $2
		ORDER BY id
		LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, query, cutoff, afterID, limit)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for accounts due for interest")
		return nil, common.WrapStorage("find accounts due for interest", err)
	}
	accounts, err := scanAccounts(rows)
	if err != nil {
		return nil, common.WrapStorage("scan accounts", err)
	}
	return accounts, nil
}

var _ IAccountRepository = (*AccountRepository)(nil)
