// file: service/transfer_engine.go

package service

import (
	"context"
	"errors"
	"fmt"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/metrics"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	descDeposit        = "Deposit"
	descWithdrawal     = "Withdrawal"
	descTransfer       = "Transfer"
	descInitialDeposit = "Initial deposit"
	descInterestCredit = "Interest credit"
)

// IDGenerator hands out account numbers and transaction ids. *idgen.Generator satisfies it.
type IDGenerator interface {
	NextAccountNumber() string
	NextTransactionID() string
}

// TransferEngine executes deposits, withdrawals, transfers and interest credits.
// Every balance change is committed together with the COMPLETED status of its
// ledger entry; a lost compare-and-swap is retried on a fresh read of the accounts.
type TransferEngine struct {
	accounts   repository.IAccountRepository
	ledger     repository.ITransactionRepository
	ids        IDGenerator
	cache      ICacheClient
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

type EngineOption func(*TransferEngine)

// WithMaxRetries bounds the number of attempts per operation.
func WithMaxRetries(n int) EngineOption {
	return func(e *TransferEngine) { e.maxRetries = n }
}

func WithRetryBackoff(d time.Duration) EngineOption {
	return func(e *TransferEngine) { e.backoff = d }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *TransferEngine) { e.now = now }
}

// WithCache makes the engine drop cached account lists of the customers it touches.
func WithCache(cache ICacheClient) EngineOption {
	return func(e *TransferEngine) { e.cache = cache }
}

func NewTransferEngine(accounts repository.IAccountRepository, ledger repository.ITransactionRepository, ids IDGenerator, opts ...EngineOption) *TransferEngine {
	e := &TransferEngine{
		accounts:   accounts,
		ledger:     ledger,
		ids:        ids,
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoff,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deposit credits amount to an ACTIVE account.
func (e *TransferEngine) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation": "Deposit",
		"account":   accountNumber,
		"amount":    amount.String(),
	})
	log.Info("Processing deposit")

	account, err := e.activeAccount(ctx, accountNumber)
	if err != nil {
		log.WithError(err).Warn("Deposit rejected")
		return nil, err
	}
	if err := checkAmount(amount); err != nil {
		log.WithError(err).Warn("Deposit rejected")
		return nil, err
	}

	txn := &model.Transaction{
		Type:        model.TransactionTypeDeposit,
		Amount:      amount,
		Description: orDefault(description, descDeposit),
		ToAccountID: &account.ID,
		Status:      model.TransactionStatusPending,
	}
	if err := e.recordPending(ctx, txn); err != nil {
		log.WithError(err).Error("Failed to record pending deposit")
		return nil, err
	}

	err = withRetry(ctx, e.maxRetries, e.backoff, func(attempt int) error {
		if attempt > 0 {
			fresh, err := e.accounts.GetByID(ctx, account.ID)
			if err != nil {
				return err
			}
			account = fresh
		}
		_, err := e.accounts.Apply(ctx, repository.ChangeSet{
			Mutations: []repository.Mutation{{
				AccountID:       account.ID,
				ExpectedVersion: account.Version,
				Apply:           credit(amount),
			}},
			Complete: []*model.Transaction{txn},
		})
		return err
	})
	return e.finish(ctx, log, txn, err, account.CustomerID)
}

// Withdraw debits amount from an ACTIVE account. A shortfall is detected against
// the freshly read balance, so the attempt is recorded as FAILED.
func (e *TransferEngine) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation": "Withdraw",
		"account":   accountNumber,
		"amount":    amount.String(),
	})
	log.Info("Processing withdrawal")

	account, err := e.activeAccount(ctx, accountNumber)
	if err != nil {
		log.WithError(err).Warn("Withdrawal rejected")
		return nil, err
	}
	if err := checkAmount(amount); err != nil {
		log.WithError(err).Warn("Withdrawal rejected")
		return nil, err
	}

	txn := &model.Transaction{
		Type:          model.TransactionTypeWithdrawal,
		Amount:        amount,
		Description:   orDefault(description, descWithdrawal),
		FromAccountID: &account.ID,
		Status:        model.TransactionStatusPending,
	}
	if err := e.recordPending(ctx, txn); err != nil {
		log.WithError(err).Error("Failed to record pending withdrawal")
		return nil, err
	}

	err = withRetry(ctx, e.maxRetries, e.backoff, func(attempt int) error {
		if attempt > 0 {
			fresh, err := e.accounts.GetByID(ctx, account.ID)
			if err != nil {
				return err
			}
			account = fresh
		}
		_, err := e.accounts.Apply(ctx, repository.ChangeSet{
			Mutations: []repository.Mutation{{
				AccountID:       account.ID,
				ExpectedVersion: account.Version,
				Apply:           debit(amount),
			}},
			Complete: []*model.Transaction{txn},
		})
		return err
	})
	return e.finish(ctx, log, txn, err, account.CustomerID)
}

// Transfer moves amount between two distinct ACTIVE accounts. Both balances and
// the ledger entry change in one atomic step; an observer never sees only one side.
func (e *TransferEngine) Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation": "Transfer",
		"from":      fromNumber,
		"to":        toNumber,
		"amount":    amount.String(),
	})
	log.Info("Processing transfer")

	if fromNumber == toNumber {
		err := common.InvalidArgument("cannot transfer to the same account")
		log.WithError(err).Warn("Transfer rejected")
		return nil, err
	}
	src, err := e.activeAccount(ctx, fromNumber)
	if err != nil {
		log.WithError(err).Warn("Transfer rejected")
		return nil, err
	}
	dst, err := e.activeAccount(ctx, toNumber)
	if err != nil {
		log.WithError(err).Warn("Transfer rejected")
		return nil, err
	}
	if err := checkAmount(amount); err != nil {
		log.WithError(err).Warn("Transfer rejected")
		return nil, err
	}
	if src.Balance.LessThan(amount) {
		err := &common.InsufficientFundsError{AccountNumber: src.AccountNumber, Requested: amount, Available: src.Balance}
		log.WithError(err).Warn("Transfer rejected")
		return nil, err
	}

	txn := &model.Transaction{
		Type:          model.TransactionTypeTransfer,
		Amount:        amount,
		Description:   orDefault(description, descTransfer),
		FromAccountID: &src.ID,
		ToAccountID:   &dst.ID,
		Status:        model.TransactionStatusPending,
	}
	if err := e.recordPending(ctx, txn); err != nil {
		log.WithError(err).Error("Failed to record pending transfer")
		return nil, err
	}

	err = withRetry(ctx, e.maxRetries, e.backoff, func(attempt int) error {
		if attempt > 0 {
			freshSrc, err := e.accounts.GetByID(ctx, src.ID)
			if err != nil {
				return err
			}
			freshDst, err := e.accounts.GetByID(ctx, dst.ID)
			if err != nil {
				return err
			}
			src, dst = freshSrc, freshDst
		}
		_, err := e.accounts.Apply(ctx, repository.ChangeSet{
			Mutations: []repository.Mutation{
				{AccountID: src.ID, ExpectedVersion: src.Version, Apply: debit(amount)},
				{AccountID: dst.ID, ExpectedVersion: dst.Version, Apply: credit(amount)},
			},
			Complete: []*model.Transaction{txn},
		})
		return err
	})
	return e.finish(ctx, log, txn, err, src.CustomerID, dst.CustomerID)
}

// CreditAccruedInterest moves the account's accrued interest into its balance and
// records a COMPLETED INTEREST_CREDIT entry in the same atomic step. When nothing
// has accrued it returns (nil, nil) and writes nothing.
func (e *TransferEngine) CreditAccruedInterest(ctx context.Context, accountNumber string) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation": "CreditAccruedInterest",
		"account":   accountNumber,
	})

	account, err := e.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	var credited *model.Transaction
	err = withRetry(ctx, e.maxRetries, e.backoff, func(attempt int) error {
		credited = nil
		if attempt > 0 {
			fresh, err := e.accounts.GetByID(ctx, account.ID)
			if err != nil {
				return err
			}
			account = fresh
		}
		accrued := account.AccruedInterest
		if !accrued.IsPositive() {
			return nil
		}
		now := e.now()
		txn := &model.Transaction{
			TransactionID: e.ids.NextTransactionID(),
			Type:          model.TransactionTypeInterestCredit,
			Amount:        accrued,
			Description:   descInterestCredit,
			ToAccountID:   &account.ID,
			Status:        model.TransactionStatusCompleted,
			CompletedAt:   &now,
		}
		_, err := e.accounts.Apply(ctx, repository.ChangeSet{
			Mutations: []repository.Mutation{{
				AccountID:       account.ID,
				ExpectedVersion: account.Version,
				Apply: func(a *model.Account) error {
					a.Balance = a.Balance.Add(accrued)
					a.AccruedInterest = a.AccruedInterest.Sub(accrued)
					return nil
				},
			}},
			Append: []*model.Transaction{txn},
		})
		if err != nil {
			return err
		}
		credited = txn
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to credit accrued interest")
		return nil, err
	}
	if credited == nil {
		log.Debug("No accrued interest to credit")
		return nil, nil
	}

	metrics.TransactionsTotal.WithLabelValues(string(credited.Type), string(credited.Status)).Inc()
	InvalidateAccounts(ctx, e.cache, account.CustomerID)
	log.WithFields(logrus.Fields{
		"transaction_id": credited.TransactionID,
		"amount":         credited.Amount.String(),
	}).Info("Accrued interest credited")
	return credited, nil
}

func (e *TransferEngine) activeAccount(ctx context.Context, accountNumber string) (*model.Account, error) {
	account, err := e.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, &common.AccountNotActiveError{AccountNumber: account.AccountNumber, Status: string(account.Status)}
	}
	return account, nil
}

// recordPending stores txn as PENDING under a freshly generated id, drawing a new
// id when the generated one is already taken.
func (e *TransferEngine) recordPending(ctx context.Context, txn *model.Transaction) error {
	return withRetry(ctx, e.maxRetries, 0, func(int) error {
		txn.TransactionID = e.ids.NextTransactionID()
		return e.ledger.Create(ctx, txn)
	})
}

// finish settles a PENDING entry after the balance step. On failure the entry is
// marked FAILED unless the retry loop was abandoned because the caller's context
// ended, in which case it stays PENDING. A definite rejection is recorded even if
// the context ends at the same moment.
func (e *TransferEngine) finish(ctx context.Context, log *logrus.Entry, txn *model.Transaction, err error, customerIDs ...int64) (*model.Transaction, error) {
	log = log.WithField("transaction_id", txn.TransactionID)
	if err == nil {
		metrics.TransactionsTotal.WithLabelValues(string(txn.Type), string(txn.Status)).Inc()
		InvalidateAccounts(ctx, e.cache, customerIDs...)
		log.Info("Transaction completed")
		return txn, nil
	}

	if abandoned(err) {
		log.WithError(err).Warn("Context ended, transaction left pending")
		return nil, err
	}
	if ferr := e.ledger.Finalize(context.WithoutCancel(ctx), txn.TransactionID, model.TransactionStatusFailed, e.now()); ferr != nil {
		log.WithError(ferr).Error("Failed to mark transaction as failed")
	} else {
		txn.Status = model.TransactionStatusFailed
		metrics.TransactionsTotal.WithLabelValues(string(txn.Type), string(txn.Status)).Inc()
	}

	if errors.Is(err, common.ErrStorageFailure) {
		log.WithError(err).Error("Transaction failed")
	} else {
		log.WithError(err).Warn("Transaction failed")
	}
	return nil, err
}

// abandoned reports whether the retry loop gave up because the caller went away,
// as opposed to the store rejecting the change.
func abandoned(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func credit(amount decimal.Decimal) repository.Mutator {
	return func(a *model.Account) error {
		if !a.IsActive() {
			return &common.AccountNotActiveError{AccountNumber: a.AccountNumber, Status: string(a.Status)}
		}
		a.Balance = a.Balance.Add(amount)
		return nil
	}
}

func debit(amount decimal.Decimal) repository.Mutator {
	return func(a *model.Account) error {
		if !a.IsActive() {
			return &common.AccountNotActiveError{AccountNumber: a.AccountNumber, Status: string(a.Status)}
		}
		if a.Balance.LessThan(amount) {
			return &common.InsufficientFundsError{AccountNumber: a.AccountNumber, Requested: amount, Available: a.Balance}
		}
		a.Balance = a.Balance.Sub(amount)
		return nil
	}
}

// checkAmount requires a positive amount with at most two fractional digits.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return common.ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: at most two decimal places allowed", common.ErrInvalidAmount)
	}
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
