package service

import (
	"context"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"

	"github.com/sirupsen/logrus"
)

const maxPageSize = 500

// TransactionService serves read-only views of the ledger.
type TransactionService struct {
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
}

func NewTransactionService(accountRepo repository.IAccountRepository, transactionRepo repository.ITransactionRepository) *TransactionService {
	return &TransactionService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	return s.transactionRepo.GetByTransactionID(ctx, transactionID)
}

// GetTransactionForCustomer returns the entry only when it touches one of the
// customer's accounts; otherwise it reports the entry as not found.
func (s *TransactionService) GetTransactionForCustomer(ctx context.Context, transactionID string, customerID int64) (*model.Transaction, error) {
	t, err := s.transactionRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if t.Touches(a.ID) {
			return t, nil
		}
	}
	logger.Log.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"customer_id":    customerID,
	}).Warn("Customer requested a transaction outside their accounts")
	return nil, common.NewNotFound("Transaction", "transactionId", transactionID)
}

// ListTransactions returns entries matching filter, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]*model.Transaction, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, common.InvalidArgument("unknown transaction status %q", filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, common.InvalidArgument("unknown transaction type %q", filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, common.InvalidArgument("end of date range is before its start")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, common.InvalidArgument("limit and offset cannot be negative")
	}
	if filter.Limit == 0 || filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	return s.transactionRepo.List(ctx, filter)
}

// ListForAccount resolves the account number and lists the entries touching it.
// The filter's own account and customer constraints are replaced.
func (s *TransactionService) ListForAccount(ctx context.Context, accountNumber string, filter model.TransactionFilter) ([]*model.Transaction, error) {
	account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	filter.AccountID = account.ID
	filter.CustomerID = 0
	return s.ListTransactions(ctx, filter)
}

// ListForCustomer lists entries touching any account of the customer.
func (s *TransactionService) ListForCustomer(ctx context.Context, customerID int64, filter model.TransactionFilter) ([]*model.Transaction, error) {
	filter.CustomerID = customerID
	return s.ListTransactions(ctx, filter)
}
