// file: service/account_service.go

package service

import (
	"context"
	"encoding/json"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultCacheTTL = 10 * time.Minute

// InterestRates holds the annual percentage applied to new accounts of each type
// when the caller does not ask for a custom rate.
type InterestRates struct {
	Savings decimal.Decimal
	Current decimal.Decimal
}

func DefaultInterestRates() InterestRates {
	return InterestRates{
		Savings: decimal.RequireFromString("3.50"),
		Current: decimal.RequireFromString("0.50"),
	}
}

func (r InterestRates) For(t model.AccountType) decimal.Decimal {
	if t == model.AccountTypeSavings {
		return r.Savings
	}
	return r.Current
}

// AccountService opens accounts, serves account reads with a cache-aside list per
// customer, and performs admin maintenance on account attributes.
type AccountService struct {
	repo       repository.IAccountRepository
	customers  repository.ICustomerRepository
	ledger     repository.ITransactionRepository
	ids        IDGenerator
	cache      ICacheClient
	rates      InterestRates
	maxRetries int
	backoff    time.Duration
	cacheTTL   time.Duration
	now        func() time.Time
}

type AccountServiceConfig struct {
	Rates        InterestRates
	MaxRetries   int
	RetryBackoff time.Duration
	CacheTTL     time.Duration
}

// NewAccountService wires the service. cache may be nil, in which case reads always hit the store.
func NewAccountService(repo repository.IAccountRepository, customers repository.ICustomerRepository, ledger repository.ITransactionRepository, ids IDGenerator, cache ICacheClient, cfg AccountServiceConfig) *AccountService {
	s := &AccountService{
		repo:       repo,
		customers:  customers,
		ledger:     ledger,
		ids:        ids,
		cache:      cache,
		rates:      cfg.Rates,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		cacheTTL:   cfg.CacheTTL,
		now:        time.Now,
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultCacheTTL
	}
	return s
}

// OpenAccount creates an ACTIVE account for an ACTIVE customer. A positive initial
// deposit is stored as the opening balance together with a COMPLETED DEPOSIT entry.
func (s *AccountService) OpenAccount(ctx context.Context, req model.OpenAccountRequest) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation":    "OpenAccount",
		"customer_id":  req.CustomerID,
		"account_type": req.AccountType,
	})

	if !req.AccountType.Valid() {
		return nil, common.InvalidArgument("unknown account type %q", req.AccountType)
	}
	initial := decimal.Zero
	if req.InitialDeposit != nil {
		initial = *req.InitialDeposit
		if initial.IsNegative() || !initial.Equal(initial.Round(2)) {
			return nil, common.ErrInvalidAmount
		}
	}
	rate := s.rates.For(req.AccountType)
	if req.CustomInterestRate != nil {
		if req.CustomInterestRate.IsNegative() {
			return nil, common.InvalidArgument("interest rate cannot be negative")
		}
		rate = req.CustomInterestRate.Round(2)
	}

	status, err := s.customers.GetStatus(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if status != model.CustomerStatusActive {
		log.WithField("customer_status", status).Warn("Refusing to open account for inactive customer")
		return nil, common.InvalidArgument("customer %d is not active", req.CustomerID)
	}

	now := s.now()
	account := &model.Account{
		AccountType:            req.AccountType,
		Balance:                initial,
		InterestRate:           rate,
		AccruedInterest:        decimal.Zero,
		LastInterestCalculated: &now,
		Status:                 model.AccountStatusActive,
		CustomerID:             req.CustomerID,
	}
	var opening *model.Transaction
	if initial.IsPositive() {
		opening = &model.Transaction{
			Type:        model.TransactionTypeDeposit,
			Amount:      initial,
			Description: descInitialDeposit,
			Status:      model.TransactionStatusCompleted,
			CompletedAt: &now,
		}
	}

	err = withRetry(ctx, s.maxRetries, 0, func(int) error {
		account.AccountNumber = s.ids.NextAccountNumber()
		if opening == nil {
			return s.repo.Create(ctx, account)
		}
		opening.TransactionID = s.ids.NextTransactionID()
		opening.ToAccountID = nil
		return s.repo.Create(ctx, account, opening)
	})
	if err != nil {
		log.WithError(err).Error("Failed to open account")
		return nil, err
	}

	InvalidateAccounts(ctx, s.cache, account.CustomerID)
	log.WithFields(logrus.Fields{
		"account":         account.AccountNumber,
		"initial_deposit": initial.String(),
	}).Info("Account opened")
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountNumber string) (*model.Account, error) {
	return s.repo.GetByNumber(ctx, accountNumber)
}

// ListAccountsForCustomer lists a customer's accounts, utilizing a cache-aside strategy.
func (s *AccountService) ListAccountsForCustomer(ctx context.Context, customerID int64) ([]*model.Account, error) {
	cacheKey := accountsCacheKey(customerID)

	// 1. Try the cache.
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var accounts []*model.Account
			if err := json.Unmarshal([]byte(cached), &accounts); err == nil {
				return accounts, nil
			}
		}
	}

	// 2. Cache miss. Fetch from the store.
	accounts, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	// 3. Populate the cache for later reads.
	if s.cache != nil {
		if data, err := json.Marshal(accounts); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				logger.Log.WithError(err).WithField("key", cacheKey).Warn("Failed to cache accounts")
			}
		}
	}
	return accounts, nil
}

// GetAllAccounts retrieves all accounts. Admin data is not cached.
func (s *AccountService) GetAllAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.repo.ListAll(ctx)
}

// UpdateAccountStatus changes the status of an account. Closing requires that no
// PENDING entry still references the account.
func (s *AccountService) UpdateAccountStatus(ctx context.Context, accountNumber string, status model.AccountStatus) (*model.Account, error) {
	if !status.Valid() {
		return nil, common.InvalidArgument("unknown account status %q", status)
	}
	if status == model.AccountStatusClosed {
		if err := s.EnsureDeletable(ctx, accountNumber); err != nil {
			return nil, err
		}
	}
	updated, err := s.mutate(ctx, accountNumber, func(a *model.Account) error {
		a.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Log.WithFields(logrus.Fields{
		"account": accountNumber,
		"status":  status,
	}).Info("Account status updated")
	return updated, nil
}

func (s *AccountService) UpdateInterestRate(ctx context.Context, accountNumber string, rate decimal.Decimal) (*model.Account, error) {
	if rate.IsNegative() {
		return nil, common.InvalidArgument("interest rate cannot be negative")
	}
	rate = rate.Round(2)
	updated, err := s.mutate(ctx, accountNumber, func(a *model.Account) error {
		a.InterestRate = rate
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Log.WithFields(logrus.Fields{
		"account":       accountNumber,
		"interest_rate": rate.String(),
	}).Info("Account interest rate updated")
	return updated, nil
}

// EnsureDeletable fails with ErrInvalidArgument while PENDING entries reference the account.
func (s *AccountService) EnsureDeletable(ctx context.Context, accountNumber string) error {
	account, err := s.repo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return err
	}
	pending, err := s.ledger.HasPending(ctx, account.ID)
	if err != nil {
		return err
	}
	if pending {
		return common.InvalidArgument("account %s has pending transactions", accountNumber)
	}
	return nil
}

func (s *AccountService) mutate(ctx context.Context, accountNumber string, fn repository.Mutator) (*model.Account, error) {
	account, err := s.repo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	var updated *model.Account
	err = withRetry(ctx, s.maxRetries, s.backoff, func(attempt int) error {
		if attempt > 0 {
			if account, err = s.repo.GetByID(ctx, account.ID); err != nil {
				return err
			}
		}
		updated, err = s.repo.CompareAndSwap(ctx, account.ID, account.Version, fn)
		return err
	})
	if err != nil {
		logger.Log.WithError(err).WithField("account", accountNumber).Error("Failed to update account")
		return nil, err
	}
	InvalidateAccounts(ctx, s.cache, updated.CustomerID)
	return updated, nil
}
