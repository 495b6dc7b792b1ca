// Package memory is an in-process implementation of the account store, the
// transaction ledger and the customer lookup. One mutex guards all state, so a
// change set is trivially atomic.
package memory

import (
	"context"
	"fmt"
	"go-ledger-api/common"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"iter"
	"sort"
	"sync"
	"time"
)

type Store struct {
	mu sync.RWMutex

	accounts      map[int64]*model.Account
	byNumber      map[string]int64
	transactions  []*model.Transaction // index i holds id i+1
	byTxnID       map[string]int
	customers     map[int64]model.CustomerStatus
	nextAccountID int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:  make(map[int64]*model.Account),
		byNumber:  make(map[string]int64),
		byTxnID:   make(map[string]int),
		customers: make(map[int64]model.CustomerStatus),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetCustomerStatus registers or updates a customer for the status lookup.
func (s *Store) SetCustomerStatus(customerID int64, status model.CustomerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[customerID] = status
}

func (s *Store) GetStatus(_ context.Context, customerID int64) (model.CustomerStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.customers[customerID]
	if !ok {
		return "", common.NewNotFound("Customer", "id", customerID)
	}
	return status, nil
}

// --- accounts ---

func (s *Store) Create(_ context.Context, account *model.Account, entries ...*model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byNumber[account.AccountNumber]; exists {
		return fmt.Errorf("%w: account number %s", common.ErrDuplicateResource, account.AccountNumber)
	}
	if err := s.checkNewEntries(entries); err != nil {
		return err
	}

	now := s.now()
	s.nextAccountID++
	account.ID = s.nextAccountID
	account.Version = 0
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.ID] = account.Clone()
	s.byNumber[account.AccountNumber] = account.ID

	for _, entry := range entries {
		if entry.ToAccountID == nil && entry.FromAccountID == nil {
			id := account.ID
			entry.ToAccountID = &id
		}
		s.insert(entry, now)
	}
	return nil
}

func (s *Store) GetByNumber(_ context.Context, accountNumber string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[accountNumber]
	if !ok {
		return nil, common.NewNotFound("Account", "accountNumber", accountNumber)
	}
	return s.accounts[id].Clone(), nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, common.NewNotFound("Account", "id", id)
	}
	return acc.Clone(), nil
}

func (s *Store) ListByCustomer(_ context.Context, customerID int64) ([]*model.Account, error) {
	return s.selectAccounts(func(a *model.Account) bool { return a.CustomerID == customerID }), nil
}

func (s *Store) ListAll(_ context.Context) ([]*model.Account, error) {
	return s.selectAccounts(func(*model.Account) bool { return true }), nil
}

func (s *Store) selectAccounts(keep func(*model.Account) bool) []*model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Account
	for _, acc := range s.accounts {
		if keep(acc) {
			out = append(out, acc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) CompareAndSwap(ctx context.Context, accountID, expectedVersion int64, mutate repository.Mutator) (*model.Account, error) {
	accounts, err := s.Apply(ctx, repository.ChangeSet{Mutations: []repository.Mutation{{
		AccountID:       accountID,
		ExpectedVersion: expectedVersion,
		Apply:           mutate,
	}}})
	if err != nil {
		return nil, err
	}
	return accounts[0], nil
}

// Apply validates the whole change set before writing anything.
func (s *Store) Apply(_ context.Context, cs repository.ChangeSet) ([]*model.Account, error) {
	order, err := repository.LockOrder(cs.Mutations)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	results := make([]*model.Account, len(cs.Mutations))
	for _, i := range order {
		m := cs.Mutations[i]
		current, ok := s.accounts[m.AccountID]
		if !ok {
			return nil, common.NewNotFound("Account", "id", m.AccountID)
		}
		next, err := repository.ApplyMutation(current, m, now)
		if err != nil {
			return nil, err
		}
		results[i] = next
	}
	if err := s.checkNewEntries(cs.Append); err != nil {
		return nil, err
	}
	for _, entry := range cs.Complete {
		idx, ok := s.byTxnID[entry.TransactionID]
		if !ok {
			return nil, common.NewNotFound("Transaction", "transactionId", entry.TransactionID)
		}
		if s.transactions[idx].Status != model.TransactionStatusPending {
			return nil, common.InvalidArgument("transaction %s is not pending", entry.TransactionID)
		}
	}

	for _, next := range results {
		s.accounts[next.ID] = next.Clone()
	}
	for _, entry := range cs.Append {
		s.insert(entry, now)
	}
	for _, entry := range cs.Complete {
		stored := s.transactions[s.byTxnID[entry.TransactionID]]
		completedAt := now
		stored.Status = model.TransactionStatusCompleted
		stored.CompletedAt = &completedAt
		entry.Status = stored.Status
		entry.CompletedAt = &completedAt
	}
	return results, nil
}

// FindDueForInterest snapshots the matching accounts when iteration starts, so
// CompareAndSwap may be called from inside the loop.
func (s *Store) FindDueForInterest(_ context.Context, cutoff time.Time) iter.Seq2[*model.Account, error] {
	return func(yield func(*model.Account, error) bool) {
		due := s.selectAccounts(func(a *model.Account) bool {
			return a.IsActive() && (a.LastInterestCalculated == nil || a.LastInterestCalculated.Before(cutoff))
		})
		for _, acc := range due {
			if !yield(acc, nil) {
				return
			}
		}
	}
}

// --- transactions ---

func (s *Store) checkNewEntries(entries []*model.Transaction) error {
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := s.byTxnID[entry.TransactionID]; dup {
			return fmt.Errorf("%w: transaction id %s", common.ErrDuplicateResource, entry.TransactionID)
		}
		if _, dup := seen[entry.TransactionID]; dup {
			return fmt.Errorf("%w: transaction id %s", common.ErrDuplicateResource, entry.TransactionID)
		}
		seen[entry.TransactionID] = struct{}{}
	}
	return nil
}

// insert must be called with s.mu held.
func (s *Store) insert(entry *model.Transaction, now time.Time) {
	entry.ID = int64(len(s.transactions) + 1)
	entry.CreatedAt = now
	s.transactions = append(s.transactions, entry.Clone())
	s.byTxnID[entry.TransactionID] = len(s.transactions) - 1
}

// Ledger exposes the store's transactions as a repository.ITransactionRepository.
// Both views share one lock, so ledger and account changes stay consistent.
type Ledger struct {
	*Store
}

func (s *Store) Ledger() Ledger {
	return Ledger{Store: s}
}

func (l Ledger) Create(_ context.Context, transaction *model.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkNewEntries([]*model.Transaction{transaction}); err != nil {
		return err
	}
	l.insert(transaction, l.now())
	return nil
}

func (s *Store) Finalize(_ context.Context, transactionID string, status model.TransactionStatus, at time.Time) error {
	if !status.Terminal() || !status.Valid() {
		return common.InvalidArgument("cannot finalize transaction %s to %s", transactionID, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byTxnID[transactionID]
	if !ok {
		return common.NewNotFound("Transaction", "transactionId", transactionID)
	}
	stored := s.transactions[idx]
	if stored.Status != model.TransactionStatusPending {
		return common.InvalidArgument("transaction %s is already finalized", transactionID)
	}
	stored.Status = status
	if status == model.TransactionStatusCompleted {
		completedAt := at
		stored.CompletedAt = &completedAt
	}
	return nil
}

func (s *Store) GetByTransactionID(_ context.Context, transactionID string) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byTxnID[transactionID]
	if !ok {
		return nil, common.NewNotFound("Transaction", "transactionId", transactionID)
	}
	return s.transactions[idx].Clone(), nil
}

func (l Ledger) GetByID(_ context.Context, id int64) (*model.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id < 1 || int(id) > len(l.transactions) {
		return nil, common.NewNotFound("Transaction", "id", id)
	}
	return l.transactions[id-1].Clone(), nil
}

func (s *Store) List(_ context.Context, filter model.TransactionFilter) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Transaction
	// Newest first, matching the SQL ordering.
	for i := len(s.transactions) - 1; i >= 0; i-- {
		t := s.transactions[i]
		if s.matches(t, filter) {
			out = append(out, t.Clone())
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) matches(t *model.Transaction, f model.TransactionFilter) bool {
	if f.AccountID != 0 && !t.Touches(f.AccountID) {
		return false
	}
	if f.CustomerID != 0 && !s.ownedBy(t, f.CustomerID) {
		return false
	}
	if f.From != nil && t.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && t.CreatedAt.After(*f.To) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}

func (s *Store) ownedBy(t *model.Transaction, customerID int64) bool {
	for _, id := range []*int64{t.FromAccountID, t.ToAccountID} {
		if id == nil {
			continue
		}
		if acc, ok := s.accounts[*id]; ok && acc.CustomerID == customerID {
			return true
		}
	}
	return false
}

func (s *Store) HasPending(_ context.Context, accountID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.Status == model.TransactionStatusPending && t.Touches(accountID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListUnpublished(_ context.Context, limit int) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Transaction
	for _, t := range s.transactions {
		if t.Status == model.TransactionStatusCompleted && t.PublishedAt == nil {
			out = append(out, t.Clone())
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, ids []int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id < 1 || int(id) > len(s.transactions) {
			continue
		}
		publishedAt := at
		s.transactions[id-1].PublishedAt = &publishedAt
	}
	return nil
}

var (
	_ repository.IAccountRepository     = (*Store)(nil)
	_ repository.ICustomerRepository    = (*Store)(nil)
	_ repository.ITransactionRepository = Ledger{}
)
