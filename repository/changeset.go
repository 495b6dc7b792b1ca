package repository

import (
	"fmt"
	"go-ledger-api/common"
	"go-ledger-api/model"
	"sort"
	"time"
)

// Mutator changes a private copy of an account. Returning an error aborts the
// whole change set and nothing is persisted.
type Mutator func(account *model.Account) error

// Mutation is a versioned change to one account: it applies only while the
// stored version still equals ExpectedVersion.
type Mutation struct {
	AccountID       int64
	ExpectedVersion int64
	Apply           Mutator
}

// ChangeSet is applied as one atomic unit: every mutation succeeds and every
// ledger effect is written, or nothing is.
type ChangeSet struct {
	Mutations []Mutation
	// Append inserts new ledger entries as they are.
	Append []*model.Transaction
	// Complete moves PENDING entries to COMPLETED and stamps completed_at.
	Complete []*model.Transaction
}

func (cs ChangeSet) empty() bool {
	return len(cs.Mutations) == 0 && len(cs.Append) == 0 && len(cs.Complete) == 0
}

// LockOrder returns the indexes of cs.Mutations sorted by ascending account id.
// Every store acquires accounts in this order, whichever side of a transfer
// they are on, so opposite-direction transfers cannot deadlock.
func LockOrder(mutations []Mutation) ([]int, error) {
	order := make([]int, len(mutations))
	for i := range mutations {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return mutations[order[a]].AccountID < mutations[order[b]].AccountID
	})
	for i := 1; i < len(order); i++ {
		if mutations[order[i]].AccountID == mutations[order[i-1]].AccountID {
			return nil, common.InvalidArgument("account %d appears twice in one change set", mutations[order[i]].AccountID)
		}
	}
	return order, nil
}

// ApplyMutation runs m against current and returns the next stored state.
// It fails with common.ErrConcurrencyConflict when the version moved and
// rejects mutators that break account invariants or touch identity fields.
func ApplyMutation(current *model.Account, m Mutation, now time.Time) (*model.Account, error) {
	if current.Version != m.ExpectedVersion {
		return nil, fmt.Errorf("%w: account %s expected version %d, found %d",
			common.ErrConcurrencyConflict, current.AccountNumber, m.ExpectedVersion, current.Version)
	}

	next := current.Clone()
	if m.Apply != nil {
		if err := m.Apply(next); err != nil {
			return nil, err
		}
	}

	if err := checkInvariants(current, next); err != nil {
		return nil, err
	}

	next.Version = current.Version + 1
	next.UpdatedAt = now
	return next, nil
}

func checkInvariants(before, after *model.Account) error {
	if after.ID != before.ID || after.AccountNumber != before.AccountNumber ||
		after.CustomerID != before.CustomerID || after.Version != before.Version ||
		after.AccountType != before.AccountType || !after.CreatedAt.Equal(before.CreatedAt) {
		return common.InvalidArgument("mutation may not change identity of account %s", before.AccountNumber)
	}
	if after.Balance.IsNegative() {
		return common.InvalidArgument("balance of account %s would become negative", before.AccountNumber)
	}
	if after.InterestRate.IsNegative() {
		return common.InvalidArgument("interest rate of account %s would become negative", before.AccountNumber)
	}
	if after.AccruedInterest.IsNegative() {
		return common.InvalidArgument("accrued interest of account %s would become negative", before.AccountNumber)
	}
	if !after.Status.Valid() {
		return common.InvalidArgument("unknown account status %q", after.Status)
	}
	return nil
}
