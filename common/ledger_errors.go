package common

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Error kinds surfaced by the ledger. Structured errors below match these through errors.Is.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAccountNotActive    = errors.New("account is not active")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrConcurrencyConflict = errors.New("account was modified concurrently")
	ErrDuplicateResource   = errors.New("duplicate resource")
	ErrStorageFailure      = errors.New("storage failure")
)

type NotFoundError struct {
	Resource string
	Field    string
	Value    any
}

func NewNotFound(resource, field string, value any) *NotFoundError {
	return &NotFoundError{Resource: resource, Field: field, Value: value}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %v", e.Resource, e.Field, e.Value)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type AccountNotActiveError struct {
	AccountNumber string
	Status        string
}

func (e *AccountNotActiveError) Error() string {
	return fmt.Sprintf("account %s is not active. Current status: %s", e.AccountNumber, e.Status)
}

func (e *AccountNotActiveError) Is(target error) bool { return target == ErrAccountNotActive }

type InsufficientFundsError struct {
	AccountNumber string
	Requested     decimal.Decimal
	Available     decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s. Requested: %s, Available: %s",
		e.AccountNumber, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// StorageError wraps an infrastructure failure. The cause stays reachable via Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

const uniqueViolation = "23505"

// WrapStorage classifies a driver error. Domain errors pass through untouched,
// unique violations become ErrDuplicateResource, anything else is a StorageError.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, pqErr.Constraint)
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError reports whether err already belongs to the ledger taxonomy.
func IsDomainError(err error) bool {
	for _, kind := range []error{
		ErrNotFound, ErrAccountNotActive, ErrInvalidAmount, ErrInvalidArgument,
		ErrInsufficientFunds, ErrConcurrencyConflict, ErrDuplicateResource, ErrStorageFailure,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
