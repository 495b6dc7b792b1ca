package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
)

// ICustomerRepository is the only view the ledger has of customers: their status.
type ICustomerRepository interface {
	GetStatus(ctx context.Context, customerID int64) (model.CustomerStatus, error)
}

type CustomerRepository struct {
	DB *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

func (r *CustomerRepository) GetStatus(ctx context.Context, customerID int64) (model.CustomerStatus, error) {
	log := logger.Log.WithField("customer_id", customerID)
	log.Debug("Executing query to get customer status")

	var status model.CustomerStatus
	err := r.DB.QueryRowContext(ctx, `SELECT status FROM customers WHERE id = $1`, customerID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.NewNotFound("Customer", "id", customerID)
		}
		log.WithError(err).Error("Failed to execute get customer status query")
		return "", common.WrapStorage("get customer status", err)
	}
	return status, nil
}

var _ ICustomerRepository = (*CustomerRepository)(nil)
