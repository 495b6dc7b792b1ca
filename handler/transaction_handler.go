package handler

import (
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Transfer godoc
// @Summary      Transfer money
// @Description  Moves money from an own account to any other active account
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request  body      model.TransferRequest  true  "Transfer details"
// @Success      200      {object}  model.Transaction
// @Failure      400      {object}  common.AppError
// @Failure      404      {object}  common.AppError
// @Security     BearerAuth
// @Router       /api/transfers [post]
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TransferRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}
	source, appErr := h.ownedAccount(r, req.FromAccountNumber)
	if appErr != nil {
		return appErr
	}

	logger.Log.WithFields(logrus.Fields{
		"customer_id": source.CustomerID,
		"from":        req.FromAccountNumber,
		"to":          req.ToAccountNumber,
	}).Info("Transfer request received")

	txn, err := h.engine.Transfer(r.Context(), req.FromAccountNumber, req.ToAccountNumber, req.Amount, req.Description)
	if err != nil {
		return common.FromError(err, "Could not complete transfer")
	}
	writeJSON(w, http.StatusOK, txn)
	return nil
}

// GetTransaction godoc
// @Summary      Get a transaction
// @Description  Returns a transaction that touches one of the caller's accounts
// @Tags         transactions
// @Produce      json
// @Param        transactionId  path      string  true  "Transaction id"
// @Success      200            {object}  model.Transaction
// @Failure      404            {object}  common.AppError
// @Security     BearerAuth
// @Router       /api/transactions/{transactionId} [get]
func (h *AccountHandler) GetTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	customerID, appErr := callerID(r)
	if appErr != nil {
		return appErr
	}
	txn, err := h.transactions.GetTransactionForCustomer(r.Context(), chi.URLParam(r, "transactionId"), customerID)
	if err != nil {
		return common.FromError(err, "Could not retrieve transaction")
	}
	writeJSON(w, http.StatusOK, txn)
	return nil
}
