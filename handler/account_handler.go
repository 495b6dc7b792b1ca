package handler

import (
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type AccountHandler struct {
	accounts     *service.AccountService
	engine       *service.TransferEngine
	transactions *service.TransactionService
}

func NewAccountHandler(accounts *service.AccountService, engine *service.TransferEngine, transactions *service.TransactionService) *AccountHandler {
	return &AccountHandler{accounts: accounts, engine: engine, transactions: transactions}
}

// OpenAccount godoc
// @Summary      Open an account
// @Description  Opens an account for the calling customer, optionally with an initial deposit
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      model.OpenAccountRequest  true  "Account details"
// @Success      201      {object}  model.Account
// @Failure      400      {object}  common.AppError
// @Security     BearerAuth
// @Router       /api/accounts [post]
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.OpenAccountRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}
	customerID, appErr := callerID(r)
	if appErr != nil {
		return appErr
	}
	req.CustomerID = customerID

	logger.Log.WithFields(logrus.Fields{
		"customer_id":  customerID,
		"account_type": req.AccountType,
	}).Info("Open account request received")

	account, err := h.accounts.OpenAccount(r.Context(), req)
	if err != nil {
		return common.FromError(err, "Could not open account")
	}
	writeJSON(w, http.StatusCreated, account)
	return nil
}

// ListAccounts godoc
// @Summary      List own accounts
// @Tags         accounts
// @Produce      json
// @Success      200  {array}   model.Account
// @Security     BearerAuth
// @Router       /api/accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	customerID, appErr := callerID(r)
	if appErr != nil {
		return appErr
	}
	accounts, err := h.accounts.ListAccountsForCustomer(r.Context(), customerID)
	if err != nil {
		return common.FromError(err, "Could not retrieve accounts")
	}
	writeJSON(w, http.StatusOK, accounts)
	return nil
}

// GetAccount godoc
// @Summary      Get an own account
// @Tags         accounts
// @Produce      json
// @Param        accountNumber  path      string  true  "Account number"
// @Success      200            {object}  model.Account
// @Failure      404            {object}  common.AppError
// @Security     BearerAuth
// @Router       /api/accounts/{accountNumber} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	account, appErr := h.ownedAccount(r, chi.URLParam(r, "accountNumber"))
	if appErr != nil {
		return appErr
	}
	writeJSON(w, http.StatusOK, account)
	return nil
}

// Deposit godoc
// @Summary      Deposit into an own account
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        accountNumber  path      string               true  "Account number"
// @Param        request        body      model.AmountRequest  true  "Amount"
// @Success      200            {object}  model.Transaction
// @Failure      400            {object}  common.AppError
// @Failure      422            {object}  common.AppError
// @Security     BearerAuth
// @Router       /api/accounts/{accountNumber}/deposit [post]
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.AmountRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}
	account, appErr := h.ownedAccount(r, chi.URLParam(r, "accountNumber"))
	if appErr != nil {
		return appErr
	}
	txn, err := h.engine.Deposit(r.Context(), account.AccountNumber, req.Amount, req.Description)
	if err != nil {
		return common.FromError(err, "Could not complete deposit")
	}
	writeJSON(w, http.StatusOK, txn)
	return nil
}

// Withdraw godoc
// @Summary      Withdraw from an own account
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        accountNumber  path      string               true  "Account number"
// @Param        request        body      model.AmountRequest  true  "Amount"
// @Success      200            {object}  model.Transaction
// @Failure      400            {object}  common.AppError
// @Security     BearerAuth
// @Router       /api/accounts/{accountNumber}/withdraw [post]
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.AmountRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}
	account, appErr := h.ownedAccount(r, chi.URLParam(r, "accountNumber"))
	if appErr != nil {
		return appErr
	}
	txn, err := h.engine.Withdraw(r.Context(), account.AccountNumber, req.Amount, req.Description)
	if err != nil {
		return common.FromError(err, "Could not complete withdrawal")
	}
	writeJSON(w, http.StatusOK, txn)
	return nil
}

// CreditInterest godoc
// @Summary      Credit accrued interest
// @Description  Moves accrued interest into the balance. Responds 204 when nothing has accrued.
// @Tags         transactions
// @Produce      json
// @Param        accountNumber  path      string  true  "Account number"
// @Success      200            {object}  model.Transaction
// @Success      204
// @Security     BearerAuth
// @Router       /api/accounts/{accountNumber}/interest/credit [post]
func (h *AccountHandler) CreditInterest(w http.ResponseWriter, r *http.Request) *common.AppError {
	account, appErr := h.ownedAccount(r, chi.URLParam(r, "accountNumber"))
	if appErr != nil {
		return appErr
	}
	txn, err := h.engine.CreditAccruedInterest(r.Context(), account.AccountNumber)
	if err != nil {
		return common.FromError(err, "Could not credit interest")
	}
	if txn == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	writeJSON(w, http.StatusOK, txn)
	return nil
}

// ListAccountTransactions godoc
// @Summary      List transactions of an own account
// @Tags         transactions
// @Produce      json
// @Param        accountNumber  path      string  true   "Account number"
// @Param        from           query     string  false  "Start date (YYYY-MM-DD or RFC 3339)"
// @Param        to             query     string  false  "End date (YYYY-MM-DD or RFC 3339)"
// @Param        status         query     string  false  "PENDING, COMPLETED, FAILED or CANCELLED"
// @Success      200            {array}   model.Transaction
// @Security     BearerAuth
// @Router       /api/accounts/{accountNumber}/transactions [get]
func (h *AccountHandler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) *common.AppError {
	filter, appErr := parseTransactionFilter(r)
	if appErr != nil {
		return appErr
	}
	account, appErr := h.ownedAccount(r, chi.URLParam(r, "accountNumber"))
	if appErr != nil {
		return appErr
	}
	transactions, err := h.transactions.ListForAccount(r.Context(), account.AccountNumber, filter)
	if err != nil {
		return common.FromError(err, "Could not retrieve transactions")
	}
	writeJSON(w, http.StatusOK, transactions)
	return nil
}

// ownedAccount loads the account and hides it unless it belongs to the caller.
func (h *AccountHandler) ownedAccount(r *http.Request, accountNumber string) (*model.Account, *common.AppError) {
	customerID, appErr := callerID(r)
	if appErr != nil {
		return nil, appErr
	}
	account, err := h.accounts.GetAccount(r.Context(), accountNumber)
	if err != nil {
		return nil, common.FromError(err, "Could not retrieve account")
	}
	if account.CustomerID != customerID {
		logger.Log.WithFields(logrus.Fields{
			"customer_id": customerID,
			"account":     accountNumber,
		}).Warn("Customer requested an account they do not own")
		return nil, common.FromError(common.NewNotFound("Account", "accountNumber", accountNumber), "")
	}
	return account, nil
}
