package handler

import (
	"context"
	"errors"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/scheduler"
	"go-ledger-api/service"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// InterestRunner is the part of the interest scheduler exposed to operators.
type InterestRunner interface {
	RunOnce(ctx context.Context) (scheduler.RunReport, error)
	LastRun() scheduler.RunReport
}

// AdminHandler serves unscoped routes; the router puts it behind AdminMiddleware.
type AdminHandler struct {
	accounts     *service.AccountService
	transactions *service.TransactionService
	interest     InterestRunner
}

func NewAdminHandler(accounts *service.AccountService, transactions *service.TransactionService, interest InterestRunner) *AdminHandler {
	return &AdminHandler{accounts: accounts, transactions: transactions, interest: interest}
}

// ListAllAccounts godoc
// @Summary      List all accounts
// @Tags         admin
// @Produce      json
// @Success      200  {array}  model.Account
// @Security     BearerAuth
// @Router       /api/admin/accounts [get]
func (h *AdminHandler) ListAllAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	accounts, err := h.accounts.GetAllAccounts(r.Context())
	if err != nil {
		return common.FromError(err, "Could not retrieve accounts")
	}
	writeJSON(w, http.StatusOK, accounts)
	return nil
}

// UpdateAccountStatus godoc
// @Summary      Change account status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        accountNumber  path      string                            true  "Account number"
// @Param        request        body      model.UpdateAccountStatusRequest  true  "New status"
// @Success      200            {object}  model.Account
// @Security     BearerAuth
// @Router       /api/admin/accounts/{accountNumber}/status [patch]
func (h *AdminHandler) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.UpdateAccountStatusRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}
	account, err := h.accounts.UpdateAccountStatus(r.Context(), chi.URLParam(r, "accountNumber"), req.Status)
	if err != nil {
		return common.FromError(err, "Could not update account status")
	}
	writeJSON(w, http.StatusOK, account)
	return nil
}

// UpdateInterestRate godoc
// @Summary      Change account interest rate
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        accountNumber  path      string                           true  "Account number"
// @Param        request        body      model.UpdateInterestRateRequest  true  "New annual rate in percent"
// @Success      200            {object}  model.Account
// @Security     BearerAuth
// @Router       /api/admin/accounts/{accountNumber}/interest-rate [patch]
func (h *AdminHandler) UpdateInterestRate(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.UpdateInterestRateRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}
	account, err := h.accounts.UpdateInterestRate(r.Context(), chi.URLParam(r, "accountNumber"), req.InterestRate)
	if err != nil {
		return common.FromError(err, "Could not update interest rate")
	}
	writeJSON(w, http.StatusOK, account)
	return nil
}

// ListTransactions godoc
// @Summary      Search the ledger
// @Tags         admin
// @Produce      json
// @Param        customer_id  query     int     false  "Owning customer"
// @Param        account      query     string  false  "Account number"
// @Param        from         query     string  false  "Start date"
// @Param        to           query     string  false  "End date"
// @Param        status       query     string  false  "Status"
// @Param        type         query     string  false  "Type"
// @Param        limit        query     int     false  "Page size"
// @Param        offset       query     int     false  "Offset"
// @Success      200          {array}   model.Transaction
// @Security     BearerAuth
// @Router       /api/admin/transactions [get]
func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) *common.AppError {
	filter, appErr := parseTransactionFilter(r)
	if appErr != nil {
		return appErr
	}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return common.NewAppError(http.StatusBadRequest, "Invalid 'customer_id' parameter", err)
		}
		filter.CustomerID = id
	}

	var (
		transactions []*model.Transaction
		err          error
	)
	if number := r.URL.Query().Get("account"); number != "" {
		transactions, err = h.transactions.ListForAccount(r.Context(), number, filter)
	} else {
		transactions, err = h.transactions.ListTransactions(r.Context(), filter)
	}
	if err != nil {
		return common.FromError(err, "Could not retrieve transactions")
	}
	writeJSON(w, http.StatusOK, transactions)
	return nil
}

// RunInterestAccrual godoc
// @Summary      Run interest accrual now
// @Tags         admin
// @Produce      json
// @Success      200  {object}  scheduler.RunReport
// @Failure      409  {object}  common.AppError
// @Security     BearerAuth
// @Router       /api/admin/interest/run [post]
func (h *AdminHandler) RunInterestAccrual(w http.ResponseWriter, r *http.Request) *common.AppError {
	logger.Log.Info("Manual interest accrual requested")
	report, err := h.interest.RunOnce(r.Context())
	if errors.Is(err, scheduler.ErrRunInProgress) {
		return common.NewAppError(http.StatusConflict, err.Error(), err)
	}
	if err != nil {
		return common.FromError(err, "Interest accrual run failed")
	}
	writeJSON(w, http.StatusOK, report)
	return nil
}

// LastInterestRun godoc
// @Summary      Report of the last interest accrual run
// @Tags         admin
// @Produce      json
// @Success      200  {object}  scheduler.RunReport
// @Security     BearerAuth
// @Router       /api/admin/interest/last-run [get]
func (h *AdminHandler) LastInterestRun(w http.ResponseWriter, r *http.Request) *common.AppError {
	writeJSON(w, http.StatusOK, h.interest.LastRun())
	return nil
}
