// file: router/router_test.go

package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"go-ledger-api/app"
	"go-ledger-api/config"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/scheduler"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "router-test-secret"

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// newTestApp wires the whole application on the in-memory store with customers 1 and 2.
func newTestApp(t *testing.T) *app.App {
	t.Helper()
	var cfg config.Config
	cfg.Storage.Driver = "memory"
	cfg.Storage.MemoryCustomers = []int64{1, 2}
	cfg.JWT.SecretKey = secret
	cfg.Ledger.MaxRetries = 5
	cfg.Ledger.RetryBackoff = time.Millisecond
	cfg.Interest.SavingsRate = 3.5
	cfg.Interest.CurrentRate = 0.5
	cfg.Interest.Workers = 2

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func token(t *testing.T, customerID int64, role model.Role) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, model.AppClaims{
		CustomerID: customerID,
		Role:       string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func amount(s string) map[string]any {
	return map[string]any{"amount": s}
}

func TestPublicRoutes(t *testing.T) {
	a := newTestApp(t)
	anon := client{t: t, handler: a.Handler}

	rr := anon.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"API is healthy and running"}`, rr.Body.String())

	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/accounts", nil).Code)
}

func TestCustomerFlow(t *testing.T) {
	a := newTestApp(t)
	alice := client{t: t, handler: a.Handler, token: token(t, 1, model.RoleCustomer)}
	bob := client{t: t, handler: a.Handler, token: token(t, 2, model.RoleCustomer)}

	// Open one account each.
	rr := alice.do(http.MethodPost, "/api/accounts", map[string]any{"account_type": "SAVINGS", "initial_deposit": "1000.00"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	savings := decode[model.Account](t, rr)
	assert.Equal(t, int64(1), savings.CustomerID)
	assert.True(t, savings.InterestRate.Equal(decimal.RequireFromString("3.50")))

	rr = bob.do(http.MethodPost, "/api/accounts", map[string]any{"account_type": "CURRENT", "customer_id": 1})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	current := decode[model.Account](t, rr)
	assert.Equal(t, int64(2), current.CustomerID, "owner comes from the token, not the body")

	// Bob cannot see Alice's account.
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/api/accounts/"+savings.AccountNumber, nil).Code)

	// Deposit, withdraw and transfer.
	rr = alice.do(http.MethodPost, "/api/accounts/"+savings.AccountNumber+"/deposit", amount("50.00"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	deposit := decode[model.Transaction](t, rr)
	assert.Equal(t, model.TransactionStatusCompleted, deposit.Status)

	rr = alice.do(http.MethodPost, "/api/accounts/"+savings.AccountNumber+"/withdraw", amount("5000.00"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = alice.do(http.MethodPost, "/api/transfers", map[string]any{
		"from_account_number": savings.AccountNumber,
		"to_account_number":   current.AccountNumber,
		"amount":              "250.00",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	transfer := decode[model.Transaction](t, rr)

	// Bob cannot move Alice's money.
	rr = bob.do(http.MethodPost, "/api/transfers", map[string]any{
		"from_account_number": savings.AccountNumber,
		"to_account_number":   current.AccountNumber,
		"amount":              "1.00",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = alice.do(http.MethodGet, "/api/accounts/"+savings.AccountNumber, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[model.Account](t, rr).Balance.Equal(decimal.RequireFromString("800.00")))

	rr = bob.do(http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	bobs := decode[[]model.Account](t, rr)
	require.Len(t, bobs, 1)
	assert.True(t, bobs[0].Balance.Equal(decimal.RequireFromString("250.00")))

	// Both parties see the transfer, listings are newest first.
	assert.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/api/transactions/"+transfer.TransactionID, nil).Code)
	rr = alice.do(http.MethodGet, "/api/accounts/"+savings.AccountNumber+"/transactions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[[]model.Transaction](t, rr)
	require.Len(t, history, 4)
	assert.Equal(t, transfer.TransactionID, history[0].TransactionID)
	assert.Equal(t, model.TransactionStatusFailed, history[1].Status)

	rr = alice.do(http.MethodGet, "/api/accounts/"+savings.AccountNumber+"/transactions?status=failed", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Transaction](t, rr), 1)

	rr = alice.do(http.MethodGet, "/api/accounts/"+savings.AccountNumber+"/transactions?type=refund", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Nothing has accrued yet.
	rr = alice.do(http.MethodPost, "/api/accounts/"+savings.AccountNumber+"/interest/credit", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = alice.do(http.MethodPost, "/api/accounts/"+savings.AccountNumber+"/deposit", amount("0"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminFlow(t *testing.T) {
	a := newTestApp(t)
	alice := client{t: t, handler: a.Handler, token: token(t, 1, model.RoleCustomer)}
	admin := client{t: t, handler: a.Handler, token: token(t, 0, model.RoleAdmin)}

	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodGet, "/api/admin/accounts", nil).Code)

	rr := alice.do(http.MethodPost, "/api/accounts", map[string]any{"account_type": "CURRENT", "initial_deposit": "10.00"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	acc := decode[model.Account](t, rr)

	rr = admin.do(http.MethodGet, "/api/admin/accounts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Account](t, rr), 1)

	rr = admin.do(http.MethodPatch, "/api/admin/accounts/"+acc.AccountNumber+"/interest-rate", map[string]any{"interest_rate": "2.25"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[model.Account](t, rr).InterestRate.Equal(decimal.RequireFromString("2.25")))

	rr = admin.do(http.MethodPatch, "/api/admin/accounts/"+acc.AccountNumber+"/status", map[string]any{"status": "FROZEN"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = alice.do(http.MethodPost, "/api/accounts/"+acc.AccountNumber+"/deposit", amount("1.00"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = admin.do(http.MethodGet, "/api/admin/transactions?customer_id=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Transaction](t, rr), 1)

	rr = admin.do(http.MethodGet, "/api/admin/transactions?account="+acc.AccountNumber+"&type=deposit", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Transaction](t, rr), 1)

	rr = admin.do(http.MethodGet, "/api/admin/transactions?from=2026-02-30", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = admin.do(http.MethodPost, "/api/admin/interest/run", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	report := decode[scheduler.RunReport](t, rr)
	assert.Zero(t, report.Failed)

	rr = admin.do(http.MethodGet, "/api/admin/interest/last-run", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[scheduler.RunReport](t, rr).Started.Equal(report.Started))
}
