package handler

import (
	"go-ledger-api/model"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key any, customerID int64, role model.Role, expires time.Time) string {
	t.Helper()
	claims := model.AppClaims{
		CustomerID: customerID,
		Role:       string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

// echoCaller writes the caller id seen by the downstream handler.
var echoCaller = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, appErr := callerID(r)
	if appErr != nil {
		appErr.Send(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"customer_id": id})
})

func TestAuthMiddleware(t *testing.T) {
	hour := time.Now().Add(time.Hour)
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), 5, model.RoleCustomer, hour), http.StatusUnauthorized},
		{"wrong algorithm", "Bearer " + signToken(t, jwt.SigningMethodHS512, testSecret, 5, model.RoleCustomer, hour), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, 5, model.RoleCustomer, time.Now().Add(-time.Minute)), http.StatusUnauthorized},
		{"no customer", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, 0, model.RoleCustomer, hour), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, 5, model.RoleCustomer, hour), http.StatusOK},
	}

	h := AuthMiddleware(testSecret)(echoCaller)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestAuthMiddleware_PassesCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret, 42, model.RoleCustomer, time.Now().Add(time.Hour)))
	rr := httptest.NewRecorder()

	AuthMiddleware(testSecret)(echoCaller).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"customer_id":42}`, rr.Body.String())
}

func TestAdminMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := AuthMiddleware(testSecret)(AdminMiddleware(ok))
	hour := time.Now().Add(time.Hour)

	for role, status := range map[model.Role]int{
		model.RoleAdmin:    http.StatusNoContent,
		model.RoleCustomer: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret, 1, role, hour))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, status, rr.Code, role)
	}
}
