package handler

import (
	"go-ledger-api/model"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?from=2026-01-01&to=2026-01-31&status=completed&type=transfer&limit=20&offset=40", nil)

	filter, appErr := parseTransactionFilter(req)
	require.Nil(t, appErr)

	require.NotNil(t, filter.From)
	require.NotNil(t, filter.To)
	assert.True(t, filter.From.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, filter.To.Equal(time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC)))
	assert.Equal(t, model.TransactionStatusCompleted, filter.Status)
	assert.Equal(t, model.TransactionTypeTransfer, filter.Type)
	assert.Equal(t, 20, filter.Limit)
	assert.Equal(t, 40, filter.Offset)
}

func TestParseTransactionFilter_RFC3339(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?to=2026-01-31T10:00:00Z", nil)

	filter, appErr := parseTransactionFilter(req)
	require.Nil(t, appErr)
	assert.Nil(t, filter.From)
	assert.True(t, filter.To.Equal(time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)))
}

func TestParseTransactionFilter_Invalid(t *testing.T) {
	for _, query := range []string{"from=yesterday", "to=31/01/2026", "limit=ten", "offset=1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/x?"+query, nil)
		_, appErr := parseTransactionFilter(req)
		require.NotNil(t, appErr, query)
		assert.Equal(t, http.StatusBadRequest, appErr.Code, query)
	}
}
