package handler

import (
	"go-ledger-api/common"
	"go-ledger-api/model"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseTransactionFilter reads from, to, status, type, limit and offset from the
// query string. Dates may be RFC 3339 timestamps or plain dates; a plain "to"
// date covers that whole day.
func parseTransactionFilter(r *http.Request) (model.TransactionFilter, *common.AppError) {
	q := r.URL.Query()
	var filter model.TransactionFilter

	if v := q.Get("from"); v != "" {
		t, err := parseTime(v, false)
		if err != nil {
			return filter, common.NewAppError(http.StatusBadRequest, "Invalid 'from' parameter", err)
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseTime(v, true)
		if err != nil {
			return filter, common.NewAppError(http.StatusBadRequest, "Invalid 'to' parameter", err)
		}
		filter.To = &t
	}
	if v := q.Get("status"); v != "" {
		filter.Status = model.TransactionStatus(strings.ToUpper(v))
	}
	if v := q.Get("type"); v != "" {
		filter.Type = model.TransactionType(strings.ToUpper(v))
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		return filter, common.NewAppError(http.StatusBadRequest, "Invalid 'limit' parameter", err)
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		return filter, common.NewAppError(http.StatusBadRequest, "Invalid 'offset' parameter", err)
	}
	return filter, nil
}

func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
