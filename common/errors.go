package common

import (
	"encoding/json"
	"errors"
	"go-ledger-api/logger"
	"net/http"

	"github.com/sirupsen/logrus"
)

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// FromError maps a ledger error to a response. fallback is used as the message
// for infrastructure failures so driver details never reach the client.
func FromError(err error, fallback string) *AppError {
	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ErrAccountNotActive):
		return NewAppError(http.StatusUnprocessableEntity, err.Error(), err)
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrInsufficientFunds):
		return NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, ErrConcurrencyConflict), errors.Is(err, ErrDuplicateResource):
		return NewAppError(http.StatusConflict, err.Error(), err)
	default:
		return NewAppError(http.StatusInternalServerError, fallback, err)
	}
}

func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		entry := logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		})
		if e.Code >= http.StatusInternalServerError {
			entry.Error(e.Message)
		} else {
			entry.Info(e.Message)
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e)
}
