package common

import (
	"encoding/json"
	"net/http"
	"personal-brand-api/logger"

	"github.com/sirupsen/logrus"
)

// AppError is the error every handler returns. Only Code and Message reach
// the client; Err is logged and never serialised.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// errorBody is the wire shape the frontend reads (response.data.message).
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
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

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, nil)
}

func BadRequest(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

func (e *AppError) Send(w http.ResponseWriter) {
	entry := logger.Log.WithField("status_code", e.Code)
	switch {
	case e.Code >= http.StatusInternalServerError:
		if e.Err != nil {
			entry = entry.WithError(e.Err)
		}
		entry.Error(e.Message)
	case e.Err != nil:
		entry.WithFields(logrus.Fields{"internal_error": e.Err.Error()}).Warn(e.Message)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(errorBody{
		StatusCode: e.Code,
		Message:    e.Message,
		Error:      http.StatusText(e.Code),
	})
}
