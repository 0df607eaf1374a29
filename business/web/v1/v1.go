// Package v1 represents types used by the web application for v1.
package v1

import (
	"errors"

	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// ErrorResponse is the form used for API responses from failures in the API.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RequestError is used to pass an error during the request through the
// application with web specific context.
type RequestError struct {
	Err    error
	Status int
}

// NewRequestError wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewRequestError(err error, status int) error {
	return &RequestError{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *RequestError) Error() string {
	return re.Err.Error()
}

// IsRequestError checks if an error of type RequestError exists.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// GetRequestError returns a copy of the RequestError pointer.
func GetRequestError(err error) *RequestError {
	var re *RequestError
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// RejectedError is used when the ledger refuses a transaction or a block. The
// validation is sent back to the client as the response body.
type RejectedError struct {
	Validation validation.Validation
	Status     int
}

// NewRejectedError wraps a failed validation with an HTTP status code.
func NewRejectedError(v validation.Validation, status int) error {
	return &RejectedError{v, status}
}

// Error implements the error interface.
func (re *RejectedError) Error() string {
	return re.Validation.Message
}

// GetRejectedError returns a copy of the RejectedError pointer.
func GetRejectedError(err error) *RejectedError {
	var re *RejectedError
	if !errors.As(err, &re) {
		return nil
	}
	return re
}
