package domain

import "errors"

var (
	ErrValidation             = errors.New("validation failed")
	ErrAuth                   = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrUserInactive           = errors.New("user is not active")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrGateway                = errors.New("payment gateway failure")
	ErrGatewayTimeout         = errors.New("payment gateway timeout")
	ErrReconciliationNotFound = errors.New("no transaction matches notification")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrStore                  = errors.New("store failure")
)

// GatewayTimeoutError is an unknown payout/charge outcome; it matches both
// ErrGatewayTimeout and ErrGateway.
type GatewayTimeoutError struct {
	Op  string
	Err error
}

func (e *GatewayTimeoutError) Error() string {
	return e.Op + ": " + ErrGatewayTimeout.Error() + ": " + e.Err.Error()
}

func (e *GatewayTimeoutError) Unwrap() []error {
	return []error{ErrGatewayTimeout, ErrGateway, e.Err}
}
