package domain

import (
	"errors"
	"net/http"
)

// Ledger error taxonomy. Call sites wrap these with fmt.Errorf("%w: ...") so
// handlers can classify with errors.Is while the message keeps the detail.
var (
	ErrValidation               = errors.New("Invalid input")
	ErrNotFound                 = errors.New("Not found")
	ErrAuthorization            = errors.New("Caller is not authorized")
	ErrSensorNotEligible        = errors.New("Sensor is not eligible")
	ErrProjectNotEligible       = errors.New("Project is not eligible")
	ErrStaleReading             = errors.New("Stale sensor reading")
	ErrInsufficientSupply       = errors.New("Insufficient credits available")
	ErrInsufficientPayment      = errors.New("Insufficient payment")
	ErrInsufficientTokenBalance = errors.New("Insufficient token balance")
	ErrNoFunds                  = errors.New("No funds to withdraw")
	ErrPaymentTransfer          = errors.New("Payment transfer failed")
	ErrPaused                   = errors.New("Platform is paused")
	ErrReentrancy               = errors.New("Reentrant ledger call")
	ErrOverflow                 = errors.New("Arithmetic overflow")
)

var taxonomy = []struct {
	err  error
	kind string
	code int
}{
	{ErrValidation, "validation", http.StatusBadRequest},
	{ErrOverflow, "overflow", http.StatusBadRequest},
	{ErrNotFound, "not_found", http.StatusNotFound},
	{ErrAuthorization, "authorization", http.StatusForbidden},
	{ErrSensorNotEligible, "sensor_not_eligible", http.StatusUnprocessableEntity},
	{ErrProjectNotEligible, "project_not_eligible", http.StatusUnprocessableEntity},
	{ErrStaleReading, "stale_reading", http.StatusConflict},
	{ErrInsufficientSupply, "insufficient_supply", http.StatusConflict},
	{ErrInsufficientPayment, "insufficient_payment", http.StatusPaymentRequired},
	{ErrInsufficientTokenBalance, "insufficient_token_balance", http.StatusConflict},
	{ErrNoFunds, "no_funds", http.StatusConflict},
	{ErrPaymentTransfer, "payment_transfer", http.StatusBadGateway},
	{ErrPaused, "paused", http.StatusServiceUnavailable},
	{ErrReentrancy, "reentrancy", http.StatusConflict},
}

// StatusCode maps a ledger error to the HTTP status the API answers with.
// Errors outside the taxonomy map to 500.
func StatusCode(err error) int {
	for _, e := range taxonomy {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return http.StatusInternalServerError
}

// Kind names the taxonomy entry err belongs to, or "internal".
func Kind(err error) string {
	for _, e := range taxonomy {
		if errors.Is(err, e.err) {
			return e.kind
		}
	}
	return "internal"
}

// IsLedgerError reports whether err belongs to the taxonomy above.
func IsLedgerError(err error) bool {
	return Kind(err) != "internal"
}
