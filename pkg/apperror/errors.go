package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Logic (LED) ----

func ErrInsufficientBalance() *AppError {
	return New("LED_001", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrAmountTooSmall() *AppError {
	return New("LED_002", "Amount after fee is too small", http.StatusBadRequest)
}

func ErrAlreadyProcessed() *AppError {
	return New("LED_003", "Request is already processed or being processed", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidAmount() *AppError {
	return New("LED_005", "Invalid amount", http.StatusBadRequest)
}

func ErrNoPayoutDestination() *AppError {
	return New("LED_006", "No payout destination configured", http.StatusBadRequest)
}

func ErrDuplicateReference() *AppError {
	return New("LED_007", "Payment reference already credited", http.StatusConflict)
}

// ---- Gateway (GWY) ----

func ErrGatewayFailure(err error) *AppError {
	return Wrap("GWY_001", "Payout gateway failure, held amount restored", http.StatusBadGateway, err)
}

// ---- Security & Authentication (SEC/AUTH) ----

func ErrInvalidSignature() *AppError {
	return New("SEC_001", "Invalid webhook signature", http.StatusUnauthorized)
}

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrNotAnApprover() *AppError {
	return New("AUTH_003", "Account is not a registered approver", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrApproverCooldown() *AppError {
	return New("RATE_001", "Wait before acting on another request", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// ErrStorageFailure wraps a failed unit of work. The storage transaction is
// rolled back; the operation aborts but the process keeps running.
func ErrStorageFailure(err error) *AppError {
	return Wrap("SYS_001", "Storage failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_005-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("LED_005", message, http.StatusBadRequest)
}
