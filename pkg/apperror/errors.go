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

// ---- Validation (VAL) ----

// Validation returns a VAL_001 error for malformed or missing input.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email is already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrNoActiveChallenge() *AppError {
	return New("AUTH_004", "No active challenge for this wallet", http.StatusUnauthorized)
}

func ErrChallengeExpired() *AppError {
	return New("AUTH_005", "Challenge has expired", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("AUTH_006", "Signature verification failed", http.StatusUnauthorized)
}

func ErrIdentityConflict() *AppError {
	return New("AUTH_007", "Wallet is bound to a different identity", http.StatusConflict)
}

// ---- Batch Lifecycle (BATCH) ----

func ErrBatchNotFound() *AppError {
	return New("BATCH_001", "Batch not found", http.StatusNotFound)
}

func ErrRoleMismatch() *AppError {
	return New("BATCH_002", "Role is not allowed to perform this transition", http.StatusForbidden)
}

func ErrAlreadyTransitioned() *AppError {
	return New("BATCH_003", "Batch is not in the expected state", http.StatusConflict)
}

// ---- Ledger (LEDGER) ----

func ErrDuplicateShipment() *AppError {
	return New("LEDGER_001", "Shipment already recorded for this batch and consumer", http.StatusConflict)
}

func ErrDuplicateReview() *AppError {
	return New("LEDGER_002", "Review already submitted for this batch", http.StatusConflict)
}

func ErrNotEntitled() *AppError {
	return New("LEDGER_003", "No shipment entitles this consumer to review the batch", http.StatusForbidden)
}

func ErrInvalidRating() *AppError {
	return New("LEDGER_004", "Rating must be between 1 and 5", http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrChallengeStoreError(err error) *AppError {
	return Wrap("SYS_002", "Challenge store failure", http.StatusServiceUnavailable, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
