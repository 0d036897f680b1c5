package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"

	// Claim errors
	ErrCodeAlreadyClaimed ErrorCode = "ALREADY_CLAIMED"
	ErrCodeClaimNotFound  ErrorCode = "CLAIM_NOT_FOUND"

	// Task verification errors
	ErrCodeTaskLocked         ErrorCode = "TASK_LOCKED"
	ErrCodeTaskNotFound       ErrorCode = "TASK_NOT_FOUND"
	ErrCodeRemoteVerification ErrorCode = "REMOTE_VERIFICATION_FAILED"

	// Notification delivery errors
	ErrCodeDeliveryTimeout      ErrorCode = "DELIVERY_TIMEOUT"
	ErrCodeDeliveryRejected     ErrorCode = "DELIVERY_REJECTED"
	ErrCodeTotalDeliveryFailure ErrorCode = "TOTAL_DELIVERY_FAILURE"

	// Payment errors
	ErrCodePaymentUnconfirmed ErrorCode = "PAYMENT_UNCONFIRMED"

	// Storage errors
	ErrCodeStorageError ErrorCode = "STORAGE_ERROR"
)

// AppError is a typed application error carrying a code, optional details
// and the wrapped cause.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Stack     []string               `json:"stack,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsValidation reports whether the error is a user-input validation error.
// Validation errors are never retried automatically.
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeBadRequest
}

// IsRetryable reports whether the user may simply retry the same action.
func (e *AppError) IsRetryable() bool {
	return e.Code == ErrCodeRemoteVerification || e.Code == ErrCodePaymentUnconfirmed
}

// IsUserFacing reports whether the error is an expected, recoverable
// condition rather than a system fault.
func (e *AppError) IsUserFacing() bool {
	return e.IsValidation() ||
		e.Code == ErrCodeAlreadyClaimed ||
		e.Code == ErrCodeClaimNotFound ||
		e.Code == ErrCodeTaskLocked ||
		e.Code == ErrCodeTaskNotFound ||
		e.Code == ErrCodeRemoteVerification
}

// IsInternal reports whether the error should be logged as a system fault.
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeStorageError ||
		e.Code == ErrCodeTotalDeliveryFailure
}

// WithDetail attaches a detail value to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRequestID attaches the request id to the error.
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

// Constructors for common cases

// NewValidationError creates a validation error for a single input field.
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewAlreadyClaimedError creates the duplicate-claim error. It is a
// recoverable, user-facing condition, not a system fault.
func NewAlreadyClaimedError(wallet string) *AppError {
	return New(ErrCodeAlreadyClaimed, fmt.Sprintf("Wallet %s has already claimed the airdrop", wallet)).
		WithDetail("wallet_address", wallet)
}

// NewTaskLockedError creates the out-of-order verification error.
func NewTaskLockedError(taskID string) *AppError {
	return New(ErrCodeTaskLocked, fmt.Sprintf("Task %s is locked: complete the previous task first", taskID)).
		WithDetail("task_id", taskID)
}

// NewTaskNotFoundError creates the unknown-task error.
func NewTaskNotFoundError(taskID string) *AppError {
	return New(ErrCodeTaskNotFound, fmt.Sprintf("Unknown task: %s", taskID)).
		WithDetail("task_id", taskID)
}

// NewRemoteVerificationError wraps a failed or timed-out remote check.
// Distinct from validation: the user may retry without changing input.
func NewRemoteVerificationError(taskID string, err error) *AppError {
	return Wrap(err, ErrCodeRemoteVerification, fmt.Sprintf("Verification service failed for task %s, please try again", taskID)).
		WithDetail("task_id", taskID)
}

// NewClaimNotFoundError creates the missing-claim lookup error.
func NewClaimNotFoundError(wallet string) *AppError {
	return New(ErrCodeClaimNotFound, fmt.Sprintf("No claim found for wallet %s", wallet)).
		WithDetail("wallet_address", wallet)
}

// NewStorageError wraps a failed store operation.
func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorageError, fmt.Sprintf("Store operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewUnauthorizedError creates an authorization error.
func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

// AsAppError extracts an AppError from err.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
