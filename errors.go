package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidSignature is returned when a bearer token fails signature
// verification or cannot be parsed. Callers treat it as unauthenticated,
// never as a distinct client-visible error.
var ErrInvalidSignature = errors.New("invalid token signature", errors.CategoryAuth).
	WithTextCode("INVALID_SIGNATURE").
	WithCode(errors.CodeUnauthorized)

// ErrResetTokenInvalid covers a wrong token, an already redeemed token, and
// an expired token. The three causes are indistinguishable to the caller.
var ErrResetTokenInvalid = errors.New("invalid or expired password reset token", errors.CategoryNotFound).
	WithTextCode("RESET_TOKEN_INVALID").
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when credentials do not verify
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty input where a value is required
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryBadInput)

// ErrDuplicatedEmail is the uniqueness violation surfaced by registration.
// Unlike the reset path this one deliberately reveals that the email exists.
var ErrDuplicatedEmail = errors.New("email already exists", errors.CategoryConflict).
	WithTextCode("DUPLICATED_EMAIL").
	WithCode(errors.CodeConflict)

// FieldError describes a single user-correctable validation failure.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
	Value any    `json:"value,omitempty"`
}

// NewValidationError builds a validation error carrying per field messages.
func NewValidationError(fields []FieldError) *errors.Error {
	return errors.New("validation failed", errors.CategoryValidation).
		WithTextCode("VALIDATION_ERROR").
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}

// FieldErrorsFromError extracts the field error list from a validation error.
func FieldErrorsFromError(err error) ([]FieldError, bool) {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return nil, false
	}
	fields, ok := richErr.Metadata["fields"].([]FieldError)
	return fields, ok
}

// IsValidationError checks for locally recoverable field level failures
func IsValidationError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryValidation
}

// IsConflictError checks for duplicate unique key failures
func IsConflictError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryConflict
}

// IsDuplicateKeyError detects store level unique constraint violations
// without matching on storage engine specific codes at call sites.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	if IsConflictError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
