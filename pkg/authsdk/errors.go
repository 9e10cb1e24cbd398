package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/till/pkg/httpx"
)

// ============================================================================
// Error Kinds
// ============================================================================

const (
	KindTokenMissing            = "TokenMissing"
	KindTokenInvalid            = "TokenInvalid"
	KindTokenExpired            = "TokenExpired"
	KindUserNotFound            = "UserNotFound"
	KindAccountSuspended        = "AccountSuspended"
	KindInsufficientPermissions = "InsufficientPermissions"
	KindInvalidCredentials      = "InvalidCredentials"
	KindRefreshFailed           = "RefreshFailed"
	KindTokenCreationFailed     = "TokenCreationFailed"
	KindValidationFailed        = "ValidationFailed"

	// Kinds used by the management and password reset routes.
	KindNotFound          = "NotFound"
	KindConflict          = "Conflict"
	KindBadRequest        = "BadRequest"
	KindInvalidReset      = "InvalidResetToken"
	KindRateLimited       = "RateLimited"
	KindServerError       = "ServerError"
	KindLogoutFailed      = "LogoutFailed"
	KindMailUndeliverable = "MailUndeliverable"
)

// Field keys used in the errors map of the envelope.
const (
	FieldToken      = "token"
	FieldUser       = "user"
	FieldPermission = "permission"
	FieldAuth       = "auth"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is a failed response. The server writes it with WriteError and the
// client returns it from every call that receives a non-2xx status.
//
// On the wire it is the usual envelope with success=false. For single kind
// errors the errors map holds {Field: Kind}; validation errors carry one entry
// per offending field in Fields instead.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
	Field      string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

// Is matches another *APIError with the same Kind, so callers can write
// errors.Is(err, authsdk.ErrTokenExpired).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithMessage returns a copy of e carrying msg.
func (e *APIError) WithMessage(msg string) *APIError {
	cp := *e
	cp.Message = msg
	return &cp
}

// WriteError writes the error envelope with e's status code.
func (e *APIError) WriteError(w http.ResponseWriter) {
	errs := e.Fields
	if errs == nil && e.Field != "" {
		errs = map[string]string{e.Field: e.Kind}
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Message: e.Message,
		Errors:  errs,
	})
}

// ValidationError builds a 422 ValidationFailed error from per-field reasons.
func ValidationError(fields map[string]string) *APIError {
	return &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Kind:       KindValidationFailed,
		Message:    "The given data was invalid.",
		Fields:     fields,
	}
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrTokenMissing = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindTokenMissing,
		Message:    "Authorization token not found.",
		Field:      FieldToken,
	}

	ErrTokenInvalid = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindTokenInvalid,
		Message:    "Token is invalid.",
		Field:      FieldToken,
	}

	ErrTokenExpired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindTokenExpired,
		Message:    "Token has expired.",
		Field:      FieldToken,
	}

	ErrUserNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Kind:       KindUserNotFound,
		Message:    "User not found.",
		Field:      FieldUser,
	}

	ErrAccountSuspended = &APIError{
		StatusCode: http.StatusForbidden,
		Kind:       KindAccountSuspended,
		Message:    "Your account has been suspended.",
		Field:      FieldUser,
	}

	ErrInsufficientPermissions = &APIError{
		StatusCode: http.StatusForbidden,
		Kind:       KindInsufficientPermissions,
		Message:    "You do not have permission to perform this action.",
		Field:      FieldPermission,
	}

	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindInvalidCredentials,
		Message:    "Invalid email or password.",
		Field:      FieldAuth,
	}

	ErrRefreshFailed = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindRefreshFailed,
		Message:    "Token could not be refreshed.",
		Field:      FieldToken,
	}

	ErrLogoutFailed = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       KindLogoutFailed,
		Message:    "Failed to log out.",
		Field:      FieldToken,
	}

	ErrTokenCreationFailed = &APIError{
		StatusCode: http.StatusInternalServerError,
		Kind:       KindTokenCreationFailed,
		Message:    "Could not create token.",
		Field:      FieldToken,
	}

	ErrInvalidResetToken = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       KindInvalidReset,
		Message:    "This password reset token is invalid or has expired.",
		Field:      "token",
	}

	ErrMailUndeliverable = &APIError{
		StatusCode: http.StatusInternalServerError,
		Kind:       KindMailUndeliverable,
		Message:    "Unable to send the password reset link.",
		Field:      "email",
	}

	ErrBadRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       KindBadRequest,
		Message:    "The request body is malformed.",
		Field:      "body",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Kind:       KindNotFound,
		Message:    "Resource not found.",
		Field:      "id",
	}

	ErrConflict = &APIError{
		StatusCode: http.StatusConflict,
		Kind:       KindConflict,
		Message:    "Resource already exists.",
		Field:      "name",
	}

	ErrRateLimited = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Kind:       KindRateLimited,
		Message:    "Too many requests. Please try again later.",
		Field:      FieldAuth,
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Kind:       KindServerError,
		Message:    "Internal server error.",
		Field:      "server",
	}
)

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx envelope into an *APIError. It returns
// nil for success statuses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Kind:       KindServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apiErr
	}
	if env.Message != "" {
		apiErr.Message = env.Message
	}

	if resp.StatusCode == http.StatusUnprocessableEntity {
		apiErr.Kind = KindValidationFailed
		apiErr.Fields = env.Errors
		return apiErr
	}

	// Single kind errors carry exactly one {field: kind} entry.
	for field, kind := range env.Errors {
		apiErr.Field = field
		apiErr.Kind = kind
		break
	}
	return apiErr
}
