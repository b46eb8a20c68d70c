package routes

import (
	"errors"
	"net/http"

	"tablet-checkout/internal/auth"
	"tablet-checkout/internal/checkout"
	"tablet-checkout/internal/directory"
)

// HTTPError represents an error with an associated HTTP status code and user message
type HTTPError struct {
	Err        error  // The underlying error
	StatusCode int    // HTTP status code
	Message    string // User-friendly message
	Internal   bool   // Whether this is an internal error (hide details from user)
}

// ErrorInfo contains error metadata for user-facing errors
type ErrorInfo struct {
	Message string
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(statusCode int, err error, message string) *HTTPError {
	return &HTTPError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		Internal:   statusCode >= 500,
	}
}

// Routes-specific errors (that don't conflict with other packages)
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginDisabled      = errors.New("admin login is not configured")

	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")

	ErrInternalServer = errors.New("internal server error")
	ErrDatabaseError  = errors.New("database error")
)

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:           http.StatusBadRequest,
	ErrMissingParameter:         http.StatusBadRequest,
	checkout.ErrInvalidAction:   http.StatusBadRequest,
	checkout.ErrMissingIdentity: http.StatusBadRequest,
	directory.ErrPinTooShort:    http.StatusBadRequest,
	directory.ErrMissingFields:  http.StatusBadRequest,

	// 401 Unauthorized
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,
	auth.ErrNonValidToken: http.StatusUnauthorized,
	auth.ErrNotAdmin:      http.StatusUnauthorized,
	directory.ErrWrongPin: http.StatusUnauthorized,

	// 403 Forbidden
	directory.ErrDeactivated: http.StatusForbidden,

	// 404 Not Found
	checkout.ErrTabletNotFound:  http.StatusNotFound,
	checkout.ErrMemberNotFound:  http.StatusNotFound,
	directory.ErrMemberNotFound: http.StatusNotFound,

	// 409 Conflict
	checkout.ErrAlreadyTaken:  http.StatusConflict,
	checkout.ErrNotCheckedOut: http.StatusConflict,
	directory.ErrEmpIDTaken:   http.StatusConflict,

	// 500 Internal Server Error
	ErrInternalServer: http.StatusInternalServerError,
	ErrDatabaseError:  http.StatusInternalServerError,

	// 503 Service Unavailable
	ErrLoginDisabled: http.StatusServiceUnavailable,
}

// errorInfoMap maps errors to user-friendly messages
var errorInfoMap = map[error]ErrorInfo{
	ErrUnauthorized:       {Message: "Authentication required"},
	ErrInvalidCredentials: {Message: "Invalid password"},
	ErrLoginDisabled:      {Message: "Admin login is not configured"},
	auth.ErrNonValidToken: {Message: "Invalid or expired session"},
	auth.ErrNotAdmin:      {Message: "Invalid or expired session"},

	checkout.ErrTabletNotFound:  {Message: "Tablet not found"},
	checkout.ErrMemberNotFound:  {Message: "Member not found"},
	checkout.ErrInvalidAction:   {Message: "Invalid action. Use TAKE or RETURN"},
	checkout.ErrMissingIdentity: {Message: "Member ID required for checkout"},
	checkout.ErrAlreadyTaken:    {Message: "Tablet is already taken"},
	checkout.ErrNotCheckedOut:   {Message: "Tablet is not checked out"},

	directory.ErrMemberNotFound: {Message: "Member not found"},
	directory.ErrDeactivated:    {Message: "Account is deactivated. Contact admin."},
	directory.ErrWrongPin:       {Message: "Incorrect PIN"},
	directory.ErrPinTooShort:    {Message: "PIN must be at least 4 digits"},
	directory.ErrMissingFields:  {Message: "Name, Employee ID, and PIN are required"},
	directory.ErrEmpIDTaken:     {Message: "Employee ID already exists"},

	ErrInvalidRequest:   {Message: "Invalid request format"},
	ErrMissingParameter: {Message: "Required parameter is missing"},

	// Internal errors get a generic message
	ErrInternalServer: {Message: "An internal error occurred"},
	ErrDatabaseError:  {Message: "Database operation failed"},
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	// Typed conflict errors
	var heldErr *directory.HeldTabletError
	if errors.As(err, &heldErr) {
		return http.StatusConflict
	}

	if status, ok := errorStatusMap[err]; ok {
		return status
	}

	// Check if error wraps a known error
	for knownErr, status := range errorStatusMap {
		if errors.Is(err, knownErr) {
			return status
		}
	}

	// Unknown errors are treated as transient storage failures, safe to retry
	return http.StatusInternalServerError
}

// GetErrorInfo returns the user-facing message for an error
func GetErrorInfo(err error) ErrorInfo {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{Message: httpErr.Message}
	}

	// The delete guard message names the held tablet, pass it through
	var heldErr *directory.HeldTabletError
	if errors.As(err, &heldErr) {
		return ErrorInfo{Message: heldErr.Error()}
	}

	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for knownErr, info := range errorInfoMap {
		if errors.Is(err, knownErr) {
			return info
		}
	}

	// For unknown errors, return a generic message for 5xx, specific for others
	status := GetErrorStatus(err)
	if status >= 500 {
		return ErrorInfo{Message: "Server error"}
	}
	return ErrorInfo{Message: err.Error()}
}

// GetErrorMessage returns a user-friendly message for an error
func GetErrorMessage(err error) string {
	return GetErrorInfo(err).Message
}
