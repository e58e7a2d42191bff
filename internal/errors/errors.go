package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryClient   ErrorCategory = "client"
	CategoryServer   ErrorCategory = "server"
	CategoryExternal ErrorCategory = "external"
)

// Common error codes
const (
	// Client errors (4xx)
	CodeValidationError   = "VALIDATION_ERROR"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeDownloadNotFound  = "DOWNLOAD_NOT_FOUND"
	CodePlaylistNotFound  = "PLAYLIST_NOT_FOUND"
	CodeDuplicateDownload = "DUPLICATE_DOWNLOAD"
	CodeUnsupportedSource = "UNSUPPORTED_SOURCE"

	// Server errors (5xx)
	CodeInternalError    = "INTERNAL_ERROR"
	CodePersistenceError = "PERSISTENCE_ERROR"

	// External service errors
	CodeDownloadError  = "DOWNLOAD_ERROR"
	CodeWorkerTimeout  = "WORKER_TIMEOUT"
	CodePlaylistExpand = "PLAYLIST_EXPAND_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Category   ErrorCategory  `json:"-"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// WithCause sets the underlying cause of the error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// ErrorResponse is the JSON structure returned to clients
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// New creates a new AppError
func New(code string, message string, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Category:   category,
		HTTPStatus: httpStatus,
	}
}

// Client error constructors

func BadRequest(message string) *AppError {
	return New(CodeInvalidRequest, message, CategoryClient, http.StatusBadRequest)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message, CategoryClient, http.StatusBadRequest)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), CategoryClient, http.StatusNotFound)
}

func DownloadNotFound() *AppError {
	return New(CodeDownloadNotFound, "download not found", CategoryClient, http.StatusNotFound)
}

func PlaylistNotFound() *AppError {
	return New(CodePlaylistNotFound, "playlist not found", CategoryClient, http.StatusNotFound)
}

// DuplicateDownload signals that an equivalent non-terminal download is
// already queued. The queue treats this as idempotence, not failure; the
// HTTP surface reports it as a conflict so the caller can inform the user.
func DuplicateDownload() *AppError {
	return New(CodeDuplicateDownload, "an equivalent download is already queued", CategoryClient, http.StatusConflict)
}

func UnsupportedSource(source string) *AppError {
	return New(CodeUnsupportedSource, fmt.Sprintf("unsupported source: %s", source), CategoryClient, http.StatusBadRequest)
}

// Server error constructors

func InternalError(message string) *AppError {
	return New(CodeInternalError, message, CategoryServer, http.StatusInternalServerError)
}

func PersistenceError(message string) *AppError {
	return New(CodePersistenceError, message, CategoryServer, http.StatusInternalServerError)
}

// External service error constructors

func DownloadFailed(message string) *AppError {
	return New(CodeDownloadError, message, CategoryExternal, http.StatusBadGateway)
}

func WorkerTimeout() *AppError {
	return New(CodeWorkerTimeout, "worker did not respond in time", CategoryExternal, http.StatusGatewayTimeout)
}

func PlaylistExpandFailed(message string) *AppError {
	return New(CodePlaylistExpand, message, CategoryExternal, http.StatusBadGateway)
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, requestID string, err error) {
	var appErr *AppError

	switch e := err.(type) {
	case *AppError:
		appErr = e
	default:
		appErr = InternalError("an unexpected error occurred").WithCause(err)
	}

	resp := ErrorResponse{
		Error: ErrorBody{
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: requestID,
			Details:   appErr.Details,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set(RequestIDHeader, requestID)
	}
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a JSON response with the request ID header
func WriteJSON(w http.ResponseWriter, requestID string, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set(RequestIDHeader, requestID)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// IsClientError returns true if the error is a client error
func IsClientError(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Category == CategoryClient
}

// IsServerError returns true if the error is a server error
func IsServerError(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Category == CategoryServer
}

// IsExternalError returns true if the error is an external service error
func IsExternalError(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Category == CategoryExternal
}
