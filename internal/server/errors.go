package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError creates a new APIError with the given parameters
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

var (
	ErrNotReady       = NewAPIError(http.StatusServiceUnavailable, "NOT_READY", "Seasonality data is still being computed")
	ErrPeriodNotFound = NewAPIError(http.StatusNotFound, "PERIOD_NOT_FOUND", "No report for this lookback period")
	ErrInvalidPeriod  = NewAPIError(http.StatusBadRequest, "INVALID_PERIOD", "Lookback period must be a positive number of years")
	ErrInvalidMonth   = NewAPIError(http.StatusBadRequest, "INVALID_MONTH", "Month must be one of Jan..Dec")
	ErrExportFailed   = NewAPIError(http.StatusInternalServerError, "EXPORT_FAILED", "Workbook could not be generated")
)

func renderError(w http.ResponseWriter, r *http.Request, e *APIError) {
	if err := render.Render(w, r, e); err != nil {
		http.Error(w, e.Message, e.StatusCode)
	}
}
