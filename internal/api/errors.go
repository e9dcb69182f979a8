// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/session"
	"github.com/researchmate/webclient/internal/upload"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewInvalidFileTypeError creates a 400 error for a non-DOCX upload
func NewInvalidFileTypeError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "INVALID_FILE_TYPE",
		Message: upload.InvalidTypeAlert,
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewAnalysisFailedError creates a 502 error. The cause is never exposed.
func NewAnalysisFailedError() *APIError {
	return &APIError{
		Status:  http.StatusBadGateway,
		Code:    "ANALYSIS_FAILED",
		Message: session.FailureAlert,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// toAPIError maps domain errors from the upload path onto API errors
func toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, upload.ErrInvalidFileType):
		return NewInvalidFileTypeError()
	case errors.Is(err, upload.ErrNoFile):
		return NewBadRequestError("no file provided", nil)
	case errors.Is(err, upload.ErrInputDisabled), errors.Is(err, session.ErrBusy):
		return NewConflictError(session.ErrBusy.Error())
	case errors.Is(err, session.ErrNotIdle):
		return NewConflictError(session.ErrNotIdle.Error())
	case errors.Is(err, session.ErrAnalysisFailed):
		return NewAnalysisFailedError()
	default:
		return NewInternalError("An unexpected error occurred", nil)
	}
}

// NewErrorHandler returns an echo.HTTPErrorHandler writing APIError JSON.
// Details of unexpected errors are only included when debug is set.
func NewErrorHandler(debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError

		switch e := err.(type) {
		case *APIError:
			apiErr = e
		case *echo.HTTPError:
			apiErr = &APIError{
				Status:  e.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", e.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if debug {
				apiErr.Details = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			c.NoContent(apiErr.Status)
			return
		}
		c.JSON(apiErr.Status, apiErr)
	}
}
