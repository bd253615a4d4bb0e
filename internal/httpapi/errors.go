package httpapi

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/routes"
)

// HTTPError is the JSON body of every failed request
type HTTPError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates an HTTPError
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message}
}

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

// fromError maps engine errors onto HTTP statuses
func fromError(err error) *HTTPError {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr
	}
	if stderrors.Is(err, routes.ErrNoCache) {
		return ErrNotFound("route listing not built yet, POST /routes/rebuild first")
	}

	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ConfigurationErrorCode:
		status = http.StatusBadRequest
	case errors.FileSystemErrorCode:
		status = http.StatusNotFound
	case errors.CommandErrorCode:
		status = http.StatusBadGateway
	}

	httpErr = NewHTTPError(status, err.Error())
	var lensErr errors.LensError
	if stderrors.As(err, &lensErr) && len(lensErr.Context()) > 0 {
		httpErr.Details = lensErr.Context()
	}
	return httpErr
}

// errorHandler renders every handler error as an HTTPError body
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var body *HTTPError
	var echoErr *echo.HTTPError
	if stderrors.As(err, &echoErr) {
		body = NewHTTPError(echoErr.Code, fmt.Sprint(echoErr.Message))
	} else {
		body = fromError(err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(body.StatusCode)
		return
	}
	_ = c.JSON(body.StatusCode, body)
}
