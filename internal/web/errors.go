// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
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

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
		Details: reason,
	}
}

// NewTooLargeError creates a 413 error for uploads over the body limit
func NewTooLargeError(limitBytes int64) *APIError {
	return &APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "TOO_LARGE",
		Message: fmt.Sprintf("File exceeds the maximum allowed size of %d MB", limitBytes/(1024*1024)),
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

// toAPIError converts any handler error into an APIError
func (ws *WebServer) toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code == http.StatusRequestEntityTooLarge {
			return NewTooLargeError(ws.settings.MaxFileSizeBytes())
		}
		return &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	}

	apiErr = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "UNKNOWN_ERROR",
		Message: "An unexpected error occurred",
	}
	if ws.settings.Debug {
		apiErr.Details = err.Error()
	}
	return apiErr
}

// errorHandler is the echo HTTPErrorHandler. API routes get JSON, page
// routes get the upload page with an error banner.
func (ws *WebServer) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := ws.toAPIError(err)

	entry := ws.logger.WithFields(logrus.Fields{
		"status": apiErr.Status,
		"code":   apiErr.Code,
		"path":   c.Request().URL.Path,
	})
	if apiErr.Status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.Warn(apiErr.Message)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}

	if wantsJSON(c) {
		_ = c.JSON(apiErr.Status, apiErr)
		return
	}

	page := ws.newPage()
	page.Error = apiErr.Message
	if err := ws.render(c, apiErr.Status, page); err != nil {
		ws.logger.WithError(err).Error("failed to render error page")
	}
}

// wantsJSON reports whether the client should get a JSON error body
func wantsJSON(c echo.Context) bool {
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/") || path == "/health" {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
