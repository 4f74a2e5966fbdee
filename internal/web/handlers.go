// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"metaview/internal/formatters"
	"metaview/internal/version"

	"github.com/labstack/echo/v4"
)

// serveHome renders the empty upload form
func (ws *WebServer) serveHome(c echo.Context) error {
	return ws.render(c, http.StatusOK, ws.newPage())
}

// handleUpload extracts metadata from an uploaded file and renders the
// result page. Extraction failures are shown in the page, not as HTTP errors.
func (ws *WebServer) handleUpload(c echo.Context) error {
	result, staged, cleanup, err := ws.process(c)
	defer cleanup()
	if err != nil {
		return err
	}

	return ws.render(c, http.StatusOK, ws.resultPage(result, ws.previewURL(result, staged)))
}

// handleAPIMetadata extracts metadata and returns it in the requested format
func (ws *WebServer) handleAPIMetadata(c echo.Context) error {
	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	if format == "" {
		format = "json"
	}
	if _, ok := formatters.Get(format); !ok {
		return NewBadRequestError(fmt.Sprintf("unsupported format '%s'", format),
			fmt.Errorf("available formats: %s", strings.Join(formatters.List(), ", ")))
	}

	result, _, cleanup, err := ws.process(c)
	defer cleanup()
	if err != nil {
		return err
	}

	content, mimeType, filename, err := formatters.ExportForWeb(format, result, ws.formatterOptions())
	if err != nil {
		return NewInternalError("Failed to format metadata", err)
	}

	if c.QueryParam("download") == "1" {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}

	status := http.StatusOK
	if result.IsError() {
		status = http.StatusUnprocessableEntity
	}
	return c.Blob(status, mimeType, []byte(content))
}

// handleFormats lists the available output formats
func (ws *WebServer) handleFormats(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"formats": formatters.GetSupportedFormats(),
		"default": "json",
	})
}

// handleHealth reports liveness and build information
func (ws *WebServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "metaview-web",
		"version":    version.Short(),
		"build_info": version.Full(),
		"extensions": ws.router.AllowedExtensions(),
	})
}
