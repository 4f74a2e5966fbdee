// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"metaview/internal/metadata"
	"metaview/internal/preprocessors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// uploadField is the multipart field holding the file
const uploadField = "file"

// stagedUpload is an uploaded file written to the temp directory
type stagedUpload struct {
	Path        string
	DisplayName string
	Size        int64
}

// Remove deletes the staged file
func (s *stagedUpload) Remove() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// stageUpload copies the multipart file into a uniquely named temp file.
// The caller must call Remove on the returned upload.
func (ws *WebServer) stageUpload(c echo.Context) (*stagedUpload, error) {
	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, NewValidationError(uploadField, "no file uploaded")
	}

	displayName := sanitizeFilename(fileHeader.Filename)
	if displayName == "" {
		return nil, NewValidationError(uploadField, "file name is empty")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, NewBadRequestError("Failed to read the uploaded file", err)
	}
	defer src.Close()

	// The extension is kept so the staged file is recognisable on disk
	stagedPath := filepath.Join(ws.tempDir, "upload-"+uuid.NewString()+preprocessors.FileExtension(displayName))
	dst, err := os.OpenFile(stagedPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, NewInternalError("Failed to stage the uploaded file", err)
	}

	staged := &stagedUpload{Path: stagedPath, DisplayName: displayName}
	size, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		_ = staged.Remove()
		return nil, NewInternalError("Failed to stage the uploaded file", errors.Join(copyErr, closeErr))
	}
	staged.Size = size

	ws.logger.WithFields(logrus.Fields{
		"file":       displayName,
		"size":       size,
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}).Debug("upload staged")

	return staged, nil
}

// process stages and routes one upload. The caller defers cleanup.
func (ws *WebServer) process(c echo.Context) (metadata.Result, *stagedUpload, func(), error) {
	staged, err := ws.stageUpload(c)
	if err != nil {
		return metadata.Result{}, nil, func() {}, err
	}
	cleanup := func() {
		if err := staged.Remove(); err != nil {
			ws.logger.WithError(err).WithField("path", staged.Path).Warn("failed to remove staged upload")
		}
	}

	result := ws.router.Route(c.Request().Context(), staged.Path, staged.DisplayName)

	entry := ws.logger.WithFields(logrus.Fields{
		"file":       staged.DisplayName,
		"format":     result.Format,
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	})
	if result.IsError() {
		entry.WithField("error_kind", result.Kind()).Info("extraction failed")
	} else {
		entry.WithField("fields", result.Record.Len()).Info("metadata extracted")
	}
	return result, staged, cleanup, nil
}

// previewURL returns a data URI for a successfully read image, or "" when
// the file is not an image or exceeds the preview cap
func (ws *WebServer) previewURL(result metadata.Result, staged *stagedUpload) template.URL {
	if result.IsError() || result.Format != "image" {
		return ""
	}
	limit := ws.web.MaxPreviewKB * 1024
	if limit <= 0 || staged.Size > limit {
		return ""
	}

	var mime string
	switch content, _ := preprocessors.SniffFile(staged.Path); content {
	case preprocessors.ContentJPEG:
		mime = "image/jpeg"
	case preprocessors.ContentPNG:
		mime = "image/png"
	default:
		return ""
	}

	data, err := os.ReadFile(staged.Path)
	if err != nil {
		ws.logger.WithError(err).Debug("preview skipped")
		return ""
	}
	// #nosec G203 - the MIME type comes from sniffing and the payload is base64
	return template.URL(fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)))
}

// sanitizeFilename reduces a client-supplied name to its base name without
// control characters
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	if len(name) > 255 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = strings.ToValidUTF8(name[:255-len(ext)], "") + ext
	}
	return name
}
