// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"metaview/internal/metadata"
	"metaview/internal/observability"
	"metaview/internal/preprocessors"
)

// MaxFileSize is the default maximum file size the router will process (50 MB).
const MaxFileSize = int64(50 * 1024 * 1024)

// Options configures a FileRouter
type Options struct {
	// AllowedExtensions restricts routing to a subset of the supported
	// extensions. Empty means every supported extension.
	AllowedExtensions []string
	// MaxFileSize in bytes; zero means MaxFileSize.
	MaxFileSize int64
	// StrictContentCheck rejects files whose leading bytes contradict the extension
	StrictContentCheck bool
	// ProcessingTimeout bounds one extraction; zero means the preprocessor default.
	ProcessingTimeout time.Duration
}

// FileRouter handles file routing decisions
type FileRouter struct {
	registry *PreprocessorRegistry
	manager  *preprocessors.PreprocessorManager
	allowed  *preprocessors.FileExtensionValidator
	options  Options
	metrics  *RouterMetrics
	observer *observability.StandardObserver
}

// NewFileRouter creates a router with the default preprocessors registered
// and initialized
func NewFileRouter(options Options, observer *observability.StandardObserver) *FileRouter {
	if options.MaxFileSize <= 0 {
		options.MaxFileSize = MaxFileSize
	}
	if observer == nil {
		observer = observability.NewStandardObserver(observability.ObservabilityOff, os.Stderr)
	}
	fr := &FileRouter{
		registry: NewPreprocessorRegistry(),
		manager:  preprocessors.NewPreprocessorManager(),
		options:  options,
		metrics:  NewRouterMetrics(),
		observer: observer,
	}
	RegisterDefaultPreprocessors(fr)
	fr.InitializePreprocessors()
	return fr
}

// RegisterPreprocessor adds a preprocessor factory to the registry
func (fr *FileRouter) RegisterPreprocessor(name string, factory PreprocessorFactory) {
	fr.registry.Register(name, factory)
}

// InitializePreprocessors creates every registered preprocessor and
// recomputes the allowlist
func (fr *FileRouter) InitializePreprocessors() {
	limits := preprocessors.DefaultResourceLimits()
	limits.MaxFileSize = fr.options.MaxFileSize
	if fr.options.ProcessingTimeout > 0 {
		limits.ProcessingTimeout = fr.options.ProcessingTimeout
	}

	fr.manager = preprocessors.NewPreprocessorManager()
	for _, p := range fr.registry.CreateAll(limits) {
		p.SetObserver(fr.observer)
		fr.manager.RegisterPreprocessor(p)
	}

	supported := preprocessors.NewFileExtensionValidator(fr.manager.SupportedExtensions()...)
	if len(fr.options.AllowedExtensions) == 0 {
		fr.allowed = supported
		return
	}
	var allowed []string
	for _, ext := range fr.options.AllowedExtensions {
		if supported.Allows("f" + preprocessors.NormalizeExtension(ext)) {
			allowed = append(allowed, ext)
		}
	}
	fr.allowed = preprocessors.NewFileExtensionValidator(allowed...)
}

// AllowedExtensions returns the extensions this router accepts
func (fr *FileRouter) AllowedExtensions() []string {
	return fr.allowed.Extensions()
}

// MaxFileSize returns the configured size limit in bytes
func (fr *FileRouter) MaxFileSize() int64 {
	return fr.options.MaxFileSize
}

// CanProcessFile reports whether a file name passes the extension allowlist
func (fr *FileRouter) CanProcessFile(name string) (bool, string) {
	ext := preprocessors.FileExtension(name)
	if ext == "" {
		return false, "File has no extension"
	}
	if !fr.allowed.Allows(name) {
		return false, fmt.Sprintf("Unsupported file format: %s", ext)
	}
	return true, "Supported " + strings.TrimPrefix(ext, ".") + " file"
}

// Route extracts metadata from the file at filePath. displayName is the
// user-facing name (an upload's original name) and decides the format; it
// defaults to the base name of filePath.
func (fr *FileRouter) Route(ctx context.Context, filePath, displayName string) metadata.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if displayName == "" {
		displayName = filepath.Base(filePath)
	}
	displayName = filepath.Base(displayName)

	pc := &ProcessingContext{
		FilePath:    filePath,
		DisplayName: displayName,
		FileExt:     preprocessors.FileExtension(displayName),
		RequestID:   observability.NewRequestID(),
		StartTime:   time.Now(),
	}

	finishTiming := fr.observer.StartTiming("router", "route", displayName)
	result := fr.route(ctx, pc)
	result.Filename = displayName

	details := map[string]interface{}{
		"file_ext":   pc.FileExt,
		"file_size":  pc.FileSize,
		"request_id": pc.RequestID,
	}
	if pc.ContentType != "" {
		details["content_type"] = pc.ContentType
	}
	if result.IsError() {
		details["error"] = result.Message()
		details["error_kind"] = string(result.Kind())
		fr.metrics.RecordError(string(result.Kind()))
	} else {
		details["field_count"] = result.Record.Len()
		fr.metrics.RecordProcessing(result.Format, time.Since(pc.StartTime).Milliseconds())
	}
	finishTiming(!result.IsError(), details)

	return result
}

func (fr *FileRouter) route(ctx context.Context, pc *ProcessingContext) metadata.Result {
	fr.metrics.RecordFileType(pc.FileExt)

	if ok, reason := fr.CanProcessFile(pc.DisplayName); !ok {
		return metadata.Failure(pc.DisplayName, "", metadata.NewExtractionError(
			pc.FilePath, "", metadata.ErrorKindUnsupportedFormat, reason, metadata.ErrUnsupportedFormat))
	}

	p := fr.manager.GetPreprocessor(pc.DisplayName)
	if p == nil {
		return metadata.Failure(pc.DisplayName, "", metadata.NewExtractionError(
			pc.FilePath, "", metadata.ErrorKindUnsupportedFormat, "Unsupported file format: "+pc.FileExt, metadata.ErrUnsupportedFormat))
	}
	format := formatOf(p)

	if err := ctx.Err(); err != nil {
		return metadata.Failure(pc.DisplayName, format, metadata.NewExtractionError(
			pc.FilePath, format, metadata.ErrorKindCancelled, "request cancelled", err))
	}

	info, err := os.Stat(filepath.Clean(pc.FilePath))
	if err != nil {
		return metadata.Failure(pc.DisplayName, format, statError(pc.FilePath, format, err))
	}
	if info.IsDir() {
		return metadata.Failure(pc.DisplayName, format, metadata.NewExtractionError(
			pc.FilePath, format, metadata.ErrorKindUnsupportedFormat, "Path is a directory", metadata.ErrUnsupportedFormat))
	}
	pc.FileSize = info.Size()
	if pc.FileSize > fr.options.MaxFileSize {
		return metadata.Failure(pc.DisplayName, format, metadata.NewExtractionError(
			pc.FilePath, format, metadata.ErrorKindTooLarge,
			fmt.Sprintf("File too large (max: %dMB)", fr.options.MaxFileSize/(1024*1024)), metadata.ErrTooLarge))
	}

	if fr.options.StrictContentCheck {
		content, err := preprocessors.SniffFile(pc.FilePath)
		if err != nil {
			return metadata.Failure(pc.DisplayName, format, statError(pc.FilePath, format, err))
		}
		pc.ContentType = string(content)
		if !preprocessors.ContentMatchesExtension(pc.FileExt, content) {
			return metadata.Failure(pc.DisplayName, format, metadata.NewExtractionError(
				pc.FilePath, format, metadata.ErrorKindCorruptFile,
				fmt.Sprintf("File content (%s) does not match the %s extension", content, pc.FileExt), metadata.ErrCorruptFile))
		}
	}

	if fr.observer.DebugObserver != nil {
		fr.observer.DebugObserver.LogDetail("router",
			fmt.Sprintf("Dispatching %s (%d bytes) to %s", pc.DisplayName, pc.FileSize, p.GetName()))
	}
	return p.Process(ctx, pc.FilePath)
}

// GetMetrics returns current router metrics
func (fr *FileRouter) GetMetrics() *RouterMetrics {
	return fr.metrics
}

// GetPreprocessorCount returns the number of registered preprocessors
func (fr *FileRouter) GetPreprocessorCount() int {
	return len(fr.manager.GetAvailablePreprocessors())
}

// formatOf returns the format identifier of a preprocessor
func formatOf(p preprocessors.Preprocessor) string {
	if f, ok := p.(interface{ Format() string }); ok {
		return f.Format()
	}
	return ""
}

func statError(filePath, format string, err error) *metadata.ExtractionError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return metadata.NewExtractionError(filePath, format, metadata.ErrorKindNotFound, "File not found", err)
	case errors.Is(err, fs.ErrPermission):
		return metadata.NewExtractionError(filePath, format, metadata.ErrorKindPermissionDenied, "Permission denied while reading the file", err)
	}
	return metadata.Wrap(filePath, format, err)
}
