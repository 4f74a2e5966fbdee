// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrorKind classifies why an extraction failed
type ErrorKind string

const (
	ErrorKindUnsupportedFormat ErrorKind = "unsupported_format"
	ErrorKindCorruptFile       ErrorKind = "corrupt_file"
	ErrorKindPermissionDenied  ErrorKind = "permission_denied"
	ErrorKindNotFound          ErrorKind = "not_found"
	ErrorKindTooLarge          ErrorKind = "too_large"
	ErrorKindCancelled         ErrorKind = "cancelled"
	ErrorKindInternal          ErrorKind = "internal"
)

// Title returns the human readable name of the kind
func (k ErrorKind) Title() string {
	switch k {
	case ErrorKindUnsupportedFormat:
		return "Unsupported Format"
	case ErrorKindCorruptFile:
		return "Corrupt File"
	case ErrorKindPermissionDenied:
		return "Permission Denied"
	case ErrorKindNotFound:
		return "Not Found"
	case ErrorKindTooLarge:
		return "Too Large"
	case ErrorKindCancelled:
		return "Cancelled"
	default:
		return "Internal Error"
	}
}

// Sentinel errors that extractors wrap so Classify can recognise them
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptFile       = errors.New("corrupt file")
	ErrTooLarge          = errors.New("file too large")
)

// ExtractionError is the failure side of a Result
type ExtractionError struct {
	Kind    ErrorKind
	Path    string
	Format  string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("metadata extraction failed for %s", e.Path))
	if e.Format != "" {
		parts = append(parts, fmt.Sprintf("format=%s", e.Format))
	}
	parts = append(parts, fmt.Sprintf("kind=%s", e.Kind))
	if e.Message != "" {
		parts = append(parts, fmt.Sprintf("message=%s", e.Message))
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying error
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewExtractionError builds an error with a sanitized message. An empty
// message is taken from cause.
func NewExtractionError(path, format string, kind ErrorKind, message string, cause error) *ExtractionError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &ExtractionError{
		Kind:    kind,
		Path:    path,
		Format:  format,
		Message: Sanitize(message),
		Cause:   cause,
	}
}

// Wrap converts err into an *ExtractionError, classifying it when it is not
// one already.
func Wrap(path, format string, err error) *ExtractionError {
	if err == nil {
		return nil
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		if ee.Path == "" {
			ee.Path = path
		}
		if ee.Format == "" {
			ee.Format = format
		}
		return ee
	}
	return NewExtractionError(path, format, Classify(err), "", err)
}

// Classify maps an arbitrary error onto an ErrorKind
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindInternal
	}

	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCancelled
	case errors.Is(err, fs.ErrNotExist):
		return ErrorKindNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrorKindPermissionDenied
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrorKindUnsupportedFormat
	case errors.Is(err, ErrCorruptFile):
		return ErrorKindCorruptFile
	case errors.Is(err, ErrTooLarge):
		return ErrorKindTooLarge
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "no such file"):
		return ErrorKindNotFound
	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "access is denied"):
		return ErrorKindPermissionDenied
	case strings.Contains(errStr, "unsupported"):
		return ErrorKindUnsupportedFormat
	case strings.Contains(errStr, "too large"), strings.Contains(errStr, "size limit"):
		return ErrorKindTooLarge
	case strings.Contains(errStr, "not a valid"),
		strings.Contains(errStr, "malformed"),
		strings.Contains(errStr, "corrupt"),
		strings.Contains(errStr, "invalid"),
		strings.Contains(errStr, "unexpected eof"),
		strings.Contains(errStr, "not a pdf"):
		return ErrorKindCorruptFile
	}
	return ErrorKindInternal
}

var errorSanitizer = strings.NewReplacer(
	"\n", " ",
	"\r", " ",
	"\t", " ",
	"\x00", " ",
	"\x1b", " ",
)

// Sanitize strips control characters from a message so it is safe to log
// and display.
func Sanitize(message string) string {
	return strings.TrimSpace(errorSanitizer.Replace(message))
}
