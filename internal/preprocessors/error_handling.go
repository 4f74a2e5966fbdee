// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"
	"errors"

	"metaview/internal/metadata"
)

// handleContextError converts a context failure into an extraction error
func handleContextError(err error, filePath, format string) *metadata.ExtractionError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return metadata.NewExtractionError(filePath, format, metadata.ErrorKindCancelled,
			"metadata extraction timed out", err)
	case errors.Is(err, context.Canceled):
		return metadata.NewExtractionError(filePath, format, metadata.ErrorKindCancelled,
			"metadata extraction was cancelled", err)
	default:
		return metadata.NewExtractionError(filePath, format, metadata.ErrorKindInternal,
			"metadata extraction context error", err)
	}
}

// userMessage returns the text shown for a failure of the given kind. Corrupt
// files keep the extractor's own wording since it names what was wrong.
func userMessage(kind metadata.ErrorKind, format string, err error) string {
	switch kind {
	case metadata.ErrorKindNotFound:
		return "File not found"
	case metadata.ErrorKindPermissionDenied:
		return "Permission denied while reading the file"
	case metadata.ErrorKindTooLarge:
		return "File exceeds the maximum allowed size"
	case metadata.ErrorKindUnsupportedFormat:
		return "Unsupported file format"
	}
	var ee *metadata.ExtractionError
	if errors.As(err, &ee) && ee.Message != "" {
		return ee.Message
	}
	return "Failed to extract " + format + " metadata: " + metadata.Sanitize(err.Error())
}

// classifyFailure wraps err into an extraction error with a display message
func classifyFailure(filePath, format string, err error) *metadata.ExtractionError {
	var ee *metadata.ExtractionError
	if errors.As(err, &ee) {
		return metadata.Wrap(filePath, format, err)
	}
	kind := metadata.Classify(err)
	return metadata.NewExtractionError(filePath, format, kind, userMessage(kind, format, err), err)
}
