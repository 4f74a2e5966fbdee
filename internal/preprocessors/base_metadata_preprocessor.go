// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"
	"fmt"
	"path/filepath"

	"metaview/internal/geo"
	"metaview/internal/metadata"
	"metaview/internal/observability"
)

// extraction is the outcome of one extractor call
type extraction struct {
	record   *metadata.Record
	location *geo.Coordinates
	err      error
}

// extractFunc runs a format-specific extractor
type extractFunc func() extraction

// BaseMetadataPreprocessor provides common functionality for all specialized metadata preprocessors
type BaseMetadataPreprocessor struct {
	name            string
	format          string
	observer        *observability.StandardObserver
	extensions      *FileExtensionValidator
	resourceManager *ResourceManager
}

// NewBaseMetadataPreprocessor creates a new base metadata preprocessor
func NewBaseMetadataPreprocessor(name, format string, limits *ResourceLimits, extensions ...string) *BaseMetadataPreprocessor {
	return &BaseMetadataPreprocessor{
		name:            name,
		format:          format,
		extensions:      NewFileExtensionValidator(extensions...),
		resourceManager: NewResourceManagerWithLimits(limits),
	}
}

// GetName returns the name of this preprocessor
func (bmp *BaseMetadataPreprocessor) GetName() string {
	return bmp.name
}

// Format returns the format identifier reported on results
func (bmp *BaseMetadataPreprocessor) Format() string {
	return bmp.format
}

// CanProcess checks the file extension against the supported set
func (bmp *BaseMetadataPreprocessor) CanProcess(filePath string) bool {
	return bmp.extensions.Allows(filePath)
}

// GetSupportedExtensions returns the file extensions this preprocessor supports
func (bmp *BaseMetadataPreprocessor) GetSupportedExtensions() []string {
	return bmp.extensions.Extensions()
}

// SetObserver sets the observability component
func (bmp *BaseMetadataPreprocessor) SetObserver(observer *observability.StandardObserver) {
	bmp.observer = observer
}

// LogDebugInfo logs debug information if observer is available
func (bmp *BaseMetadataPreprocessor) LogDebugInfo(message string) {
	if bmp.observer != nil && bmp.observer.DebugObserver != nil {
		bmp.observer.DebugObserver.LogDetail(bmp.name, message)
	}
}

// run executes extract under the processing timeout and turns its outcome
// into a Result. Extractor panics become CorruptFile failures.
func (bmp *BaseMetadataPreprocessor) run(ctx context.Context, filePath string, extract extractFunc) metadata.Result {
	filename := filepath.Base(filePath)
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return metadata.Failure(filename, bmp.format, handleContextError(err, filePath, bmp.format))
	}

	if err := bmp.resourceManager.ValidateFileSize(filePath); err != nil {
		return metadata.Failure(filename, bmp.format, classifyFailure(filePath, bmp.format, err))
	}

	var finishStep func(bool, string)
	if bmp.observer != nil && bmp.observer.DebugObserver != nil {
		finishStep = bmp.observer.DebugObserver.StartStep(bmp.name, "extract", filePath)
	}

	procCtx, cancel := bmp.resourceManager.CreateProcessingContext(ctx)
	defer cancel()

	resultChan := make(chan extraction, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- extraction{err: fmt.Errorf("%w: extractor panic: %v", metadata.ErrCorruptFile, r)}
			}
		}()
		resultChan <- extract()
	}()

	var res extraction
	select {
	case res = <-resultChan:
	case <-procCtx.Done():
		ee := handleContextError(procCtx.Err(), filePath, bmp.format)
		if finishStep != nil {
			finishStep(false, ee.Message)
		}
		return metadata.Failure(filename, bmp.format, ee)
	}

	if res.err != nil {
		ee := classifyFailure(filePath, bmp.format, res.err)
		if finishStep != nil {
			finishStep(false, string(ee.Kind))
		}
		return metadata.Failure(filename, bmp.format, ee)
	}

	if finishStep != nil {
		finishStep(true, fmt.Sprintf("%d fields", res.record.Len()))
	}
	return metadata.Success(filename, bmp.format, res.record, res.location)
}
