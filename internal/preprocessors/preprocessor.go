// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"

	"metaview/internal/metadata"
	"metaview/internal/observability"
)

// Preprocessor interface defines methods for extracting metadata from files
type Preprocessor interface {
	// CanProcess checks if this preprocessor can handle the given file
	CanProcess(filePath string) bool

	// Process extracts metadata from the file. It never panics; failures are
	// reported through the returned Result.
	Process(ctx context.Context, filePath string) metadata.Result

	// GetName returns the name of this preprocessor
	GetName() string

	// GetSupportedExtensions returns the file extensions this preprocessor supports
	GetSupportedExtensions() []string

	// SetObserver sets the observability component
	SetObserver(observer *observability.StandardObserver)
}

// PreprocessorManager manages all available preprocessors
type PreprocessorManager struct {
	preprocessors []Preprocessor
}

// NewPreprocessorManager creates a new preprocessor manager
func NewPreprocessorManager() *PreprocessorManager {
	return &PreprocessorManager{
		preprocessors: make([]Preprocessor, 0),
	}
}

// NewDefaultPreprocessorManager registers the image, PDF, DOCX and DOC
// preprocessors with the given limits
func NewDefaultPreprocessorManager(limits *ResourceLimits) *PreprocessorManager {
	pm := NewPreprocessorManager()
	pm.RegisterPreprocessor(NewImageMetadataPreprocessor(limits))
	pm.RegisterPreprocessor(NewPDFMetadataPreprocessor(limits))
	pm.RegisterPreprocessor(NewOfficeMetadataPreprocessor(limits))
	pm.RegisterPreprocessor(NewLegacyOfficeMetadataPreprocessor(limits))
	return pm
}

// RegisterPreprocessor adds a preprocessor to the manager
func (pm *PreprocessorManager) RegisterPreprocessor(p Preprocessor) {
	pm.preprocessors = append(pm.preprocessors, p)
}

// GetPreprocessor returns the appropriate preprocessor for a file, or nil if none found
func (pm *PreprocessorManager) GetPreprocessor(filePath string) Preprocessor {
	for _, p := range pm.preprocessors {
		if p.CanProcess(filePath) {
			return p
		}
	}
	return nil
}

// GetAvailablePreprocessors returns all registered preprocessors
func (pm *PreprocessorManager) GetAvailablePreprocessors() []Preprocessor {
	return pm.preprocessors
}

// SupportedExtensions returns every extension handled by a registered preprocessor
func (pm *PreprocessorManager) SupportedExtensions() []string {
	var all []string
	for _, p := range pm.preprocessors {
		all = append(all, p.GetSupportedExtensions()...)
	}
	return NewFileExtensionValidator(all...).Extensions()
}

// SetObserver propagates the observer to every registered preprocessor
func (pm *PreprocessorManager) SetObserver(observer *observability.StandardObserver) {
	for _, p := range pm.preprocessors {
		p.SetObserver(observer)
	}
}
