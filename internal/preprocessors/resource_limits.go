// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"
	"fmt"
	"os"
	"time"

	"metaview/internal/metadata"
)

// ResourceLimits defines limits for metadata extraction
type ResourceLimits struct {
	MaxFileSize       int64         // Maximum file size in bytes
	ProcessingTimeout time.Duration // Maximum processing time per file
}

// DefaultResourceLimits returns the default resource limits
func DefaultResourceLimits() *ResourceLimits {
	return &ResourceLimits{
		MaxFileSize:       50 * 1024 * 1024, // 50MB
		ProcessingTimeout: 30 * time.Second,
	}
}

// ResourceManager enforces resource limits for one preprocessor
type ResourceManager struct {
	limits *ResourceLimits
}

// NewResourceManagerWithLimits creates a new resource manager with custom limits
func NewResourceManagerWithLimits(limits *ResourceLimits) *ResourceManager {
	if limits == nil {
		limits = DefaultResourceLimits()
	}
	return &ResourceManager{
		limits: limits,
	}
}

// ValidateFileSize checks if the file size is within limits
func (rm *ResourceManager) ValidateFileSize(filePath string) error {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	if rm.limits.MaxFileSize > 0 && fileInfo.Size() > rm.limits.MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max %d bytes)", metadata.ErrTooLarge, fileInfo.Size(), rm.limits.MaxFileSize)
	}
	return nil
}

// CreateProcessingContext derives a context bounded by the processing timeout
func (rm *ResourceManager) CreateProcessingContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if rm.limits.ProcessingTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, rm.limits.ProcessingTimeout)
}

