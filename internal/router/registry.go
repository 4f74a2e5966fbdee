// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"sort"

	"metaview/internal/preprocessors"
)

// PreprocessorFactory creates preprocessors with given resource limits
type PreprocessorFactory func(limits *preprocessors.ResourceLimits) preprocessors.Preprocessor

// PreprocessorRegistry manages preprocessor registration and creation
type PreprocessorRegistry struct {
	factories map[string]PreprocessorFactory
}

// NewPreprocessorRegistry creates a new preprocessor registry
func NewPreprocessorRegistry() *PreprocessorRegistry {
	return &PreprocessorRegistry{
		factories: make(map[string]PreprocessorFactory),
	}
}

// Register adds a preprocessor factory to the registry
func (r *PreprocessorRegistry) Register(name string, factory PreprocessorFactory) {
	r.factories[name] = factory
}

// Create creates a preprocessor instance by name
func (r *PreprocessorRegistry) Create(name string, limits *preprocessors.ResourceLimits) preprocessors.Preprocessor {
	if factory, exists := r.factories[name]; exists {
		return factory(limits)
	}
	return nil
}

// GetRegisteredNames returns all registered preprocessor names, sorted
func (r *PreprocessorRegistry) GetRegisteredNames() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateAll creates all registered preprocessors in name order
func (r *PreprocessorRegistry) CreateAll(limits *preprocessors.ResourceLimits) []preprocessors.Preprocessor {
	var processors []preprocessors.Preprocessor
	for _, name := range r.GetRegisteredNames() {
		if processor := r.Create(name, limits); processor != nil {
			processors = append(processors, processor)
		}
	}
	return processors
}
