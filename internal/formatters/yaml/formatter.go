// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package yaml

import (
	"fmt"

	"metaview/internal/formatters"
	"metaview/internal/formatters/shared"
	"metaview/internal/metadata"

	"gopkg.in/yaml.v3"
)

// Formatter implements YAML output formatting
type Formatter struct{}

// NewFormatter creates a new YAML formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "yaml"
}

func (f *Formatter) Description() string {
	return "YAML format output, 100% compatible with JSON structure"
}

func (f *Formatter) FileExtension() string {
	return ".yaml"
}

func (f *Formatter) Format(result metadata.Result, options formatters.FormatterOptions) (string, error) {
	// Same structure as the JSON formatter
	report := shared.BuildReport(result, options)

	yamlData, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("error formatting YAML: %w", err)
	}

	return string(yamlData), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
