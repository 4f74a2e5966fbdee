// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package msgpack

import (
	"bytes"
	"fmt"

	"metaview/internal/formatters"
	"metaview/internal/formatters/shared"
	"metaview/internal/metadata"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter implements MessagePack output formatting
type Formatter struct{}

// NewFormatter creates a new msgpack formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "msgpack"
}

func (f *Formatter) Description() string {
	return "Binary MessagePack encoding of the JSON structure"
}

func (f *Formatter) FileExtension() string {
	return ".msgpack"
}

func (f *Formatter) Format(result metadata.Result, options formatters.FormatterOptions) (string, error) {
	report := shared.BuildReport(result, options)

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(report); err != nil {
		return "", fmt.Errorf("error formatting msgpack: %w", err)
	}

	return buf.String(), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
