// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"strings"

	"metaview/internal/formatters"
	"metaview/internal/formatters/shared"
	"metaview/internal/metadata"
)

// Formatter implements CSV output formatting
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated Property,Value rows for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

// Format writes a Property,Value header followed by one row per entry. A
// failed result becomes a single Error row. Location rows are appended for
// geotagged images.
func (f *Formatter) Format(result metadata.Result, options formatters.FormatterOptions) (string, error) {
	var builder strings.Builder
	w := csv.NewWriter(&builder)

	rows := [][]string{{"Property", "Value"}}
	if result.IsError() {
		rows = append(rows, []string{metadata.ErrorKey, result.Message()})
	} else {
		for _, row := range shared.Rows(result) {
			rows = append(rows, []string{row[0], row[1]})
		}
		if loc := shared.BuildLocation(result, options); loc != nil {
			rows = append(rows, []string{"Latitude", result.Location.LatitudeString()})
			rows = append(rows, []string{"Longitude", result.Location.LongitudeString()})
			if loc.MapsURL != "" {
				rows = append(rows, []string{"Google Maps", loc.MapsURL})
			}
		}
	}

	for _, row := range rows {
		for i := range row {
			row[i] = sanitizeFormulaInjection(row[i])
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return builder.String(), nil
}

// sanitizeFormulaInjection prevents CSV injection attacks by sanitizing formula characters
func sanitizeFormulaInjection(field string) string {
	if len(field) == 0 {
		return field
	}

	// Negative numbers are data, not formulas.
	if field[0] == '-' && len(field) > 1 && (field[1] >= '0' && field[1] <= '9' || field[1] == '.') {
		return field
	}

	firstChar := field[0]
	if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' {
		// Prefix with single quote to prevent formula execution
		return "'" + field
	}

	return field
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
