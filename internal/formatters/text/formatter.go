// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"metaview/internal/formatters"
	"metaview/internal/formatters/shared"
	"metaview/internal/metadata"

	"github.com/fatih/color"
	"golang.org/x/text/width"
)

// maxValueWidth is the column width at which long values wrap
const maxValueWidth = 60

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":   color.New(color.FgGreen),
			"red":     color.New(color.FgRed, color.Bold),
			"cyan":    color.New(color.FgCyan),
			"magenta": color.New(color.FgMagenta),
			"blue":    color.New(color.FgBlue),
			"white":   color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable Property/Value table with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(result metadata.Result, options formatters.FormatterOptions) (string, error) {
	var builder strings.Builder

	f.appendTitle(&builder, result, options)

	if result.IsError() {
		f.appendError(&builder, result, options)
		return builder.String(), nil
	}

	rows := shared.Rows(result)
	if len(rows) == 0 {
		builder.WriteString("No metadata found.\n")
	} else {
		f.appendTable(&builder, rows, options)
	}

	if loc := shared.BuildLocation(result, options); loc != nil {
		f.appendLocation(&builder, result, loc, options)
	}

	return builder.String(), nil
}

// appendTitle writes the file name and detected format
func (f *Formatter) appendTitle(builder *strings.Builder, result metadata.Result, options formatters.FormatterOptions) {
	title := result.Filename
	if title == "" {
		title = "(unnamed file)"
	}
	suffix := ""
	if result.Format != "" {
		suffix = fmt.Sprintf(" (%s)", result.Format)
	}
	if !options.NoColor {
		f.colors["white"].Fprintf(builder, "📄 %s", title)
		f.colors["magenta"].Fprintf(builder, "%s\n", suffix)
	} else {
		fmt.Fprintf(builder, "📄 %s%s\n", title, suffix)
	}
}

// appendError writes the error banner in place of the table
func (f *Formatter) appendError(builder *strings.Builder, result metadata.Result, options formatters.FormatterOptions) {
	line := fmt.Sprintf("❌ %s: %s\n", result.Kind().Title(), result.Message())
	if !options.NoColor {
		f.colors["red"].Fprint(builder, line)
	} else {
		builder.WriteString(line)
	}
}

// appendTable draws a boxed two-column table
func (f *Formatter) appendTable(builder *strings.Builder, rows [][2]string, options formatters.FormatterOptions) {
	keyWidth := displayWidth("Property")
	valueWidth := displayWidth("Value")
	wrapped := make([][]string, len(rows))
	for i, row := range rows {
		if w := displayWidth(row[0]); w > keyWidth {
			keyWidth = w
		}
		wrapped[i] = wrapValue(row[1], maxValueWidth)
		for _, line := range wrapped[i] {
			if w := displayWidth(line); w > valueWidth {
				valueWidth = w
			}
		}
	}

	border := func(left, mid, right string) {
		line := left + strings.Repeat("─", keyWidth+2) + mid + strings.Repeat("─", valueWidth+2) + right + "\n"
		if !options.NoColor {
			f.colors["blue"].Fprint(builder, line)
		} else {
			builder.WriteString(line)
		}
	}
	bar := "│"
	if !options.NoColor {
		bar = f.colors["blue"].Sprint("│")
	}
	cell := func(text string, w int, c *color.Color) string {
		padded := text + strings.Repeat(" ", w-displayWidth(text))
		if !options.NoColor && c != nil {
			return c.Sprint(padded)
		}
		return padded
	}

	border("┌", "┬", "┐")
	fmt.Fprintf(builder, "%s %s %s %s %s\n", bar,
		cell("Property", keyWidth, f.colors["white"]), bar,
		cell("Value", valueWidth, f.colors["white"]), bar)
	border("├", "┼", "┤")
	for i, row := range rows {
		for j, line := range wrapped[i] {
			key := ""
			if j == 0 {
				key = row[0]
			}
			fmt.Fprintf(builder, "%s %s %s %s %s\n", bar,
				cell(key, keyWidth, f.colors["cyan"]), bar,
				cell(line, valueWidth, nil), bar)
		}
	}
	border("└", "┴", "┘")
}

// appendLocation writes the coordinates and map link of a geotagged image
func (f *Formatter) appendLocation(builder *strings.Builder, result metadata.Result, loc *shared.Location, options formatters.FormatterOptions) {
	lines := [][2]string{
		{"Latitude", result.Location.LatitudeString()},
		{"Longitude", result.Location.LongitudeString()},
	}
	if loc.MapsURL != "" {
		lines = append(lines, [2]string{"Google Maps", loc.MapsURL})
	}

	builder.WriteString("\n")
	if !options.NoColor {
		f.colors["white"].Fprint(builder, "📍 Location\n")
	} else {
		builder.WriteString("📍 Location\n")
	}
	for _, line := range lines {
		label := fmt.Sprintf("   %-12s ", line[0]+":")
		if !options.NoColor {
			f.colors["cyan"].Fprint(builder, label)
			f.colors["green"].Fprintf(builder, "%s\n", line[1])
		} else {
			fmt.Fprintf(builder, "%s%s\n", label, line[1])
		}
	}
}

// displayWidth counts terminal columns, treating East Asian wide runes as two
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

// wrapValue splits a value into lines no wider than limit. Embedded
// newlines and tabs are flattened first.
func wrapValue(s string, limit int) []string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	if displayWidth(s) <= limit {
		return []string{s}
	}

	var lines []string
	var current strings.Builder
	w := 0
	for _, r := range s {
		rw := runeWidth(r)
		if w+rw > limit {
			lines = append(lines, current.String())
			current.Reset()
			w = 0
		}
		current.WriteRune(r)
		w += rw
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
