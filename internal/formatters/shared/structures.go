// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"math"

	"metaview/internal/formatters"
	"metaview/internal/geo"
	"metaview/internal/metadata"
)

// Report is the top-level structure for JSON, YAML and msgpack output
type Report struct {
	File     string       `json:"file" yaml:"file" msgpack:"file"`
	Format   string       `json:"format,omitempty" yaml:"format,omitempty" msgpack:"format,omitempty"`
	Metadata []Property   `json:"metadata" yaml:"metadata" msgpack:"metadata"`
	Location *Location    `json:"location,omitempty" yaml:"location,omitempty" msgpack:"location,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// Property is one row of the Property/Value table
type Property struct {
	Property string `json:"property" yaml:"property" msgpack:"property"`
	Value    any    `json:"value" yaml:"value" msgpack:"value"`
}

// Location holds derived GPS coordinates and their map links
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" msgpack:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude" msgpack:"longitude"`
	MapsURL   string  `json:"maps_url,omitempty" yaml:"maps_url,omitempty" msgpack:"maps_url,omitempty"`
	EmbedURL  string  `json:"embed_url,omitempty" yaml:"embed_url,omitempty" msgpack:"embed_url,omitempty"`
}

// ErrorDetail describes a failed extraction
type ErrorDetail struct {
	Kind    string `json:"kind" yaml:"kind" msgpack:"kind"`
	Title   string `json:"title" yaml:"title" msgpack:"title"`
	Message string `json:"message" yaml:"message" msgpack:"message"`
}

// BuildReport converts a result into the shared output structure. Failed
// results carry an empty metadata list and an error.
func BuildReport(result metadata.Result, options formatters.FormatterOptions) Report {
	report := Report{
		File:     result.Filename,
		Format:   result.Format,
		Metadata: []Property{},
	}

	if result.IsError() {
		report.Error = &ErrorDetail{
			Kind:    string(result.Kind()),
			Title:   result.Kind().Title(),
			Message: result.Message(),
		}
		return report
	}

	for _, e := range result.Record.Entries() {
		report.Metadata = append(report.Metadata, Property{Property: e.Key, Value: safeValue(e.Value)})
	}
	report.Location = BuildLocation(result, options)
	return report
}

// BuildLocation returns the location block for a geotagged result, or nil
func BuildLocation(result metadata.Result, options formatters.FormatterOptions) *Location {
	if !result.HasLocation() {
		return nil
	}
	c := *result.Location
	loc := &Location{Latitude: c.Latitude, Longitude: c.Longitude}
	if !options.NoMap {
		loc.MapsURL = geo.MapURLWithTemplate(options.MapsURLTemplate, c)
		loc.EmbedURL = geo.EmbedURL(c, options.MapSpan)
	}
	return loc
}

// Rows returns the table as display strings, in record order
func Rows(result metadata.Result) [][2]string {
	if result.IsError() {
		return nil
	}
	entries := result.Record.Entries()
	rows := make([][2]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, [2]string{e.Key, metadata.Stringify(e.Value)})
	}
	return rows
}

// safeValue keeps values encodable by every structured formatter
func safeValue(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return metadata.Stringify(f)
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return metadata.Stringify(f)
		}
	}
	return v
}
