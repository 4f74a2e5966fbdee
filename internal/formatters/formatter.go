// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"metaview/internal/metadata"
)

// FormatterOptions defines configuration options for formatters
type FormatterOptions struct {
	NoColor         bool   // Whether to disable colored output
	NoMap           bool   // Whether to omit map links for geotagged images
	MapsURLTemplate string // Link template with latitude and longitude verbs; empty means Google Maps
	MapSpan         float64
	Compact         bool // Whether to prefer compact output (single-line JSON)
}

// Formatter interface defines methods that all output formatters must implement
type Formatter interface {
	// Format renders one extraction result
	Format(result metadata.Result, options FormatterOptions) (string, error)

	// Name returns the name of the formatter (e.g., "json", "text", "csv")
	Name() string

	// Description returns a brief description of what this formatter outputs
	Description() string

	// FileExtension returns the recommended file extension for this format (e.g., ".json", ".txt", ".csv")
	FileExtension() string
}

// Registry holds all registered formatters
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates a new formatter registry
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter to the registry
func (r *Registry) Register(formatter Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formatter, exists := r.formatters[strings.ToLower(name)]
	return formatter, exists
}

// List returns all registered formatter names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatInfo provides metadata about a formatter for web UI integration
type FormatInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Extension    string `json:"extension"`
	MimeType     string `json:"mime_type"`
	WebSupported bool   `json:"web_supported"`
}

// DefaultRegistry is the global formatter registry
var DefaultRegistry = NewRegistry()

// Register is a convenience function to register a formatter with the default registry
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get is a convenience function to get a formatter from the default registry
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List is a convenience function to list all formatters in the default registry
func List() []string {
	return DefaultRegistry.List()
}

// Export is a service-level function that provides unified formatting for both CLI and Web UI
func Export(format string, result metadata.Result, options FormatterOptions) (string, error) {
	formatter, exists := Get(format)
	if !exists {
		return "", fmt.Errorf("unsupported format '%s'. Available formats: %s", format, strings.Join(List(), ", "))
	}
	return formatter.Format(result, options)
}

// ExportForWeb provides web-friendly export with proper MIME types and filenames
func ExportForWeb(format string, result metadata.Result, options FormatterOptions) (content string, mimeType string, filename string, err error) {
	content, err = Export(format, result, options)
	if err != nil {
		return "", "", "", err
	}

	info := GetFormatInfo(format)
	mimeType = info.MimeType
	filename = downloadName(result.Filename) + info.Extension

	return content, mimeType, filename, nil
}

// downloadName derives "<stem>-metadata" from an uploaded file name
func downloadName(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, stem)
	if stem == "" || stem == "." || strings.Trim(stem, "_") == "" {
		return "metaview-metadata"
	}
	return stem + "-metadata"
}

// GetFormatInfo returns metadata about a specific formatter
func GetFormatInfo(name string) FormatInfo {
	formatter, exists := Get(name)
	if !exists {
		return FormatInfo{}
	}

	info := FormatInfo{
		Name:         formatter.Name(),
		Description:  formatter.Description(),
		Extension:    formatter.FileExtension(),
		WebSupported: true,
	}

	// Set appropriate MIME types
	switch formatter.Name() {
	case "json":
		info.MimeType = "application/json"
	case "csv":
		info.MimeType = "text/csv"
	case "yaml":
		info.MimeType = "application/x-yaml"
	case "text":
		info.MimeType = "text/plain"
	case "msgpack":
		info.MimeType = "application/x-msgpack"
	default:
		info.MimeType = "application/octet-stream"
	}

	return info
}

// GetSupportedFormats returns information about all available formatters
func GetSupportedFormats() []FormatInfo {
	var formats []FormatInfo
	for _, name := range List() {
		formats = append(formats, GetFormatInfo(name))
	}
	return formats
}
