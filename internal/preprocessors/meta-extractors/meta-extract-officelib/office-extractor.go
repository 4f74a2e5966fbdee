// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metaextractofficelib

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"metaview/internal/metadata"
)

// Security constants
const (
	MaxFileSize     = 100 * 1024 * 1024 // 100MB max file size
	MaxXMLSize      = 10 * 1024 * 1024  // 10MB max XML content
	XMLParseTimeout = 30 * time.Second  // 30 second timeout for XML parsing
)

const (
	contentTypesPart = "[Content_Types].xml"
	corePropsPart    = "docProps/core.xml"
	appPropsPart     = "docProps/app.xml"
)

// SanitizedError wraps an error with a sanitized message for safe logging
type SanitizedError struct {
	original error
	message  string
}

func (e *SanitizedError) Error() string {
	return e.message
}

func (e *SanitizedError) Unwrap() error {
	return e.original
}

// newSanitizedError creates a new error with sanitized message while preserving the original error chain
func newSanitizedError(prefix string, err error) error {
	return &SanitizedError{
		original: err,
		message:  prefix + ": " + metadata.Sanitize(err.Error()),
	}
}

// Metadata represents DOCX document properties. Zero values mean the
// property is absent.
type Metadata struct {
	Filename       string
	FileSize       int64
	Author         string
	Created        time.Time
	Modified       time.Time
	LastModifiedBy string
	Revision       string
	Title          string
	Subject        string
	Keywords       string
	Category       string
	Comments       string
	Application    string
	Company        string
}

// CoreProperties represents docProps/core.xml
type CoreProperties struct {
	Title          string `xml:"title"`
	Subject        string `xml:"subject"`
	Creator        string `xml:"creator"`
	Keywords       string `xml:"keywords"`
	Description    string `xml:"description"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Revision       string `xml:"revision"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
	Category       string `xml:"category"`
}

// AppProperties represents docProps/app.xml
type AppProperties struct {
	Application string `xml:"Application"`
	AppVersion  string `xml:"AppVersion"`
	Company     string `xml:"Company"`
}

// validateFileSize validates file size to prevent DoS attacks
func validateFileSize(fileInfo os.FileInfo) error {
	if fileInfo.Size() > MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d)", metadata.ErrTooLarge, fileInfo.Size(), MaxFileSize)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("%w: file is empty", metadata.ErrCorruptFile)
	}
	return nil
}

// secureXMLUnmarshal safely unmarshals XML with XXE protection
func secureXMLUnmarshal(data []byte, v any) error {
	if len(data) > MaxXMLSize {
		return fmt.Errorf("XML content too large: %d bytes (max: %d)", len(data), MaxXMLSize)
	}

	data = bytes.TrimLeft(data, "\xef\xbb\xbf \t\r\n")
	if len(data) == 0 {
		return fmt.Errorf("XML content is empty")
	}
	if data[0] != '<' {
		return fmt.Errorf("invalid XML content: does not start with '<'")
	}

	ctx, cancel := context.WithTimeout(context.Background(), XMLParseTimeout)
	defer cancel()

	// External entities are never resolved
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity

	done := make(chan error, 1)
	go func() {
		done <- decoder.Decode(v)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("XML parsing timeout exceeded")
	}
}

// ExtractMetadata extracts core and application properties from a DOCX file
func ExtractMetadata(filePath string) (*Metadata, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, newSanitizedError("file error", err)
	}
	if err := validateFileSize(fileInfo); err != nil {
		return nil, fmt.Errorf("file size validation failed: %w", err)
	}

	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", metadata.ErrCorruptFile, newSanitizedError("file is not a zip file", err))
	}
	defer reader.Close()

	fileIndex := createFileIndex(reader)
	if _, ok := fileIndex[contentTypesPart]; !ok {
		return nil, fmt.Errorf("%w: package is missing %s", metadata.ErrCorruptFile, contentTypesPart)
	}

	meta := &Metadata{
		Filename: filepath.Base(filePath),
		FileSize: fileInfo.Size(),
	}

	coreProps, err := extractProperties[CoreProperties](fileIndex, corePropsPart)
	switch {
	case err == nil:
		meta.Author = strings.TrimSpace(coreProps.Creator)
		meta.LastModifiedBy = strings.TrimSpace(coreProps.LastModifiedBy)
		meta.Revision = strings.TrimSpace(coreProps.Revision)
		meta.Title = strings.TrimSpace(coreProps.Title)
		meta.Subject = strings.TrimSpace(coreProps.Subject)
		meta.Keywords = strings.TrimSpace(coreProps.Keywords)
		meta.Category = strings.TrimSpace(coreProps.Category)
		meta.Comments = strings.TrimSpace(coreProps.Description)
		if t, parseErr := parseOfficeDate(coreProps.Created); parseErr == nil {
			meta.Created = t
		}
		if t, parseErr := parseOfficeDate(coreProps.Modified); parseErr == nil {
			meta.Modified = t
		}
	case errors.Is(err, errPartMissing):
	default:
		return nil, fmt.Errorf("%w: %v", metadata.ErrCorruptFile, err)
	}

	// app.xml is optional and a damaged copy does not invalidate the document
	if appProps, err := extractProperties[AppProperties](fileIndex, appPropsPart); err == nil {
		meta.Application = strings.TrimSpace(appProps.Application)
		meta.Company = strings.TrimSpace(appProps.Company)
	}

	return meta, nil
}

// Record renders the properties in display order, dropping absent ones
func (m *Metadata) Record() *metadata.Record {
	record := metadata.NewRecord()
	record.SetIfPresent("Author", m.Author)
	record.SetIfPresent("Created", m.Created)
	record.SetIfPresent("Modified", m.Modified)
	record.SetIfPresent("Last Modified By", m.LastModifiedBy)
	record.SetIfPresent("Revision", revisionValue(m.Revision))
	record.SetIfPresent("Title", m.Title)
	record.SetIfPresent("Subject", m.Subject)
	record.SetIfPresent("Keywords", m.Keywords)
	record.Set("File Size", fmt.Sprintf("%.2f KB", float64(m.FileSize)/1024))
	record.SetIfPresent("Category", m.Category)
	record.SetIfPresent("Comments", m.Comments)
	record.SetIfPresent("Application", m.Application)
	record.SetIfPresent("Company", m.Company)
	return record
}

// revisionValue returns numeric revisions as integers. An absent revision
// is dropped, not reported as 0.
func revisionValue(revision string) any {
	if revision == "" {
		return nil
	}
	if n, err := strconv.Atoi(revision); err == nil {
		return n
	}
	return revision
}

var errPartMissing = errors.New("package part not found")

// createFileIndex creates an index of files for efficient lookup
func createFileIndex(reader *zip.ReadCloser) map[string]*zip.File {
	fileIndex := make(map[string]*zip.File, len(reader.File))
	for _, file := range reader.File {
		fileIndex[file.Name] = file
	}
	return fileIndex
}

// extractProperties reads and parses one XML part of the package
func extractProperties[T any](fileIndex map[string]*zip.File, part string) (*T, error) {
	file, exists := fileIndex[part]
	if !exists {
		return nil, fmt.Errorf("%s: %w", part, errPartMissing)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, newSanitizedError("failed to open "+part, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, MaxXMLSize+1))
	if err != nil {
		return nil, newSanitizedError("failed to read "+part, err)
	}

	var props T
	if err := secureXMLUnmarshal(content, &props); err != nil {
		return nil, newSanitizedError("failed to parse "+part, err)
	}
	return &props, nil
}

// parseOfficeDate parses Office date format
func parseOfficeDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("could not parse date: %s", dateStr)
}
