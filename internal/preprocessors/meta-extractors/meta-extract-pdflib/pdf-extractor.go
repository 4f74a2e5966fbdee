// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metaextractpdflib

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"metaview/internal/metadata"
)

var (
	headerPattern  = regexp.MustCompile(`%PDF-(\d+\.\d+)`)
	encryptPattern = regexp.MustCompile(`/Encrypt\s+(\d+\s+\d+\s+R|<<)`)
)

// InfoEntry is one key of the document Info dictionary
type InfoEntry struct {
	Key   string
	Value any
}

// Metadata represents PDF document metadata
type Metadata struct {
	Filename  string
	FileSize  int64
	PageCount int
	Version   string
	Encrypted bool
	Info      []InfoEntry
}

// ExtractMetadata extracts the page count, Info dictionary and header facts
// from a PDF document.
func ExtractMetadata(filePath string) (*Metadata, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("file error: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	meta := &Metadata{
		Filename: filepath.Base(filePath),
		FileSize: fileInfo.Size(),
		Version:  extractPDFVersion(data),
	}
	if meta.Version == "" {
		return nil, fmt.Errorf("%w: not a PDF file: missing %%PDF header", metadata.ErrCorruptFile)
	}
	meta.Encrypted = isEncrypted(data)

	pages, info, readErr := readWithPDFReader(data)
	if readErr != nil {
		// pdfcpu repairs damaged cross-reference tables that the primary
		// reader rejects; it only contributes the page count.
		count, fallbackErr := countPagesWithPDFCPU(filePath)
		if fallbackErr != nil {
			return nil, fmt.Errorf("%w: %v", metadata.ErrCorruptFile, readErr)
		}
		pages = count
	}
	meta.PageCount = pages
	meta.Info = info

	return meta, nil
}

// Record renders the metadata in display order
func (m *Metadata) Record() *metadata.Record {
	record := metadata.NewRecord()
	record.Set("Pages", m.PageCount)
	for _, entry := range m.Info {
		record.Set(entry.Key, entry.Value)
	}
	record.Set("PDF Version", m.Version)
	if m.Encrypted {
		record.Set("Encrypted", true)
	}
	record.Set("File Size", FormatFileSize(m.FileSize))
	return record
}

// FormatFileSize renders a byte count in kilobytes with two decimals
func FormatFileSize(size int64) string {
	return fmt.Sprintf("%.2f KB", float64(size)/1024)
}

// readWithPDFReader parses the document with ledongthuc/pdf, which panics
// on some malformed input.
func readWithPDFReader(data []byte) (pages int, info []InfoEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, info = 0, nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, nil, err
	}
	pages = r.NumPage()
	info = infoEntries(r.Trailer().Key("Info"))
	return pages, info, nil
}

func countPagesWithPDFCPU(filePath string) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			count = 0
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	ctx, err := api.ReadContextFile(filePath)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// infoEntries converts the Info dictionary into entries with sorted keys
func infoEntries(dict pdf.Value) []InfoEntry {
	if dict.Kind() != pdf.Dict {
		return nil
	}
	keys := dict.Keys()
	entries := make([]InfoEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, InfoEntry{Key: key, Value: infoValue(key, dict.Key(key))})
	}
	return entries
}

func infoValue(key string, v pdf.Value) any {
	switch v.Kind() {
	case pdf.Null:
		return nil
	case pdf.Bool:
		return v.Bool()
	case pdf.Integer:
		return v.Int64()
	case pdf.Real:
		return v.Float64()
	case pdf.Name:
		return v.Name()
	case pdf.String:
		text := v.Text()
		if strings.HasSuffix(key, "Date") {
			if t, err := parsePDFDate(text); err == nil {
				return t
			}
		}
		return text
	}
	return v.String()
}

// extractPDFVersion extracts the PDF version from the header
func extractPDFVersion(data []byte) string {
	// Check only the first 1KB or the entire file if smaller
	size := len(data)
	if size > 1024 {
		size = 1024
	}

	matches := headerPattern.FindSubmatch(data[:size])
	if len(matches) >= 2 {
		return string(matches[1])
	}
	return ""
}

// isEncrypted checks if the trailer references an /Encrypt dictionary
func isEncrypted(data []byte) bool {
	return encryptPattern.Match(data)
}

// parsePDFDate parses a PDF date string
func parsePDFDate(dateStr string) (time.Time, error) {
	// PDF date format: D:YYYYMMDDHHmmSSOHH'mm'
	// where O is the offset direction (+, - or Z)
	dateStr = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(dateStr), "D:"))

	if len(dateStr) < 4 {
		return time.Time{}, fmt.Errorf("invalid date format")
	}
	year, err := strconv.Atoi(dateStr[:4])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date year: %w", err)
	}

	month := extractInt(dateStr, 4, 2, 1)
	day := extractInt(dateStr, 6, 2, 1)
	hour := extractInt(dateStr, 8, 2, 0)
	minute := extractInt(dateStr, 10, 2, 0)
	second := extractInt(dateStr, 12, 2, 0)
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("invalid date components")
	}

	loc := time.UTC
	if len(dateStr) >= 15 && (dateStr[14] == '+' || dateStr[14] == '-') {
		tzHour := extractInt(dateStr, 15, 2, 0)
		tzMinute := extractInt(dateStr, 18, 2, 0)

		tzOffset := tzHour*3600 + tzMinute*60
		if dateStr[14] == '-' {
			tzOffset = -tzOffset
		}
		loc = time.FixedZone("", tzOffset)
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), nil
}

// extractInt extracts an integer from a string with bounds checking
func extractInt(s string, start, length, defaultVal int) int {
	if start+length <= len(s) {
		val, err := strconv.Atoi(s[start : start+length])
		if err == nil {
			return val
		}
	}
	return defaultVal
}
