// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metaextractolelib

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
	"github.com/richardlehane/msoleps/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"metaview/internal/metadata"
)

// NotOLEMessage is reported for files without the compound file signature
const NotOLEMessage = "Not a valid OLE file"

const (
	summaryInformationStream         = "SummaryInformation"
	documentSummaryInformationStream = "DocumentSummaryInformation"
)

// oleSignature is the compound file header magic
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ErrNotOLE is returned when the file is not a compound file
var ErrNotOLE = errors.New(NotOLEMessage)

// SummaryField maps a SummaryInformation property to its display name
type SummaryField struct {
	Property string
	Display  string
}

// SummaryFields lists the SummaryInformation properties in display order
var SummaryFields = []SummaryField{
	{"Title", "Title"},
	{"Subject", "Subject"},
	{"Author", "Author"},
	{"Keywords", "Keywords"},
	{"Comments", "Comments"},
	{"LastAuthor", "Last Saved By"},
	{"CreateTime", "Created"},
	{"LastSaveTime", "Modified"},
	{"RevNumber", "Revision Number"},
	{"AppName", "Application"},
	{"PageCount", "Page Count"},
	{"WordCount", "Word Count"},
	{"CharCount", "Character Count"},
}

// Metadata represents the property sets of a legacy Office document
type Metadata struct {
	Filename string
	FileSize int64
	// Summary holds SummaryInformation values keyed by property name; nil
	// when the stream is absent.
	Summary map[string]any
	Company any
}

// ExtractMetadata reads the property set streams of an OLE compound file
func ExtractMetadata(filePath string) (result *Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: compound file parser panic: %v", metadata.ErrCorruptFile, r)
		}
	}()

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("file error: %w", err)
	}

	if !IsOLEFile(f) {
		return nil, metadata.NewExtractionError(filePath, "doc", metadata.ErrorKindCorruptFile, NotOLEMessage, ErrNotOLE)
	}

	doc, err := mscfb.New(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", metadata.ErrCorruptFile, err)
	}

	result = &Metadata{
		Filename: filepath.Base(filePath),
		FileSize: info.Size(),
	}

	props := msoleps.New()
	for entry, nextErr := doc.Next(); nextErr == nil; entry, nextErr = doc.Next() {
		if !msoleps.IsMSOLEPS(entry.Initial) {
			continue
		}
		switch entry.Name {
		case summaryInformationStream:
			if err := readPropertySet(props, doc); err != nil {
				continue
			}
			result.Summary = make(map[string]any, len(props.Property))
			for _, p := range props.Property {
				if p == nil || p.Name == "" {
					continue
				}
				result.Summary[p.Name] = PropertyValue(p)
			}
		case documentSummaryInformationStream:
			if err := readPropertySet(props, doc); err != nil {
				continue
			}
			for _, p := range props.Property {
				if p != nil && p.Name == "Company" {
					result.Company = PropertyValue(p)
				}
			}
		}
	}

	return result, nil
}

// Record renders the metadata in display order. Absent properties are
// dropped and File Size is always present.
func (m *Metadata) Record() *metadata.Record {
	record := metadata.NewRecord()
	for _, field := range SummaryFields {
		if v, ok := m.Summary[field.Property]; ok {
			record.SetIfPresent(field.Display, v)
		}
	}
	record.SetIfPresent("Company", m.Company)
	record.Set("File Size", fmt.Sprintf("%.2f KB", float64(m.FileSize)/1024))
	return record
}

// readPropertySet loads the current stream into props. A damaged stream is
// skipped rather than failing the whole document.
func readPropertySet(props *msoleps.Reader, r io.Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed property set: %v", rec)
		}
	}()
	return props.Reset(r)
}

// IsOLEFile reports whether r starts with the compound file signature
func IsOLEFile(r io.ReaderAt) bool {
	header := make([]byte, len(oleSignature))
	if _, err := r.ReadAt(header, 0); err != nil {
		return false
	}
	return bytes.Equal(header, oleSignature)
}

// PropertyValue converts a property set value into a display value
func PropertyValue(p *msoleps.Property) (v any) {
	defer func() {
		if recover() != nil {
			v = metadata.UnserializableValue
		}
	}()

	switch t := p.T.(type) {
	case nil:
		return nil
	case types.Null:
		return nil
	case types.FileTime:
		if t.Low == 0 && t.High == 0 {
			return nil
		}
		return t.Time().UTC()
	case *types.CodeString:
		return decodeCodeString(t)
	case types.UnicodeString:
		return decodeUTF16(uint16sToBytes(t))
	case types.Bool:
		return bool(t)
	case types.I1:
		return int64(t)
	case types.I2:
		return int64(t)
	case types.I4:
		return int64(t)
	case types.I8:
		return int64(t)
	case types.UI1:
		return uint64(t)
	case types.UI2:
		return uint64(t)
	case types.UI4:
		return uint64(t)
	case types.UI8:
		return uint64(t)
	case types.R4:
		return float64(t)
	case types.R8:
		return float64(t)
	}
	return p.T.String()
}

// decodeCodeString decodes an 8-bit string using the property set code page
func decodeCodeString(s *types.CodeString) string {
	chars := s.Chars
	name := codePageName(s.Encoding())
	if strings.EqualFold(name, "utf-16") {
		return decodeUTF16(chars)
	}
	if i := bytes.IndexByte(chars, 0); i >= 0 {
		chars = chars[:i]
	}

	if enc := lookupEncoding(name); enc != nil {
		if out, err := enc.NewDecoder().Bytes(chars); err == nil {
			return string(out)
		}
	}
	return metadata.Stringify(chars)
}

// codePageName extracts the charset name from a code page description
// such as "windows-1252 - ANSI Latin 1; Western European (Windows)".
func codePageName(description string) string {
	name, _, _ := strings.Cut(description, " - ")
	return strings.TrimSpace(name)
}

func lookupEncoding(name string) encoding.Encoding {
	switch strings.ToLower(name) {
	case "", "utf-8":
		return nil
	case "windows-1252":
		return charmap.Windows1252
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil
	}
	return enc
}

func decodeUTF16(b []byte) string {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	s := string(out)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}

func uint16sToBytes(u []uint16) []byte {
	b := make([]byte, 2*len(u))
	for i, v := range u {
		b[2*i] = byte(v)
		b[2*i+1] = byte(v >> 8)
	}
	return b
}
