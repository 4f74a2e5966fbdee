// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"bytes"
	"io"
	"os"
)

// ContentType is the container format detected from leading bytes
type ContentType string

const (
	ContentUnknown ContentType = "unknown"
	ContentJPEG    ContentType = "jpeg"
	ContentPNG     ContentType = "png"
	ContentPDF     ContentType = "pdf"
	ContentZIP     ContentType = "zip"
	ContentOLE     ContentType = "ole"
)

var (
	pngMagic = []byte("\x89PNG\r\n\x1a\n")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// expectedContent maps each supported extension to its container format
var expectedContent = map[string]ContentType{
	".jpg":  ContentJPEG,
	".jpeg": ContentJPEG,
	".png":  ContentPNG,
	".pdf":  ContentPDF,
	".docx": ContentZIP,
	".doc":  ContentOLE,
}

// Sniff determines the container format from the first bytes of r
func Sniff(r io.Reader) (ContentType, error) {
	header := make([]byte, 1024)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ContentUnknown, err
	}
	header = header[:n]

	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return ContentJPEG, nil
	case bytes.HasPrefix(header, pngMagic):
		return ContentPNG, nil
	case bytes.HasPrefix(header, oleMagic):
		return ContentOLE, nil
	case len(header) >= 4 && string(header[:4]) == "PK\x03\x04":
		return ContentZIP, nil
	case bytes.Contains(header, []byte("%PDF-")):
		// Readers accept a PDF header anywhere in the first kilobyte
		return ContentPDF, nil
	default:
		return ContentUnknown, nil
	}
}

// SniffFile opens filePath and sniffs its content
func SniffFile(filePath string) (ContentType, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return ContentUnknown, err
	}
	defer f.Close()
	return Sniff(f)
}

// ContentMatchesExtension reports whether content is what the extension
// promises. Extensions without an expectation always match.
func ContentMatchesExtension(ext string, content ContentType) bool {
	want, ok := expectedContent[NormalizeExtension(ext)]
	if !ok {
		return true
	}
	return want == content
}
