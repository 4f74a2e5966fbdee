// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

// Format identifiers reported on every Result
const (
	FormatImage = "image"
	FormatPDF   = "pdf"
	FormatDOCX  = "docx"
	FormatDOC   = "doc"
)

// Preprocessor name constants
const (
	PreprocessorNameImage  = "image_metadata_preprocessor"
	PreprocessorNamePDF    = "pdf_metadata_preprocessor"
	PreprocessorNameOffice = "office_metadata_preprocessor"
	PreprocessorNameLegacy = "legacy_office_metadata_preprocessor"
)

// Supported extensions per format, lower case with the leading dot
var (
	ImageExtensions  = []string{".jpg", ".jpeg", ".png"}
	PDFExtensions    = []string{".pdf"}
	OfficeExtensions = []string{".docx"}
	LegacyExtensions = []string{".doc"}
)

// DefaultAllowedExtensions is the full upload allowlist
var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".pdf", ".docx", ".doc"}
