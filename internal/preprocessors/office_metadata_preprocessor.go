// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"

	"metaview/internal/metadata"
	metaextractofficelib "metaview/internal/preprocessors/meta-extractors/meta-extract-officelib"
	metaextractolelib "metaview/internal/preprocessors/meta-extractors/meta-extract-olelib"
)

// OfficeMetadataPreprocessor extracts document properties from DOCX packages
type OfficeMetadataPreprocessor struct {
	*BaseMetadataPreprocessor
}

// NewOfficeMetadataPreprocessor creates a new DOCX metadata preprocessor
func NewOfficeMetadataPreprocessor(limits *ResourceLimits) *OfficeMetadataPreprocessor {
	return &OfficeMetadataPreprocessor{
		BaseMetadataPreprocessor: NewBaseMetadataPreprocessor(PreprocessorNameOffice, FormatDOCX, limits, OfficeExtensions...),
	}
}

// Process extracts metadata from the DOCX file
func (omp *OfficeMetadataPreprocessor) Process(ctx context.Context, filePath string) metadata.Result {
	return omp.run(ctx, filePath, func() extraction {
		meta, err := metaextractofficelib.ExtractMetadata(filePath)
		if err != nil {
			return extraction{err: err}
		}
		return extraction{record: meta.Record()}
	})
}

// LegacyOfficeMetadataPreprocessor extracts summary properties from OLE
// compound documents (.doc)
type LegacyOfficeMetadataPreprocessor struct {
	*BaseMetadataPreprocessor
}

// NewLegacyOfficeMetadataPreprocessor creates a new DOC metadata preprocessor
func NewLegacyOfficeMetadataPreprocessor(limits *ResourceLimits) *LegacyOfficeMetadataPreprocessor {
	return &LegacyOfficeMetadataPreprocessor{
		BaseMetadataPreprocessor: NewBaseMetadataPreprocessor(PreprocessorNameLegacy, FormatDOC, limits, LegacyExtensions...),
	}
}

// Process extracts metadata from the DOC file
func (lmp *LegacyOfficeMetadataPreprocessor) Process(ctx context.Context, filePath string) metadata.Result {
	return lmp.run(ctx, filePath, func() extraction {
		meta, err := metaextractolelib.ExtractMetadata(filePath)
		if err != nil {
			return extraction{err: err}
		}
		if meta.Summary == nil {
			lmp.LogDebugInfo("No SummaryInformation stream")
		}
		return extraction{record: meta.Record()}
	})
}
