// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"
	"fmt"

	"metaview/internal/metadata"
	metaextractpdflib "metaview/internal/preprocessors/meta-extractors/meta-extract-pdflib"
)

// PDFMetadataPreprocessor extracts metadata from PDF documents
type PDFMetadataPreprocessor struct {
	*BaseMetadataPreprocessor
}

// NewPDFMetadataPreprocessor creates a new PDF metadata preprocessor
func NewPDFMetadataPreprocessor(limits *ResourceLimits) *PDFMetadataPreprocessor {
	return &PDFMetadataPreprocessor{
		BaseMetadataPreprocessor: NewBaseMetadataPreprocessor(PreprocessorNamePDF, FormatPDF, limits, PDFExtensions...),
	}
}

// Process extracts metadata from the PDF file
func (pmp *PDFMetadataPreprocessor) Process(ctx context.Context, filePath string) metadata.Result {
	return pmp.run(ctx, filePath, func() extraction {
		meta, err := metaextractpdflib.ExtractMetadata(filePath)
		if err != nil {
			return extraction{err: err}
		}
		pmp.LogDebugInfo(fmt.Sprintf("PDF %s, %d pages, %d info keys", meta.Version, meta.PageCount, len(meta.Info)))
		if meta.Encrypted {
			pmp.LogDebugInfo("Document references an /Encrypt dictionary")
		}
		return extraction{record: meta.Record()}
	})
}
