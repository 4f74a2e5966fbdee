// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"
	"fmt"

	"metaview/internal/metadata"
	metaextractexiflib "metaview/internal/preprocessors/meta-extractors/meta-extract-exiflib"
)

// ImageMetadataPreprocessor extracts EXIF and image header metadata
type ImageMetadataPreprocessor struct {
	*BaseMetadataPreprocessor
}

// NewImageMetadataPreprocessor creates a new image metadata preprocessor
func NewImageMetadataPreprocessor(limits *ResourceLimits) *ImageMetadataPreprocessor {
	return &ImageMetadataPreprocessor{
		BaseMetadataPreprocessor: NewBaseMetadataPreprocessor(PreprocessorNameImage, FormatImage, limits, ImageExtensions...),
	}
}

// Process extracts metadata from image files
func (imp *ImageMetadataPreprocessor) Process(ctx context.Context, filePath string) metadata.Result {
	return imp.run(ctx, filePath, func() extraction {
		data, err := metaextractexiflib.ExtractExif(filePath)
		if err != nil {
			return extraction{err: err}
		}
		if data.Location != nil {
			imp.LogDebugInfo(fmt.Sprintf("GPS position %s", data.Location))
		}
		return extraction{record: data.Record, location: data.Location}
	})
}
