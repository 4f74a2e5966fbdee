// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"metaview/internal/preprocessors"
)

// RegisterDefaultPreprocessors registers all built-in preprocessors
func RegisterDefaultPreprocessors(router *FileRouter) {
	// Image metadata preprocessor factory (EXIF, GPS and header facts)
	router.RegisterPreprocessor("image_metadata", func(limits *preprocessors.ResourceLimits) preprocessors.Preprocessor {
		return preprocessors.NewImageMetadataPreprocessor(limits)
	})

	// PDF metadata preprocessor factory (page count and Info dictionary)
	router.RegisterPreprocessor("pdf_metadata", func(limits *preprocessors.ResourceLimits) preprocessors.Preprocessor {
		return preprocessors.NewPDFMetadataPreprocessor(limits)
	})

	// Office metadata preprocessor factory (DOCX core properties)
	router.RegisterPreprocessor("office_metadata", func(limits *preprocessors.ResourceLimits) preprocessors.Preprocessor {
		return preprocessors.NewOfficeMetadataPreprocessor(limits)
	})

	// Legacy office preprocessor factory (DOC property sets)
	router.RegisterPreprocessor("legacy_office_metadata", func(limits *preprocessors.ResourceLimits) preprocessors.Preprocessor {
		return preprocessors.NewLegacyOfficeMetadataPreprocessor(limits)
	})
}
