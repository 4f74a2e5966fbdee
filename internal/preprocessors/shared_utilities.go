// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"path/filepath"
	"sort"
	"strings"
)

// NormalizeExtension lower-cases ext and guarantees a leading dot. An empty
// input stays empty.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// FileExtension returns the normalized extension of a file name
func FileExtension(filePath string) string {
	return NormalizeExtension(filepath.Ext(filePath))
}

// FileExtensionValidator answers extension membership questions for a
// fixed set of extensions
type FileExtensionValidator struct {
	extensions map[string]bool
}

// NewFileExtensionValidator creates a validator for the given extensions,
// which may be given with or without the leading dot
func NewFileExtensionValidator(extensions ...string) *FileExtensionValidator {
	v := &FileExtensionValidator{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		if ext = NormalizeExtension(ext); ext != "" {
			v.extensions[ext] = true
		}
	}
	return v
}

// Allows reports whether the file's extension is in the set
func (v *FileExtensionValidator) Allows(filePath string) bool {
	return v.extensions[FileExtension(filePath)]
}

// Extensions returns the sorted extension list
func (v *FileExtensionValidator) Extensions() []string {
	out := make([]string, 0, len(v.extensions))
	for ext := range v.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
