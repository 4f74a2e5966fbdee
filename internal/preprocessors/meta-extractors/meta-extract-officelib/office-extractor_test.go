// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metaextractofficelib

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaview/internal/metadata"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`

const fullCoreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"
  xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <dc:title>Annual Plan</dc:title>
  <dc:subject>Planning</dc:subject>
  <dc:creator>Jane Doe</dc:creator>
  <cp:keywords>plan, budget</cp:keywords>
  <dc:description>Draft for review</dc:description>
  <cp:lastModifiedBy>John Roe</cp:lastModifiedBy>
  <cp:revision>7</cp:revision>
  <cp:category>Internal</cp:category>
  <dcterms:created xsi:type="dcterms:W3CDTF">2023-01-02T03:04:05Z</dcterms:created>
  <dcterms:modified xsi:type="dcterms:W3CDTF">2023-02-03T04:05:06Z</dcterms:modified>
</cp:coreProperties>`

const sparseCoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:creator>Jane Doe</dc:creator>
  <dc:title></dc:title>
</cp:coreProperties>`

const appXML = `<?xml version="1.0" encoding="UTF-8"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
  <Application>Microsoft Office Word</Application>
  <Company>Acme Corp</Company>
</Properties>`

func writeDocx(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractMetadata_FullProperties(t *testing.T) {
	path := writeDocx(t, map[string]string{
		contentTypesPart: contentTypesXML,
		corePropsPart:    fullCoreXML,
		appPropsPart:     appXML,
	})

	meta, err := ExtractMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", meta.Author)
	assert.Equal(t, "John Roe", meta.LastModifiedBy)
	assert.Equal(t, time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), meta.Created.UTC())
	assert.Equal(t, "Acme Corp", meta.Company)

	record := meta.Record()
	assert.Equal(t, []string{
		"Author", "Created", "Modified", "Last Modified By", "Revision",
		"Title", "Subject", "Keywords", "File Size",
		"Category", "Comments", "Application", "Company",
	}, record.Keys())

	revision, _ := record.Get("Revision")
	assert.Equal(t, 7, revision)
	created, _ := record.Get("Created")
	assert.Equal(t, "2023-01-02T03:04:05Z", created)
	keywords, _ := record.Get("Keywords")
	assert.Equal(t, "plan, budget", keywords)
}

func TestExtractMetadata_AbsentFieldsDropped(t *testing.T) {
	path := writeDocx(t, map[string]string{
		contentTypesPart: contentTypesXML,
		corePropsPart:    sparseCoreXML,
	})

	meta, err := ExtractMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Author", "File Size"}, meta.Record().Keys())
	assert.False(t, meta.Record().Has("Revision"))
}

func TestExtractMetadata_NoCoreProperties(t *testing.T) {
	path := writeDocx(t, map[string]string{contentTypesPart: contentTypesXML})

	meta, err := ExtractMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"File Size"}, meta.Record().Keys())
}

func TestExtractMetadata_BrokenAppPropertiesIgnored(t *testing.T) {
	path := writeDocx(t, map[string]string{
		contentTypesPart: contentTypesXML,
		corePropsPart:    sparseCoreXML,
		appPropsPart:     "not xml",
	})

	meta, err := ExtractMetadata(path)
	require.NoError(t, err)
	assert.Empty(t, meta.Company)
}

func TestExtractMetadata_CorruptPackages(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fake.docx")
		require.NoError(t, os.WriteFile(path, []byte("definitely not a zip archive"), 0600))

		_, err := ExtractMetadata(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, metadata.ErrCorruptFile))
	})

	t.Run("missing content types", func(t *testing.T) {
		path := writeDocx(t, map[string]string{corePropsPart: fullCoreXML})

		_, err := ExtractMetadata(path)
		require.Error(t, err)
		assert.Equal(t, metadata.ErrorKindCorruptFile, metadata.Classify(err))
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.docx")
		require.NoError(t, os.WriteFile(path, nil, 0600))

		_, err := ExtractMetadata(path)
		require.Error(t, err)
		assert.Equal(t, metadata.ErrorKindCorruptFile, metadata.Classify(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ExtractMetadata(filepath.Join(t.TempDir(), "missing.docx"))
		require.Error(t, err)
		assert.Equal(t, metadata.ErrorKindNotFound, metadata.Classify(err))
	})
}

func TestParseOfficeDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2023-01-02T03:04:05Z", time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), false},
		{"2023-01-02T03:04:05.123Z", time.Date(2023, 1, 2, 3, 4, 5, 123000000, time.UTC), false},
		{"2023-01-02T03:04:05+01:00", time.Date(2023, 1, 2, 2, 4, 5, 0, time.UTC), false},
		{"2023-01-02T03:04:05", time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), false},
		{"2023-01-02", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseOfficeDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestRevisionValue(t *testing.T) {
	assert.Nil(t, revisionValue(""))
	assert.Equal(t, 3, revisionValue("3"))
	assert.Equal(t, "1.2", revisionValue("1.2"))
}
