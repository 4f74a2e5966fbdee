// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metaextractexiflib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaview/internal/metadata"
)

// ifdEntry is one TIFF directory entry used to assemble test EXIF blocks
type ifdEntry struct {
	id    uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(id uint16, s string) ifdEntry {
	b := append([]byte(s), 0)
	return ifdEntry{id: id, typ: 2, count: uint32(len(b)), data: b}
}

func longEntry(id uint16, v uint32) ifdEntry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return ifdEntry{id: id, typ: 4, count: 1, data: b}
}

func byteEntry(id uint16, v byte) ifdEntry {
	return ifdEntry{id: id, typ: 1, count: 1, data: []byte{v}}
}

func rationalEntry(id uint16, pairs ...uint32) ifdEntry {
	b := make([]byte, 4*len(pairs))
	for i, p := range pairs {
		binary.LittleEndian.PutUint32(b[4*i:], p)
	}
	return ifdEntry{id: id, typ: 5, count: uint32(len(pairs) / 2), data: b}
}

func ifdSize(entries []ifdEntry) int {
	size := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			size += len(e.data)
		}
	}
	return size
}

// encodeIFD lays out entries at offset start with out-of-line values after
// the directory.
func encodeIFD(start int, entries []ifdEntry) []byte {
	var dir, extra bytes.Buffer
	le := binary.LittleEndian
	dataOffset := start + 2 + 12*len(entries) + 4

	_ = binary.Write(&dir, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&dir, le, e.id)
		_ = binary.Write(&dir, le, e.typ)
		_ = binary.Write(&dir, le, e.count)
		if len(e.data) > 4 {
			_ = binary.Write(&dir, le, uint32(dataOffset+extra.Len()))
			extra.Write(e.data)
		} else {
			v := make([]byte, 4)
			copy(v, e.data)
			dir.Write(v)
		}
	}
	_ = binary.Write(&dir, le, uint32(0))
	return append(dir.Bytes(), extra.Bytes()...)
}

// buildTIFF returns a little-endian TIFF block with IFD0 and an optional GPS IFD
func buildTIFF(ifd0 []ifdEntry, gps []ifdEntry) []byte {
	const headerLen = 8
	if len(gps) > 0 {
		ifd0 = append(ifd0, longEntry(0x8825, 0))
		gpsOffset := headerLen + ifdSize(ifd0)
		ifd0[len(ifd0)-1] = longEntry(0x8825, uint32(gpsOffset))
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(headerLen))
	buf.Write(encodeIFD(headerLen, ifd0))
	if len(gps) > 0 {
		buf.Write(encodeIFD(buf.Len(), gps))
	}
	return buf.Bytes()
}

// withExif splices an APP1 segment directly after the JPEG SOI marker
func withExif(jpegData, tiffData []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiffData...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))
	segment = append(segment, payload...)

	out := append([]byte{}, jpegData[:2]...)
	out = append(out, segment...)
	return append(out, jpegData[2:]...)
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestExtractExif_GeotaggedJPEG(t *testing.T) {
	tiffData := buildTIFF(
		[]ifdEntry{asciiEntry(0x010F, "Canon"), asciiEntry(0x0110, "EOS 5D")},
		[]ifdEntry{
			asciiEntry(0x0001, "N"),
			rationalEntry(0x0002, 40, 1, 26, 1, 46, 1),
			asciiEntry(0x0003, "w"),
			rationalEntry(0x0004, 79, 1, 58, 1, 56, 1),
			byteEntry(0x0005, 1),
			rationalEntry(0x0006, 1250, 100),
		},
	)
	path := writeFile(t, "geo.jpg", withExif(encodeJPEG(t, 8, 6), tiffData))

	data, err := ExtractExif(path)
	require.NoError(t, err)

	cameraMake, ok := data.Record.Get("Make")
	require.True(t, ok)
	assert.Equal(t, "Canon", cameraMake)
	model, _ := data.Record.Get("Model")
	assert.Equal(t, "EOS 5D", model)
	altitude, _ := data.Record.Get("GPSAltitude")
	assert.Equal(t, "-12.50 m", altitude)
	assert.False(t, data.Record.Has("GPSInfoIFDPointer"))

	require.NotNil(t, data.Location)
	assert.InDelta(t, 40.446111, data.Location.Latitude, 1e-6)
	assert.InDelta(t, -79.982222, data.Location.Longitude, 1e-6)

	format, _ := data.Record.Get("Format")
	assert.Equal(t, "JPEG", format)
	mode, _ := data.Record.Get("Mode")
	assert.Equal(t, "RGB", mode)
	size, _ := data.Record.Get("Size")
	assert.Equal(t, "(8, 6)", size)

	keys := data.Record.Keys()
	assert.Equal(t, []string{"Format", "Mode", "Size"}, keys[len(keys)-3:])
}

func TestExtractExif_IncompleteGPSHasNoLocation(t *testing.T) {
	tiffData := buildTIFF(
		[]ifdEntry{asciiEntry(0x010F, "Nikon")},
		[]ifdEntry{
			asciiEntry(0x0001, "N"),
			rationalEntry(0x0002, 40, 1, 26, 1, 46, 1),
		},
	)
	path := writeFile(t, "partial.jpg", withExif(encodeJPEG(t, 4, 4), tiffData))

	data, err := ExtractExif(path)
	require.NoError(t, err)
	assert.Nil(t, data.Location)
	assert.True(t, data.Record.Has("GPSLatitude"))
}

func TestExtractExif_ZeroDenominatorHasNoLocation(t *testing.T) {
	tiffData := buildTIFF(nil, []ifdEntry{
		asciiEntry(0x0001, "S"),
		rationalEntry(0x0002, 40, 0, 26, 1, 46, 1),
		asciiEntry(0x0003, "E"),
		rationalEntry(0x0004, 79, 1, 58, 1, 56, 1),
	})
	path := writeFile(t, "zero.jpg", withExif(encodeJPEG(t, 4, 4), tiffData))

	data, err := ExtractExif(path)
	require.NoError(t, err)
	assert.Nil(t, data.Location)
}

func TestExtractExif_PNGWithoutExif(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 3))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := writeFile(t, "plain.png", buf.Bytes())

	data, err := ExtractExif(path)
	require.NoError(t, err)
	assert.Nil(t, data.Location)
	assert.Equal(t, []string{"Format", "Mode", "Size"}, data.Record.Keys())

	format, _ := data.Record.Get("Format")
	assert.Equal(t, "PNG", format)
	mode, _ := data.Record.Get("Mode")
	assert.Equal(t, "L", mode)
	size, _ := data.Record.Get("Size")
	assert.Equal(t, "(5, 3)", size)
}

func TestExtractExif_PNGModes(t *testing.T) {
	opaque := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	translucent := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range opaque.Pix {
		opaque.Pix[i] = 0xff
	}
	translucent.Pix[3] = 0x80
	paletted := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})

	tests := []struct {
		name string
		img  image.Image
		want string
	}{
		{"opaque truecolor", opaque, "RGB"},
		{"truecolor with alpha", translucent, "RGBA"},
		{"palette", paletted, "P"},
		{"gray", image.NewGray(image.Rect(0, 0, 2, 2)), "L"},
		{"gray16", image.NewGray16(image.Rect(0, 0, 2, 2)), "I;16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, png.Encode(&buf, tt.img))
			path := writeFile(t, "mode.png", buf.Bytes())

			data, err := ExtractExif(path)
			require.NoError(t, err)
			mode, _ := data.Record.Get("Mode")
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestPNGColorMode_ShortHeader(t *testing.T) {
	_, ok := pngColorMode([]byte("\x89PNG"))
	assert.False(t, ok)
}

func TestExtractExif_CorruptImage(t *testing.T) {
	path := writeFile(t, "broken.jpg", []byte("this is not an image at all"))

	_, err := ExtractExif(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, metadata.ErrCorruptFile))
	assert.Equal(t, metadata.ErrorKindCorruptFile, metadata.Classify(err))
}

func TestExtractExif_MissingFile(t *testing.T) {
	_, err := ExtractExif(filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.Equal(t, metadata.ErrorKindNotFound, metadata.Classify(err))
}

func TestColorModeName(t *testing.T) {
	tests := []struct {
		model color.Model
		want  string
	}{
		{color.RGBAModel, "RGBA"},
		{color.NRGBAModel, "RGBA"},
		{color.GrayModel, "L"},
		{color.YCbCrModel, "RGB"},
		{color.CMYKModel, "CMYK"},
		{color.Palette{color.Black, color.White}, "P"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, colorModeName(tt.model))
	}
}

func TestUndefinedValue(t *testing.T) {
	assert.Equal(t, "0230", undefinedValue([]byte("0230")))
	assert.Equal(t, "<3 bytes of binary data>", undefinedValue([]byte{0x01, 0x02, 0xff}))
	assert.Equal(t, "<100 bytes of binary data>", undefinedValue(bytes.Repeat([]byte("a"), 100)))
}
