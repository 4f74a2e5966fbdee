// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metaextractexiflib

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"metaview/internal/geo"
	"metaview/internal/metadata"
)

// maxUndefinedBytes is the longest UNDEFINED tag rendered as text
const maxUndefinedBytes = 64

// pngHeaderLen covers the signature and the IHDR chunk up to the colour type
const pngHeaderLen = 26

// ExifData represents the extracted image metadata
type ExifData struct {
	FilePath string
	Record   *metadata.Record
	Location *geo.Coordinates
}

// exifWalker implements the Walker interface to collect all EXIF tags
type exifWalker struct {
	tags map[string]*tiff.Tag
}

// Walk implements the Walker interface
func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag == nil {
		return nil
	}
	switch name {
	case exif.ExifIFDPointer, exif.GPSInfoIFDPointer, exif.InteroperabilityIFDPointer:
		return nil
	}
	w.tags[string(name)] = tag
	return nil
}

// ExtractExif extracts EXIF tags and basic image properties from an image
// file. A missing EXIF block is not an error.
func ExtractExif(filePath string) (result *ExifData, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: image decoder panic: %v", metadata.ErrCorruptFile, r)
		}
	}()

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot identify image file: %v", metadata.ErrCorruptFile, err)
	}

	result = &ExifData{
		FilePath: filePath,
		Record:   metadata.NewRecord(),
	}

	mode := colorModeName(cfg.ColorModel)
	if format == "png" {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("error rewinding file: %w", err)
		}
		header := make([]byte, pngHeaderLen)
		if _, err := io.ReadFull(f, header); err == nil {
			if m, ok := pngColorMode(header); ok {
				mode = m
			}
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error rewinding file: %w", err)
	}
	x, err := exif.Decode(f)
	if x != nil && (err == nil || !exif.IsCriticalError(err)) {
		addTags(result.Record, x)
		result.Location = gpsLocation(x)
		addAltitude(result.Record, x)
	}

	result.Record.Set("Format", strings.ToUpper(format))
	result.Record.Set("Mode", mode)
	result.Record.Set("Size", metadata.Tuple(cfg.Width, cfg.Height))

	return result, nil
}

// addTags stores every walked tag in alphabetical order
func addTags(record *metadata.Record, x *exif.Exif) {
	walker := &exifWalker{tags: make(map[string]*tiff.Tag)}
	_ = x.Walk(walker)

	names := make([]string, 0, len(walker.tags))
	for name := range walker.tags {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		record.Set(name, TagValue(walker.tags[name]))
	}
}

// TagValue converts a TIFF tag into a display value. Single numeric values
// stay numeric, multi-valued tags become tuples.
func TagValue(tag *tiff.Tag) (v any) {
	defer func() {
		if recover() != nil {
			v = metadata.UnserializableValue
		}
	}()

	count := int(tag.Count)
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return tag.String()
		}
		return strings.TrimSpace(s)
	case tiff.IntVal:
		values := make([]any, 0, count)
		for i := 0; i < count; i++ {
			n, err := tag.Int64(i)
			if err != nil {
				return tag.String()
			}
			values = append(values, n)
		}
		return collapse(values)
	case tiff.RatVal:
		values := make([]any, 0, count)
		for i := 0; i < count; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return tag.String()
			}
			values = append(values, ratFloat(num, den))
		}
		return collapse(values)
	case tiff.FloatVal:
		values := make([]any, 0, count)
		for i := 0; i < count; i++ {
			f, err := tag.Float(i)
			if err != nil {
				return tag.String()
			}
			values = append(values, f)
		}
		return collapse(values)
	case tiff.UndefVal:
		return undefinedValue(tag.Val)
	}
	return tag.String()
}

func collapse(values []any) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	}
	return metadata.Tuple(values...)
}

func undefinedValue(b []byte) any {
	trimmed := strings.TrimRight(string(b), "\x00 ")
	if len(trimmed) <= maxUndefinedBytes && isPrintable(trimmed) {
		return trimmed
	}
	return fmt.Sprintf("<%d bytes of binary data>", len(b))
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func ratFloat(num, den int64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// gpsLocation converts GPS tags to decimal degrees. Missing or malformed
// tags yield nil.
func gpsLocation(x *exif.Exif) *geo.Coordinates {
	lat, ok := dmsTag(x, exif.GPSLatitude)
	if !ok {
		return nil
	}
	lon, ok := dmsTag(x, exif.GPSLongitude)
	if !ok {
		return nil
	}
	c, ok := geo.NewCoordinates(lat, stringTag(x, exif.GPSLatitudeRef), lon, stringTag(x, exif.GPSLongitudeRef))
	if !ok {
		return nil
	}
	return &c
}

func dmsTag(x *exif.Exif, name exif.FieldName) (geo.DMS, bool) {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.RatVal || tag.Count < 3 {
		return geo.DMS{}, false
	}
	values := make([]float64, 3)
	for i := range values {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return geo.DMS{}, false
		}
		values[i] = ratFloat(num, den)
	}
	return geo.ParseDMS(values)
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// addAltitude rewrites GPSAltitude as metres, negative below sea level
func addAltitude(record *metadata.Record, x *exif.Exif) {
	tag, err := x.Get(exif.GPSAltitude)
	if err != nil || tag.Format() != tiff.RatVal || tag.Count < 1 {
		return
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return
	}
	altitude := ratFloat(num, den)
	if ref, err := x.Get(exif.GPSAltitudeRef); err == nil {
		if v, err := ref.Int(0); err == nil && v == 1 {
			altitude = -altitude
		}
	}
	record.Set(string(exif.GPSAltitude), fmt.Sprintf("%.2f m", altitude))
}

// pngColorMode reads the mode from the IHDR bit depth and colour type.
// image/png decodes opaque truecolor as RGBA, which hides the difference
// between RGB and RGBA files.
func pngColorMode(header []byte) (string, bool) {
	if len(header) < pngHeaderLen || string(header[12:16]) != "IHDR" {
		return "", false
	}
	depth, colorType := header[24], header[25]
	switch colorType {
	case 0:
		switch depth {
		case 1:
			return "1", true
		case 16:
			return "I;16", true
		}
		return "L", true
	case 2:
		return "RGB", true
	case 3:
		return "P", true
	case 4:
		return "LA", true
	case 6:
		return "RGBA", true
	}
	return "", false
}

// colorModeName maps a color model to the conventional mode name
func colorModeName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	case color.YCbCrModel:
		return "RGB"
	case color.NYCbCrAModel:
		return "RGBA"
	case color.CMYKModel:
		return "CMYK"
	}
	return "Unknown"
}
