// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package geo converts EXIF GPS values into decimal-degree coordinates and
// builds map links for them.
package geo

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// DefaultMapsURLTemplate is the Google Maps link format. The two verbs are
// latitude and longitude.
const DefaultMapsURLTemplate = "https://www.google.com/maps?q=%s,%s"

// DMS is a degrees, minutes, seconds triple
type DMS struct {
	Degrees float64
	Minutes float64
	Seconds float64
}

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" msgpack:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude" msgpack:"longitude"`
}

// ParseDMS builds a DMS from the first three values. It reports false for
// fewer than three values, non-finite components, or negative minutes or
// seconds.
func ParseDMS(values []float64) (DMS, bool) {
	if len(values) < 3 {
		return DMS{}, false
	}
	for _, v := range values[:3] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return DMS{}, false
		}
	}
	if values[1] < 0 || values[2] < 0 {
		return DMS{}, false
	}
	return DMS{Degrees: values[0], Minutes: values[1], Seconds: values[2]}, true
}

// IsNegativeHemisphere reports whether ref names the southern or western
// hemisphere. Comparison is case-insensitive.
func IsNegativeHemisphere(ref string) bool {
	ref = strings.TrimSpace(ref)
	return strings.EqualFold(ref, "S") || strings.EqualFold(ref, "W")
}

// ToDecimalDegrees computes degrees + minutes/60 + seconds/3600, negated for
// the S and W hemispheres.
func ToDecimalDegrees(dms DMS, ref string) float64 {
	value := dms.Degrees + dms.Minutes/60.0 + dms.Seconds/3600.0
	if value == 0 {
		return 0
	}
	if IsNegativeHemisphere(ref) {
		return -value
	}
	return value
}

// NewCoordinates converts a pair of DMS triples. Out-of-range results are
// rejected so callers can treat them as "no location available".
func NewCoordinates(lat DMS, latRef string, lon DMS, lonRef string) (Coordinates, bool) {
	c := Coordinates{
		Latitude:  ToDecimalDegrees(lat, latRef),
		Longitude: ToDecimalDegrees(lon, lonRef),
	}
	if !c.Valid() {
		return Coordinates{}, false
	}
	return c, true
}

// Valid reports whether both components are finite and within range
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// LatitudeString formats the latitude with six decimal places
func (c Coordinates) LatitudeString() string {
	return fmt.Sprintf("%.6f", c.Latitude)
}

// LongitudeString formats the longitude with six decimal places
func (c Coordinates) LongitudeString() string {
	return fmt.Sprintf("%.6f", c.Longitude)
}

// String renders "lat, lon"
func (c Coordinates) String() string {
	return c.LatitudeString() + ", " + c.LongitudeString()
}

// MapURL returns the Google Maps link for c
func MapURL(c Coordinates) string {
	return MapURLWithTemplate(DefaultMapsURLTemplate, c)
}

// MapURLWithTemplate formats c into a template with two %s verbs. An empty
// or malformed template falls back to the default.
func MapURLWithTemplate(template string, c Coordinates) string {
	if strings.Count(template, "%s") != 2 {
		template = DefaultMapsURLTemplate
	}
	return fmt.Sprintf(template, c.LatitudeString(), c.LongitudeString())
}

// EmbedURL returns an OpenStreetMap embed URL centred on c with a marker.
// span is the half-width of the bounding box in degrees.
func EmbedURL(c Coordinates, span float64) string {
	if span <= 0 {
		span = 0.01
	}
	minLon := math.Max(c.Longitude-span, -180)
	maxLon := math.Min(c.Longitude+span, 180)
	minLat := math.Max(c.Latitude-span, -90)
	maxLat := math.Min(c.Latitude+span, 90)

	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", minLon, minLat, maxLon, maxLat))
	q.Set("layer", "mapnik")
	q.Set("marker", c.LatitudeString()+","+c.LongitudeString())
	return "https://www.openstreetmap.org/export/embed.html?" + q.Encode()
}
