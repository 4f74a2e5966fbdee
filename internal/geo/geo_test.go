// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDecimalDegrees(t *testing.T) {
	tests := []struct {
		name string
		dms  DMS
		ref  string
		want float64
	}{
		{"zero north", DMS{0, 0, 0}, "N", 0.0},
		{"north", DMS{40, 26, 46}, "N", 40.446111},
		{"south", DMS{40, 26, 46}, "S", -40.446111},
		{"lowercase south", DMS{40, 26, 46}, "s", -40.446111},
		{"east", DMS{79, 58, 56}, "E", 79.982222},
		{"west", DMS{79, 58, 56}, "W", -79.982222},
		{"lowercase west", DMS{79, 58, 56}, "w", -79.982222},
		{"padded ref", DMS{10, 30, 0}, " W ", -10.5},
		{"empty ref", DMS{10, 30, 0}, "", 10.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDecimalDegrees(tt.dms, tt.ref)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestToDecimalDegrees_HemisphereSign(t *testing.T) {
	for deg := 0.0; deg <= 90; deg += 15 {
		for min := 0.0; min < 60; min += 20 {
			dms := DMS{deg, min, 30}
			assert.Less(t, ToDecimalDegrees(dms, "S"), 0.0)
			assert.GreaterOrEqual(t, ToDecimalDegrees(dms, "N"), 0.0)
		}
	}
	assert.GreaterOrEqual(t, ToDecimalDegrees(DMS{}, "N"), 0.0)
}

func TestToDecimalDegrees_NoNegativeZero(t *testing.T) {
	for _, ref := range []string{"S", "W"} {
		got := ToDecimalDegrees(DMS{}, ref)
		assert.False(t, math.Signbit(got), ref)
	}

	c, ok := NewCoordinates(DMS{}, "S", DMS{}, "W")
	require.True(t, ok)
	assert.Equal(t, "https://www.google.com/maps?q=0.000000,0.000000", MapURL(c))
}

func TestParseDMS(t *testing.T) {
	dms, ok := ParseDMS([]float64{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, DMS{1, 2, 3}, dms)

	_, ok = ParseDMS([]float64{1, 2})
	assert.False(t, ok, "short triple")

	_, ok = ParseDMS(nil)
	assert.False(t, ok, "missing triple")

	_, ok = ParseDMS([]float64{1, math.NaN(), 3})
	assert.False(t, ok, "NaN component")

	_, ok = ParseDMS([]float64{1, 2, math.Inf(1)})
	assert.False(t, ok, "infinite component")

	_, ok = ParseDMS([]float64{1, -2, 3})
	assert.False(t, ok, "negative minutes")
}

func TestNewCoordinates(t *testing.T) {
	c, ok := NewCoordinates(DMS{40, 26, 46}, "N", DMS{79, 58, 56}, "W")
	require.True(t, ok)
	assert.InDelta(t, 40.446111, c.Latitude, 1e-6)
	assert.InDelta(t, -79.982222, c.Longitude, 1e-6)

	_, ok = NewCoordinates(DMS{95, 0, 0}, "N", DMS{0, 0, 0}, "E")
	assert.False(t, ok, "latitude out of range")
}

func TestMapURL(t *testing.T) {
	c := Coordinates{Latitude: 40.446111, Longitude: -79.982222}
	assert.Equal(t, "https://www.google.com/maps?q=40.446111,-79.982222", MapURL(c))
	assert.Equal(t, "https://maps.example/?ll=40.446111,-79.982222",
		MapURLWithTemplate("https://maps.example/?ll=%s,%s", c))
	assert.Equal(t, MapURL(c), MapURLWithTemplate("broken", c))
}

func TestEmbedURL(t *testing.T) {
	c := Coordinates{Latitude: 89.999, Longitude: 179.999}
	u := EmbedURL(c, 0)
	assert.True(t, strings.HasPrefix(u, "https://www.openstreetmap.org/export/embed.html?"))
	assert.Contains(t, u, "marker=89.999000%2C179.999000")
	assert.Contains(t, u, "180.000000")
}
