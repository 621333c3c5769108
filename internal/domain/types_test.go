package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGeoCodeString(t *testing.T) {
	tests := []struct {
		name     string
		code     GeoCode
		expected string
	}{
		{"county", GeoCode{State: "MO", Type: GeoCounty, Code: 77}, "MOC077"},
		{"zone", GeoCode{State: "GA", Type: GeoZone, Code: 87}, "GAZ087"},
		{"three digit", GeoCode{State: "SC", Type: GeoZone, Code: 140}, "SCZ140"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.String())
		})
	}
}

func TestPolygonWKT(t *testing.T) {
	p := Polygon{Points: []PolygonPoint{
		{Lat: 37.13, Lon: -93.2},
		{Lat: 37.18, Lon: -93.33},
		{Lat: 37.05, Lon: -93.41},
	}}

	wkt := p.WKT()
	assert.True(t, strings.HasPrefix(wkt, "POLYGON(("))
	// Ring closes on the first point.
	assert.True(t, strings.HasSuffix(wkt, "-93.2 37.13))"))
	assert.Equal(t, "POLYGON((-93.2 37.13, -93.33 37.18, -93.41 37.05, -93.2 37.13))", wkt)

	assert.Equal(t, "POLYGON EMPTY", Polygon{}.WKT())
}

func TestActionTerminal(t *testing.T) {
	assert.True(t, ActionCancel.Terminal())
	assert.True(t, ActionExpire.Terminal())
	assert.True(t, ActionUpgrade.Terminal())
	assert.False(t, ActionNew.Terminal())
	assert.False(t, ActionContinue.Terminal())
	assert.False(t, ActionCorrect.Terminal())
	assert.False(t, ActionRoutine.Terminal())
}

func TestEventKeyString(t *testing.T) {
	k := EventKey{Office: "KSGF", Phenomena: "FF", Significance: "W", ETN: 71}
	assert.Equal(t, "KSGF.FF.W.0071", k.String())
}

func TestProductID(t *testing.T) {
	issued := time.Date(2015, 7, 23, 15, 3, 0, 0, time.UTC)

	t.Run("deterministic", func(t *testing.T) {
		a := ProductID("KSGF", "FFWSGF", issued, 1205)
		b := ProductID("KSGF", "FFWSGF", issued, 1205)
		assert.Equal(t, a, b)
		assert.True(t, strings.HasPrefix(a, "KSGF-"))
	})

	t.Run("different inputs differ", func(t *testing.T) {
		a := ProductID("KSGF", "FFWSGF", issued, 1205)
		b := ProductID("KSGF", "FFWSGF", issued, 1206)
		assert.NotEqual(t, a, b)
	})

	t.Run("empty office has no prefix", func(t *testing.T) {
		id := ProductID("", "", time.Time{}, 0)
		assert.NotEmpty(t, id)
		assert.NotContains(t, id, "-")
	})
}
