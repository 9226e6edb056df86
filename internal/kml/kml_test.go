package kml

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/domain/location"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
  <name>Imminent Domain</name>
  <Folder>
    <Placemark>
      <name>Groom Lake</name>
      <LookAt><altitude>0</altitude><range>1500</range><heading>12.5</heading><tilt>45</tilt></LookAt>
      <ExtendedData>
        <Data name="notes"><value>restricted</value></Data>
        <Data name="empty"><value>  </value></Data>
      </ExtendedData>
      <Point><coordinates>-115.7930,37.2431,0</coordinates></Point>
    </Placemark>
    <Placemark>
      <n>Tonopah Test Range</n>
      <Polygon><outerBoundaryIs><LinearRing>
        <coordinates>-116.77,37.79,0 -116.70,37.80,0 -116.77,37.79,0</coordinates>
      </LinearRing></outerBoundaryIs></Polygon>
    </Placemark>
    <Placemark>
      <MultiGeometry>
        <Point><coordinates>-115.03,36.23</coordinates></Point>
      </MultiGeometry>
    </Placemark>
    <Placemark>
      <name>Nowhere</name>
    </Placemark>
    <Placemark>
      <description>no name, no geometry</description>
    </Placemark>
    <Placemark>
      <name>Broken</name>
      <Point><coordinates>abc,def</coordinates></Point>
    </Placemark>
    <Placemark>
      <name>Off Planet</name>
      <Point><coordinates>200,95</coordinates></Point>
    </Placemark>
  </Folder>
</Document>
</kml>`

func parseSample(t *testing.T) ([]location.Location, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	locs, err := Parse(strings.NewReader(sample), zap.New(core))
	require.NoError(t, err)
	return locs, logs
}

func TestParse_Placemarks(t *testing.T) {
	locs, _ := parseSample(t)
	require.Len(t, locs, 6)

	names := make([]string, len(locs))
	for i, l := range locs {
		names[i] = l.Name()
		assert.Equal(t, i, l.Index())
	}
	assert.Equal(t, []string{
		"Groom Lake", "Tonopah Test Range", location.UnknownName, "Nowhere", "Broken", "Off Planet",
	}, names)
}

func TestParse_PointCoordinatesAreLonLat(t *testing.T) {
	locs, _ := parseSample(t)

	groom := locs[0]
	require.True(t, groom.HasCoordinates())
	assert.InDelta(t, 37.2431, groom.Latitude(), 1e-9)
	assert.InDelta(t, -115.7930, groom.Longitude(), 1e-9)
}

func TestParse_PolygonAndMultiGeometryUseFirstVertex(t *testing.T) {
	locs, _ := parseSample(t)

	require.True(t, locs[1].HasCoordinates())
	assert.InDelta(t, 37.79, locs[1].Latitude(), 1e-9)
	assert.InDelta(t, -116.77, locs[1].Longitude(), 1e-9)

	require.True(t, locs[2].HasCoordinates())
	assert.InDelta(t, 36.23, locs[2].Latitude(), 1e-9)
}

func TestParse_Attributes(t *testing.T) {
	locs, _ := parseSample(t)

	attrs := locs[0].Attributes()
	assert.Equal(t, "restricted", attrs["notes"])
	assert.Equal(t, "1500", attrs["view_range"])
	assert.Equal(t, "45", attrs["view_tilt"])
	assert.NotContains(t, attrs, "empty")
}

func TestParse_InvalidCoordinatesKeptWithoutThem(t *testing.T) {
	locs, logs := parseSample(t)

	assert.False(t, locs[3].HasCoordinates(), "no geometry")
	assert.False(t, locs[4].HasCoordinates(), "unparseable")
	assert.False(t, locs[5].HasCoordinates(), "out of range")

	// two bad coordinate warnings plus one skipped placemark
	assert.Equal(t, 3, logs.Len())
}

func TestParse_Empty(t *testing.T) {
	locs, err := Parse(strings.NewReader(`<kml><Document/></kml>`), nil)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<kml><Document><Placemark><name>x</name>`), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrParse))
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.kml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	locs, err := ParseFile(path, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, locs, 6)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.kml"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfig))
}
