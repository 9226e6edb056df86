// Package kml reads placemarks from a KML document into locations.
package kml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/domain/geo"
	"github.com/kailas-cloud/placescout/internal/domain/location"
)

type coordinates struct {
	Text string `xml:"coordinates"`
}

type polygon struct {
	Outer string `xml:"outerBoundaryIs>LinearRing>coordinates"`
}

type multiGeometry struct {
	Points   []coordinates `xml:"Point"`
	Polygons []polygon     `xml:"Polygon"`
}

type dataItem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type simpleData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type extendedData struct {
	Data       []dataItem   `xml:"Data"`
	SimpleData []simpleData `xml:"SchemaData>SimpleData"`
}

type lookAt struct {
	Altitude string `xml:"altitude"`
	Range    string `xml:"range"`
	Heading  string `xml:"heading"`
	Tilt     string `xml:"tilt"`
}

type placemark struct {
	Name     string         `xml:"name"`
	N        string         `xml:"n"`
	Point    *coordinates   `xml:"Point"`
	Polygon  *polygon       `xml:"Polygon"`
	Multi    *multiGeometry `xml:"MultiGeometry"`
	Extended *extendedData  `xml:"ExtendedData"`
	LookAt   *lookAt        `xml:"LookAt"`
}

// Parse reads every Placemark at any depth. Malformed placemarks are logged
// and skipped or kept without coordinates; only an unreadable document is an
// error.
func Parse(r io.Reader, logger *zap.Logger) ([]location.Location, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dec := xml.NewDecoder(r)
	dec.Strict = false

	var (
		out     []location.Location
		ordinal int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("%w: read kml: %w", domain.ErrParse, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		ordinal++

		var pm placemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return out, fmt.Errorf("%w: placemark %d: %w", domain.ErrParse, ordinal, err)
		}

		loc, ok := build(len(out), ordinal, pm, logger)
		if ok {
			out = append(out, loc)
		}
	}

	logger.Info("KML parsed", zap.Int("placemarks", ordinal), zap.Int("locations", len(out)))
	return out, nil
}

// ParseFile opens and parses path. A missing or unreadable file is a config error.
func ParseFile(path string, logger *zap.Logger) ([]location.Location, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, domain.NewConfigError("open kml file: %v", err)
	}
	defer f.Close()

	locs, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfig, path, err)
	}
	return locs, nil
}

func build(index, ordinal int, pm placemark, logger *zap.Logger) (location.Location, bool) {
	name := strings.TrimSpace(pm.Name)
	if name == "" {
		name = strings.TrimSpace(pm.N)
	}

	raw, hasGeometry := firstCoordinate(pm)
	if name == "" && !hasGeometry {
		logger.Warn("Skipping placemark without name or geometry",
			zap.Int("placemark", ordinal), zap.Error(domain.ErrParse))
		return location.Location{}, false
	}

	attrs := attributes(pm)

	if !hasGeometry {
		logger.Debug("Placemark has no geometry", zap.String("name", name))
		return location.New(index, name, attrs), true
	}

	lat, lon, err := parseCoordinate(raw)
	if err != nil {
		logger.Warn("Invalid placemark coordinates, keeping without them",
			zap.String("name", name),
			zap.String("coordinates", raw),
			zap.Error(err),
		)
		return location.New(index, name, attrs), true
	}

	return location.NewWithCoordinates(index, name, lat, lon, attrs), true
}

// firstCoordinate returns the first lon,lat[,alt] tuple of the placemark's
// Point, else the first outer-ring vertex of its Polygon, looking inside
// MultiGeometry when neither is present directly.
func firstCoordinate(pm placemark) (string, bool) {
	candidates := make([]string, 0, 4)
	if pm.Point != nil {
		candidates = append(candidates, pm.Point.Text)
	}
	if pm.Polygon != nil {
		candidates = append(candidates, pm.Polygon.Outer)
	}
	if pm.Multi != nil {
		for _, p := range pm.Multi.Points {
			candidates = append(candidates, p.Text)
		}
		for _, p := range pm.Multi.Polygons {
			candidates = append(candidates, p.Outer)
		}
	}
	for _, c := range candidates {
		if f := strings.Fields(c); len(f) > 0 {
			return f[0], true
		}
	}
	return "", false
}

func parseCoordinate(tuple string) (lat, lon float64, err error) {
	parts := strings.Split(tuple, ",")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: coordinate %q needs lon,lat", domain.ErrParse, tuple)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude: %w", domain.ErrParse, err)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude: %w", domain.ErrParse, err)
	}
	if !geo.ValidateCoordinates(lat, lon) {
		return 0, 0, fmt.Errorf("%w: coordinate out of range: lat=%v lon=%v", domain.ErrParse, lat, lon)
	}
	return lat, lon, nil
}

func attributes(pm placemark) map[string]string {
	attrs := make(map[string]string)
	if pm.Extended != nil {
		for _, d := range pm.Extended.Data {
			if d.Name != "" && strings.TrimSpace(d.Value) != "" {
				attrs[d.Name] = d.Value
			}
		}
		for _, d := range pm.Extended.SimpleData {
			if d.Name != "" && strings.TrimSpace(d.Value) != "" {
				attrs[d.Name] = d.Value
			}
		}
	}
	if la := pm.LookAt; la != nil {
		for k, v := range map[string]string{
			"altitude": la.Altitude,
			"range":    la.Range,
			"heading":  la.Heading,
			"tilt":     la.Tilt,
		} {
			if v = strings.TrimSpace(v); v != "" {
				attrs["view_"+k] = v
			}
		}
	}
	return attrs
}
