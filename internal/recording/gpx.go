package recording

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"hakbang/internal/sensor"
)

// GPXAccuracy is the accuracy assumed for GPX trackpoints, which carry none
const GPXAccuracy = 5.0

type gpxPoint struct {
	Lat  float64  `xml:"lat,attr"`
	Lon  float64  `xml:"lon,attr"`
	Ele  *float64 `xml:"ele,omitempty"`
	Time string   `xml:"time,omitempty"`
}

type gpx struct {
	XMLName xml.Name `xml:"gpx"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Creator string   `xml:"creator,attr,omitempty"`
	Version string   `xml:"version,attr,omitempty"`
	Tracks  []struct {
		Name     string `xml:"name,omitempty"`
		Type     string `xml:"type,omitempty"`
		Segments []struct {
			Points []gpxPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

// ReadGPX turns every timestamped trackpoint into a location sample.
// Points without a time cannot be replayed and are skipped.
func ReadGPX(r io.Reader) ([]sensor.Sample, error) {
	var doc gpx
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing GPX: %w", err)
	}

	var samples []sensor.Sample
	for _, track := range doc.Tracks {
		for _, seg := range track.Segments {
			for _, pt := range seg.Points {
				if pt.Time == "" {
					continue
				}
				t, err := parseGPXTime(pt.Time)
				if err != nil {
					return nil, err
				}
				samples = append(samples, sensor.Location{
					Lat:      pt.Lat,
					Lng:      pt.Lon,
					Accuracy: GPXAccuracy,
					Time:     t,
				})
			}
		}
	}
	return samples, nil
}

func parseGPXTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised GPX time %q", s)
}

// WriteGPX writes a trail as a single-segment GPX track.
func WriteGPX(w io.Writer, name string, trail []sensor.Location) error {
	type seg struct {
		Points []gpxPoint `xml:"trkpt"`
	}
	type trk struct {
		Name     string `xml:"name,omitempty"`
		Segments []seg  `xml:"trkseg"`
	}
	type doc struct {
		XMLName xml.Name `xml:"gpx"`
		Xmlns   string   `xml:"xmlns,attr"`
		Creator string   `xml:"creator,attr"`
		Version string   `xml:"version,attr"`
		Tracks  []trk    `xml:"trk"`
	}

	points := make([]gpxPoint, len(trail))
	for i, p := range trail {
		points[i] = gpxPoint{Lat: p.Lat, Lon: p.Lng, Time: p.Time.UTC().Format(time.RFC3339)}
	}

	out := doc{
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Creator: "hakbang",
		Version: "1.1",
		Tracks:  []trk{{Name: name, Segments: []seg{{Points: points}}}},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding GPX: %w", err)
	}
	return enc.Flush()
}
