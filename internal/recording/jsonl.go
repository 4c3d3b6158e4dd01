package recording

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"hakbang/internal/sensor"
)

// line is one JSONL record: the family tag plus the sample fields
type line struct {
	Family sensor.Family   `json:"family"`
	Sample json.RawMessage `json:"sample"`
}

// ReadJSONL parses the native format, one tagged sample per line.
// Blank lines and lines starting with # are skipped.
func ReadJSONL(r io.Reader) ([]sensor.Sample, error) {
	var samples []sensor.Sample

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var l line
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		s, err := decodeSample(l)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func decodeSample(l line) (sensor.Sample, error) {
	switch l.Family {
	case sensor.FamilyLocation:
		var v sensor.Location
		err := json.Unmarshal(l.Sample, &v)
		return v, err
	case sensor.FamilyMotion:
		var v sensor.Motion
		err := json.Unmarshal(l.Sample, &v)
		return v, err
	case sensor.FamilyFace:
		var v sensor.Face
		err := json.Unmarshal(l.Sample, &v)
		return v, err
	case sensor.FamilyOrientation:
		var v sensor.Orientation
		err := json.Unmarshal(l.Sample, &v)
		return v, err
	}
	return nil, fmt.Errorf("unknown sample family %q", l.Family)
}

// WriteJSONL writes samples in the format ReadJSONL reads.
func WriteJSONL(w io.Writer, samples []sensor.Sample) error {
	enc := json.NewEncoder(w)
	for _, s := range samples {
		f, err := familyOf(s)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding sample: %w", err)
		}
		if err := enc.Encode(line{Family: f, Sample: raw}); err != nil {
			return err
		}
	}
	return nil
}

func familyOf(s sensor.Sample) (sensor.Family, error) {
	switch s.(type) {
	case sensor.Location:
		return sensor.FamilyLocation, nil
	case sensor.Motion:
		return sensor.FamilyMotion, nil
	case sensor.Face:
		return sensor.FamilyFace, nil
	case sensor.Orientation:
		return sensor.FamilyOrientation, nil
	}
	return "", fmt.Errorf("unsupported sample %T", s)
}
