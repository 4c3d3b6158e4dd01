// Package recording loads recorded sensor samples for replay.
package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hakbang/internal/sensor"
)

// ErrUnknownFormat is returned for files with an unsupported extension
var ErrUnknownFormat = errors.New("unknown recording format")

// ErrEmpty is returned when a recording holds no usable samples
var ErrEmpty = errors.New("recording has no samples")

// Load reads the recording at path, picking the parser by extension.
// Samples come back ordered by timestamp.
func Load(path string) ([]sensor.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	var samples []sensor.Sample
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		samples, err = ReadJSONL(f)
	case ".gpx":
		samples, err = ReadGPX(f)
	case ".fit":
		samples, err = ReadFIT(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(samples) == 0 {
		return nil, ErrEmpty
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp().Before(samples[j].Timestamp())
	})
	return samples, nil
}
