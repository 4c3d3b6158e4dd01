package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hakbang/internal/recording"
	"hakbang/internal/sensor"
)

var exportCmd = &cobra.Command{
	Use:   "export [session id] [file]",
	Short: "Export the trail of a saved session as .gpx or .jsonl",
	Long: `Write the smoothed trail of a distance session. A .jsonl export can
be replayed with 'hakbang track'.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := resolveID(e, args[0])
	if err != nil {
		return err
	}
	s, err := e.db.GetSession(id)
	if err != nil {
		return err
	}
	if len(s.Trail) == 0 {
		return fmt.Errorf("session %s has no trail to export", id)
	}

	path := args[1]
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		err = recording.WriteGPX(f, s.Kind.String(), s.Trail)
	case ".jsonl":
		samples := make([]sensor.Sample, len(s.Trail))
		for i, p := range s.Trail {
			samples[i] = p
		}
		err = recording.WriteJSONL(f, samples)
	default:
		return fmt.Errorf("%w: %s", recording.ErrUnknownFormat, filepath.Ext(path))
	}
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d points to %s\n", len(s.Trail), path)
	return f.Close()
}
