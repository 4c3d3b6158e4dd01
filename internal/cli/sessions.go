package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hakbang/internal/service"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().Int("limit", service.RecentSessionsLimit, "Number of sessions to list")
	sessionsCmd.Flags().Int("offset", 0, "Number of sessions to skip")
}

func runSessions(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	sessions, total, err := e.history.List(limit, offset)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("No saved sessions yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tACTIVITY\tDISTANCE\tTIME\tPACE\tREPS")
	for _, s := range sessions {
		dist, pace, count := "-", "-", "-"
		if s.Kind.DistanceBased() {
			dist = fmt.Sprintf("%.2f km", s.Metrics.DistanceKm())
			pace = formatPace(s.Metrics.PaceSecondsPerKm)
		} else {
			count = humanize.Comma(int64(s.Metrics.RepCount))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(s.ID),
			humanize.Time(s.StartedAt),
			s.Kind.String(),
			dist,
			formatDuration(s.Metrics.DurationSeconds),
			pace,
			count,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%s of %s sessions\n", humanize.Comma(int64(len(sessions))), humanize.Comma(int64(total)))
	return nil
}

// shortID keeps the first block of a UUID for listings
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats seconds as "H:MM:SS" or "M:SS"
func formatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatPace formats seconds per km as "M:SS"
func formatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 {
		return "-"
	}
	p := int(secondsPerKm + 0.5)
	return fmt.Sprintf("%d:%02d", p/60, p%60)
}
