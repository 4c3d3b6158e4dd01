package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List personal records",
	Args:  cobra.NoArgs,
	RunE:  runRecords,
}

func runRecords(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	records, err := e.history.Records()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No personal records yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tVALUE\tSESSION\tWHEN")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Category, formatRecord(r.Category, r.Value), shortID(r.SessionID), humanize.Time(r.AchievedAt))
	}
	return w.Flush()
}

// formatRecord renders a record value according to its category suffix
func formatRecord(category string, value float64) string {
	switch {
	case strings.HasSuffix(category, "_longest"):
		return fmt.Sprintf("%.2f km", value/1000)
	case strings.HasSuffix(category, "_fastest_pace"):
		return formatPace(value) + " /km"
	case strings.Contains(category, "_effort_"):
		return formatDuration(value)
	case strings.HasSuffix(category, "_most_calories"):
		return fmt.Sprintf("%.0f kcal", value)
	}
	return humanize.Commaf(value)
}
