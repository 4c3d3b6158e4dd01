package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hakbang/internal/tui"
)

var showCmd = &cobra.Command{
	Use:   "show [session id]",
	Short: "Show a saved session with splits and best efforts",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := resolveID(e, args[0])
	if err != nil {
		return err
	}

	detail, err := e.history.Detail(id)
	if err != nil {
		return err
	}
	fmt.Println(tui.RenderSessionDetail(detail, tui.NewUnits(e.cfg.Display)))
	return nil
}

// resolveID expands a listing prefix to a full session ID
func resolveID(e *env, prefix string) (string, error) {
	id, err := e.db.FindSessionID(prefix)
	if err != nil {
		return "", fmt.Errorf("session %q: %w", prefix, err)
	}
	return id, nil
}
