package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [session id]",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := resolveID(e, args[0])
	if err != nil {
		return err
	}
	if err := e.history.Delete(id); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", id)
	return nil
}
