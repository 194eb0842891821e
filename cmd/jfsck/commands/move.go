package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aasselin/libjio/jio"
)

var moveCmd = &cobra.Command{
	Use:   "move <datafile> <newdir>",
	Short: "Relocate a data file's journal directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataFile, newDir := args[0], args[1]

		h, err := jio.Open(dataFile, os.O_RDWR, 0600, 0)
		if err != nil {
			return fmt.Errorf("move: open %s: %w", dataFile, err)
		}
		defer h.Close()

		if err := h.MoveJournal(newDir); err != nil {
			return fmt.Errorf("move: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "journal for %s now at %s\n", dataFile, h.JournalDir())
		return nil
	},
}
