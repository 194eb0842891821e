package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aasselin/libjio/internal/checker"
)

var checkJournalDir string

var checkCmd = &cobra.Command{
	Use:   "check <datafile>",
	Short: "Reconcile a data file with its journal and print a result table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataFile := args[0]

		result, status, err := checker.Run(cmd.Context(), dataFile, checkJournalDir)
		if err != nil {
			return fmt.Errorf("check %s: %w", dataFile, err)
		}

		switch status {
		case checker.StatusNoDataFile:
			return fmt.Errorf("check: no such data file: %s", dataFile)
		case checker.StatusNoJournal:
			return fmt.Errorf("check: no journal directory for: %s", dataFile)
		case checker.StatusOutOfMemory:
			return fmt.Errorf("check: failed with status %d", status)
		}

		printCheckResult(cmd.OutOrStdout(), result, status)
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkJournalDir, "journal-dir", "", "journal directory path (default: sibling hidden directory derived from the data file)")
}
