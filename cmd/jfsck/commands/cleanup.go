package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aasselin/libjio/internal/checker"
	"github.com/aasselin/libjio/internal/journal"
)

var cleanupJournalDir string

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <datafile>",
	Short: "Run the checker then remove the now-empty journal directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataFile := args[0]
		journalDir := cleanupJournalDir
		if journalDir == "" {
			journalDir = journal.DirName(dataFile)
		}

		result, status, err := checker.Run(cmd.Context(), dataFile, journalDir)
		if err != nil {
			return fmt.Errorf("cleanup %s: %w", dataFile, err)
		}

		if status != checker.StatusSuccess {
			switch status {
			case checker.StatusNoDataFile:
				return fmt.Errorf("cleanup: no such data file: %s", dataFile)
			case checker.StatusNoJournal:
				return fmt.Errorf("cleanup: no journal directory for: %s", dataFile)
			default:
				return fmt.Errorf("cleanup: check did not succeed, status %d; journal left in place", status)
			}
		}

		printCheckResult(cmd.OutOrStdout(), result, status)

		if err := checker.Cleanup(cmd.Context(), journalDir); err != nil {
			return fmt.Errorf("cleanup %s: %w", journalDir, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "removed journal directory %s\n", journalDir)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupJournalDir, "journal-dir", "", "journal directory path (default: sibling hidden directory derived from the data file)")
}
