package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the vector index",
	Long: `Removes every entry from the vector index, including its on-disk
artifacts. The corpus store is untouched; run 'deskmate ingest' to
rebuild the index from it.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if vectorIndex == nil {
		return errors.New("vector index not configured")
	}
	if err := vectorIndex.Reset(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Vector index cleared.")
	return nil
}
