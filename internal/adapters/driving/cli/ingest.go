package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskmate-labs/deskmate-cli/internal/connectors/filesystem"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest support documents into the corpus",
	Long: `Reads .txt and .md files from the given directory (or the configured
corpus directory), splits them into chunks and indexes them for
retrieval. Files already ingested are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	dir, err := documentsDir(dir)
	if err != nil {
		return err
	}

	pages, err := filesystem.NewLoader(dir).LoadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if len(pages) == 0 {
		cmd.Printf("No loadable documents in %s\n", dir)
		return nil
	}

	report, err := ingestor.IngestPages(cmd.Context(), pages)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %d files: %d chunks stored, %d indexed, %d skipped\n",
		report.Files, report.ChunksStored, report.ChunksIndexed, report.ChunksSkipped)
	if report.ChunksIndexed == 0 && report.ChunksStored > 0 {
		cmd.Println("Note: no embedding service available, documents are keyword-searchable only.")
	}
	return nil
}
