package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/deskmate-labs/deskmate-cli/internal/connectors/filesystem"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and re-ingest changed documents",
	Long: `Watches the document directory for new or modified .txt and .md files
and ingests them as they change. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	watcher, err := filesystem.NewWatcher(dir)
	if err != nil {
		return err
	}
	defer watcher.Close()

	loader := filesystem.NewLoader(dir)
	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)

	return watcher.Watch(cmd.Context(), func(path string) {
		pages, err := loader.LoadFile(path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return
		}
		if len(pages) == 0 {
			return
		}
		report, err := ingestor.IngestPages(cmd.Context(), pages)
		if err != nil {
			logger.Warn("Ingest of %s failed: %v", path, err)
			return
		}
		cmd.Printf("%s: %d chunks stored, %d indexed, %d skipped\n",
			pages[0].Filename, report.ChunksStored, report.ChunksIndexed, report.ChunksSkipped)
	})
}
