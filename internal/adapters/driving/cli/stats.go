package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus and index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if corpus == nil {
		return errors.New("storage not configured")
	}

	cs, err := corpus.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Corpus: %d files, %d chunks\n", cs.FileCount, cs.ChunkCount)
	files := make([]string, 0, len(cs.PerFile))
	for name := range cs.PerFile {
		files = append(files, name)
	}
	sort.Strings(files)
	for _, name := range files {
		fs := cs.PerFile[name]
		cmd.Printf("  %s: %d pages, %d chunks\n", name, fs.Pages, fs.Chunks)
	}

	if vectorIndex == nil {
		cmd.Println("Vector index: not available (keyword search only)")
		return nil
	}

	is, err := vectorIndex.Stats(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Vector index (%s): %d files, %d entries\n", is.Backend, is.TotalFiles, is.TotalChunks)
	return nil
}
