package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

var askK int

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the ingested documents",
	Long: `Searches the corpus semantically (falling back to keyword search when
no embedding service is available) and prints the best passages with
their sources and a confidence verdict. When confidence is too low to
trust the passages, suggests filing a ticket instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "results", "k", 0, "max candidate results (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errors.New("retrieval service not configured")
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	result, err := retriever.Retrieve(cmd.Context(), query, askK)
	if err != nil {
		return err
	}

	if len(result.Results) == 0 {
		cmd.Println("No matching passages found.")
		cmd.Println("Try rephrasing your question, or file a ticket with 'deskmate ticket file'.")
		return nil
	}

	for i, hit := range result.Results {
		label := sourceLabel(hit.Source)
		if hit.ExactMatch {
			label = "exact match"
		}
		cmd.Printf("%d. %s (page %d) [%s]\n", i+1, hit.Filename, hit.Page, label)
		cmd.Printf("   %s\n\n", hit.Content)
	}
	cmd.Printf("Confidence: %s\n", result.Confidence)

	if !result.Usable {
		cmd.Println("These passages may not answer your question.")
		cmd.Println("Consider filing a ticket with 'deskmate ticket file'.")
	}
	return nil
}

// sourceLabel names a result source for display.
func sourceLabel(source domain.ResultSource) string {
	if source == domain.SourceLexical {
		return "keyword"
	}
	return "semantic"
}
