// Package cli provides the deskmate command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/embedding/openai"
	"github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/storage/memory"
	"github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/storage/sqlite"
	"github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/vector"
	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driving"
	"github.com/deskmate-labs/deskmate-cli/internal/core/services"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
	"github.com/deskmate-labs/deskmate-cli/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags.
var version = "dev"

// pingTimeout bounds the embedding service connectivity check.
const pingTimeout = 5 * time.Second

var (
	verbose bool
	homeDir string

	// initialized guards against wiring services twice. Tests set it
	// after installing fakes.
	initialized bool
)

// Services wired by initServices and shared by the commands.
var (
	configStore driven.ConfigStore
	metaStore   *sqlite.Store
	corpus      driven.CorpusStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	retriever   driving.Retriever
	ingestor    driving.Ingestor
	ticketDesk  driving.TicketService
)

var rootCmd = &cobra.Command{
	Use:   "deskmate",
	Short: "Answer support questions from your own documents",
	Long: `Deskmate ingests support documents, indexes them for keyword and
semantic retrieval, and answers questions with cited passages. When no
answer is confident enough it helps file a support ticket instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if initialized || cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		if err := initServices(); err != nil {
			return err
		}
		initialized = true
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "deskmate home directory (default ~/.deskmate)")
}

// Execute runs the CLI and releases wired resources afterwards.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices wires adapters into the core services. The vector path
// is optional: when the embedding service is unreachable, retrieval
// runs lexical-only and says so once.
func initServices() error {
	if homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		homeDir = filepath.Join(home, ".deskmate")
	}

	var err error
	configStore, err = file.NewConfigStore(homeDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	var tickets driven.TicketStore
	corpus, tickets, err = openStores()
	if err != nil {
		return err
	}

	embedder = connectEmbedder()
	if embedder != nil {
		backend := configStore.GetString("index.backend")
		vectorIndex, err = vector.Open(filepath.Join(homeDir, "index"), embedder.Dimensions(), backend)
		if err != nil {
			return fmt.Errorf("opening vector index: %w", err)
		}
	}

	lexical := services.NewLexicalEngine(corpus, lexicalConfig())
	retriever = services.NewRetrievalService(corpus, lexical, vectorIndex, embedder, retrievalConfig())
	ingestor = services.NewIngestService(corpus, vectorIndex, embedder, chunker.New(chunkerOptions()...))
	ticketDesk = services.NewTicketDesk(tickets)
	return nil
}

// openStores wires the corpus and ticket stores. Ephemeral mode keeps
// both in memory; nothing survives the process. Useful for trying the
// tool against a scratch corpus without touching the data directory.
func openStores() (driven.CorpusStore, driven.TicketStore, error) {
	if configStore.GetBool("storage.ephemeral") {
		logger.Info("Ephemeral storage: corpus and tickets will not be persisted")
		return memory.NewCorpusStore(), memory.NewTicketStore(), nil
	}

	store, err := sqlite.NewStore(filepath.Join(homeDir, "data"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	metaStore = store
	return store.CorpusStore(), store.TicketStore(), nil
}

// closeServices releases wired resources.
func closeServices() {
	if vectorIndex != nil {
		vectorIndex.Close()
	}
	if embedder != nil {
		embedder.Close()
	}
	if metaStore != nil {
		metaStore.Close()
	}
}

// connectEmbedder builds the configured embedding service and verifies
// connectivity. Returns nil when unconfigured or unreachable; the rest
// of the pipeline treats nil as lexical-only mode.
func connectEmbedder() driven.EmbeddingService {
	var svc driven.EmbeddingService

	switch provider := configStore.GetString("embedding.provider"); provider {
	case "openai":
		openaiSvc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     configStore.GetString("embedding.api_key"),
			BaseURL:    configStore.GetString("embedding.base_url"),
			Model:      configStore.GetString("embedding.model"),
			Dimensions: configStore.GetInt("embedding.dimensions"),
		})
		if err != nil {
			logger.Warn("Embedding service misconfigured: %v", err)
			return nil
		}
		svc = openaiSvc
	case "", "ollama":
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    configStore.GetString("embedding.base_url"),
			Model:      configStore.GetString("embedding.model"),
			Dimensions: configStore.GetInt("embedding.dimensions"),
		})
	default:
		logger.Warn("Unknown embedding provider %q, running lexical-only", provider)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		logger.Warn("Embedding service unreachable (%v), running lexical-only", err)
		svc.Close()
		return nil
	}
	logger.Info("Embedding service ready: %s (%d dimensions)", svc.ModelName(), svc.Dimensions())
	return svc
}

// lexicalConfig reads lexical tuning overrides from config.
func lexicalConfig() services.LexicalConfig {
	cfg := services.DefaultLexicalConfig()
	if v := configStore.GetInt("lexical.min_token_len"); v > 0 {
		cfg.MinTokenLen = v
	}
	if v := configStore.GetInt("lexical.snippet_before"); v > 0 {
		cfg.SnippetBefore = v
	}
	if v := configStore.GetInt("lexical.snippet_after"); v > 0 {
		cfg.SnippetAfter = v
	}
	if v := configStore.GetInt("lexical.paragraph_max"); v > 0 {
		cfg.ParagraphMax = v
	}
	if v := configStore.GetInt("lexical.exact_bonus"); v > 0 {
		cfg.ExactBonus = v
	}
	if v := configStore.GetInt("lexical.exact_cap"); v > 0 {
		cfg.ExactCap = v
	}
	if v := configStore.GetInt("lexical.top_cap"); v > 0 {
		cfg.TopCap = v
	}
	return cfg
}

// retrievalConfig reads confidence threshold overrides from config.
func retrievalConfig() services.RetrievalConfig {
	cfg := services.DefaultRetrievalConfig()
	if v := configStore.GetFloat("retrieval.high"); v > 0 {
		cfg.Thresholds.High = v
	}
	if v := configStore.GetFloat("retrieval.medium_high"); v > 0 {
		cfg.Thresholds.MediumHigh = v
	}
	if v := configStore.GetFloat("retrieval.medium"); v > 0 {
		cfg.Thresholds.Medium = v
	}
	if v := configStore.GetInt("retrieval.k"); v > 0 {
		cfg.DefaultK = v
	}
	if name := configStore.GetString("retrieval.min_usable"); name != "" {
		if verdict, ok := verdictByName(name); ok {
			cfg.MinUsable = verdict
		} else {
			logger.Warn("Unknown retrieval.min_usable %q, keeping %s", name, cfg.MinUsable)
		}
	}
	return cfg
}

// verdictByName maps a configured verdict display name to its tier.
func verdictByName(name string) (domain.Verdict, bool) {
	for _, v := range []domain.Verdict{
		domain.VerdictLow,
		domain.VerdictMedium,
		domain.VerdictMediumHigh,
		domain.VerdictHigh,
	} {
		if v.String() == name {
			return v, true
		}
	}
	return domain.VerdictNone, false
}

// chunkerOptions reads chunking overrides from config.
func chunkerOptions() []chunker.Option {
	var opts []chunker.Option
	if v := configStore.GetInt("chunker.size"); v > 0 {
		opts = append(opts, chunker.WithChunkSize(v))
	}
	if v := configStore.GetInt("chunker.overlap"); v > 0 {
		opts = append(opts, chunker.WithOverlap(v))
	}
	return opts
}

// documentsDir resolves the support document directory: an explicit
// argument wins, then config, then ~/.deskmate/docs.
func documentsDir(dir string) (string, error) {
	if dir == "" {
		dir = configStore.GetString("corpus.dir")
	}
	if dir == "" {
		dir = filepath.Join(homeDir, "docs")
	}
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("document directory %s: %w", dir, err)
	}
	return dir, nil
}
