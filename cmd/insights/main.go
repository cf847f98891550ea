// Package main provides the insights CLI for indexing and querying
// business reports.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/insights-rag-server/internal/answer"
	"github.com/bull/insights-rag-server/internal/config"
	"github.com/bull/insights-rag-server/internal/document"
	"github.com/bull/insights-rag-server/internal/embedding"
	"github.com/bull/insights-rag-server/internal/index"
	"github.com/bull/insights-rag-server/internal/intent"
	"github.com/bull/insights-rag-server/internal/llm"
	"github.com/bull/insights-rag-server/internal/orchestrator"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "insights",
	Short: "Business insights assistant over tabular and text reports",
	Long: `CLI for the business insights assistant.

Ingests CSV/Excel/TXT/JSON reports under the configured corpus root
into a persistent similarity index, then answers questions and
produces summaries grounded in retrieved report excerpts.

Environment variables:
  OPENAI_API_KEY OpenAI API key for embeddings and completions (required)`,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the similarity index, or load it if one exists",
	Long: `Builds the persistent similarity index from the corpus root.

If an index artifact already exists at the configured storage
location it is loaded as-is and the corpus is NOT re-scanned; use
"rebuild" to pick up source changes.`,
	RunE: runIndex,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Delete the persisted index and rebuild it from the corpus",
	RunE:  runRebuild,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a business question from the indexed reports",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Produce an executive summary of the indexed reports",
	RunE:  runSummarize,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the yaml config file")
	rootCmd.AddCommand(indexCmd, rebuildCmd, askCmd, summarizeCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired components behind the CLI commands.
type app struct {
	cfg   *config.AppConfig
	store index.Store
	idx   *index.CorpusIndex
	orch  *orchestrator.Orchestrator
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, cfg.Embedding.Model, cfg.Embedding.BatchSize)

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	idx := index.New(store, embedder, document.NewBuilder(), logger)

	completer := llm.NewClient(embeddingClient.Client(), cfg.Completion.Model)
	orch := orchestrator.New(
		intent.NewResolver(completer, logger),
		idx,
		answer.NewSynthesizer(completer),
		logger,
	)

	return &app{cfg: cfg, store: store, idx: idx, orch: orch}, nil
}

func newStore(cfg *config.AppConfig) (index.Store, error) {
	switch cfg.Store.Type {
	case "sqlite":
		return index.NewSQLiteStore(cfg.Store.SQLite.Location), nil
	case "qdrant":
		return index.NewQdrantStore(cfg.Store.Qdrant.Host, cfg.Store.Qdrant.Port,
			cfg.Store.Qdrant.Collection, embedding.Dimension)
	}
	return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	result, err := a.idx.OpenOrBuild(context.Background(), a.cfg.Corpus.Root)
	if err != nil {
		return err
	}
	printBuildResult(result)
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	fmt.Println("Deleting persisted index...")
	result, err := a.idx.Rebuild(context.Background(), a.cfg.Corpus.Root)
	if err != nil {
		return err
	}
	printBuildResult(result)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	ctx := context.Background()
	if _, err := a.idx.OpenOrBuild(ctx, a.cfg.Corpus.Root); err != nil {
		return err
	}

	reply, err := a.orch.ConversationalQA(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.store.Close()

	ctx := context.Background()
	if _, err := a.idx.OpenOrBuild(ctx, a.cfg.Corpus.Root); err != nil {
		return err
	}

	summary, err := a.orch.SummarizationMode(ctx)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

func printBuildResult(result *index.BuildResult) {
	if result.Loaded {
		fmt.Printf("Loaded existing index (%d units). Use \"rebuild\" to re-ingest.\n", result.TotalUnits)
		return
	}

	fmt.Println("Index built.")
	fmt.Printf("  Files:    %d/%d\n", result.IndexedFiles, result.TotalFiles)
	fmt.Printf("  Units:    %d\n", result.TotalUnits)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.FailedFiles) > 0 {
		fmt.Println("Failed files:")
		for _, failed := range result.FailedFiles {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}
}
