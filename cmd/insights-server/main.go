// Package main provides the MCP server entry point for the business
// insights assistant.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/insights-rag-server/internal/answer"
	"github.com/bull/insights-rag-server/internal/config"
	"github.com/bull/insights-rag-server/internal/document"
	"github.com/bull/insights-rag-server/internal/embedding"
	"github.com/bull/insights-rag-server/internal/index"
	"github.com/bull/insights-rag-server/internal/intent"
	"github.com/bull/insights-rag-server/internal/llm"
	mcpserver "github.com/bull/insights-rag-server/internal/mcp"
	"github.com/bull/insights-rag-server/internal/orchestrator"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(getEnv("INSIGHTS_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	port := getEnv("PORT", "8080")

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, cfg.Embedding.Model, cfg.Embedding.BatchSize)

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("failed to create index store: %v", err)
	}
	defer store.Close()

	logger := slog.Default()
	idx := index.New(store, embedder, document.NewBuilder(), logger)

	// Build or load up front so the first question doesn't pay the
	// ingestion cost.
	if _, err := idx.OpenOrBuild(ctx, cfg.Corpus.Root); err != nil {
		log.Fatalf("failed to open index: %v", err)
	}

	completer := llm.NewClient(embeddingClient.Client(), cfg.Completion.Model)
	orch := orchestrator.New(
		intent.NewResolver(completer, logger),
		idx,
		answer.NewSynthesizer(completer),
		logger,
	)

	server := mcpserver.NewServer(&mcpserver.Config{
		Assistant:  orch,
		Index:      idx,
		CorpusRoot: cfg.Corpus.Root,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(idx))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		// HTTP mode: serve MCP over HTTP for remote clients.
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP over stdin/stdout for local clients,
		// with the health endpoint in the background.
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting Business Insights MCP Server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
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

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
