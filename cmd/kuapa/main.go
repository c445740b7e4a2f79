package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kuapa-ai/kuapa/internal/agent"
	"github.com/kuapa-ai/kuapa/internal/api"
	"github.com/kuapa-ai/kuapa/internal/config"
	"github.com/kuapa-ai/kuapa/internal/history"
	"github.com/kuapa-ai/kuapa/internal/llm"
	"github.com/kuapa-ai/kuapa/internal/retriever"
)

var (
	configPath string
	verbose    bool
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kuapa",
		Short: "Kuapa AI - agricultural advisory assistant for farmers",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(serveCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the advisory HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	logger := newLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, LLM functionality will be limited")
	}

	// A missing corpus file degrades to an empty knowledge base; only a
	// malformed dataset stops startup.
	rtr, err := retriever.New(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("building retriever: %w", err)
	}
	if rtr.Len() == 0 {
		logger.Warn("knowledge base is empty, retrieval will return no context", "path", cfg.Corpus.Path)
	} else {
		logger.Info("knowledge base loaded", "entries", rtr.Len(), "source_defaulted", rtr.SourceDefaulted())
	}
	retrieval := retriever.NewService(rtr, logger.With("component", "retriever"))

	// History is best effort: the advisory path works without it.
	var store *history.Store
	if cfg.Database.Path != "" {
		store, err = history.NewStore(cfg.Database.Path)
		if err != nil {
			logger.Warn("chat history disabled", "error", err)
			store = nil
		} else {
			defer store.Close()
			logger.Info("chat history enabled", "path", store.Path())
		}
	}

	llmClient := llm.NewClient(cfg.Gemini)
	advisor := agent.NewAdvisor(retrieval, llmClient, store, logger.With("component", "advisor"))

	server := api.NewServer(cfg, advisor, logger.With("component", "api"))
	return server.Run()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
