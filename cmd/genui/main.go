package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"genui/internal/agents"
	"genui/internal/cache"
	"genui/internal/chunker"
	"genui/internal/config"
	"genui/internal/embedding"
	"genui/internal/llm"
	"genui/internal/logging"
	"genui/internal/profile"
	"genui/internal/server"
	"genui/internal/vecstore"
	"genui/internal/zones"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "genui",
	Short: "genui - multi-agent backend for generative UI frontends",
	Long: `genui answers user queries with RAG context, extracts profile signals
from conversation, analyzes behavior telemetry, and renders personalized
page zones. Run "genui serve" to expose the HTTP API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Process a single query and print the frontend response",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Chunk and index a document file into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print knowledge base statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "genui.json", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, queryCmd, indexCmd, statsCmd)
}

// deps bundles everything the commands wire together.
type deps struct {
	cfg          *config.Config
	store        *vecstore.Store
	chunks       *chunker.Chunker
	orchestrator *agents.Orchestrator
	zoneAgent    *agents.ZoneAgent
	registry     *zones.Registry
}

func (d *deps) Close() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			logger.Warn("error closing store", zap.Error(err))
		}
	}
}

func buildDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	engine, err := embedding.NewEngine(embedding.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding engine: %w", err)
	}

	store, err := vecstore.New(cfg.Store.Path, engine, vecstore.Options{
		TopK:                cfg.Store.TopK,
		SimilarityThreshold: cfg.Store.SimilarityThreshold,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}

	chunks := chunker.New(engine, chunker.Options{
		ChunkSize:            cfg.Chunking.ChunkSize,
		ChunkOverlap:         cfg.Chunking.ChunkOverlap,
		UseSemantic:          cfg.Chunking.UseSemantic,
		BreakpointPercentile: cfg.Chunking.BreakpointPercentile,
		BufferSize:           cfg.Chunking.BufferSize,
	}, logger)

	responseClient, err := llm.NewFromConfig(ctx, cfg.LLM, cfg.LLM.ResponseModel)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("response model client: %w", err)
	}
	profileClient, err := llm.NewFromConfig(ctx, cfg.LLM, cfg.LLM.ProfileModel)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("profile model client: %w", err)
	}

	memo, err := cache.New(cfg.Cache.MaxEntries, cfg.Cache.Enabled)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}

	responseAgent := agents.NewResponseAgent(responseClient, store, memo, cfg.Store.TopK, cfg.Orchestrator.HistoryWindow, logger)
	profileAgent := agents.NewProfileAgent(profileClient, memo, logger)
	behaveAgent := agents.NewBehaveAgent(profileClient, memo, logger)
	orchestrator := agents.NewOrchestrator(responseAgent, profileAgent, behaveAgent, cfg.Orchestrator.ParallelExecution, logger)
	zoneAgent := agents.NewZoneAgent(responseClient, store, logger)

	registry := zones.NewRegistry(cfg.Server.ZonesFile, logger)
	if err := registry.Load(); err != nil {
		logger.Warn("zones file not loaded", zap.Error(err))
	}

	return &deps{
		cfg:          cfg,
		store:        store,
		chunks:       chunks,
		orchestrator: orchestrator,
		zoneAgent:    zoneAgent,
		registry:     registry,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	watcher, err := zones.NewWatcher(d.registry, d.cfg.Server.ZonesFile, logger)
	if err != nil {
		logger.Warn("zone hot reload unavailable", zap.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warn("zone hot reload unavailable", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	srv := server.New(d.orchestrator, d.zoneAgent, d.registry, d.store, d.chunks, d.cfg.Server.CORSOrigins, logger)
	httpServer := &http.Server{
		Addr:    d.cfg.Server.Addr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", d.cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	srv.Wait()
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	query := args[0]
	result, err := d.orchestrator.Process(ctx, query, profile.Profile{}, nil, nil)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result.ToFrontendResponse(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	metadata := map[string]interface{}{"title": path}
	docChunks := d.chunks.ChunkText(ctx, string(data), metadata, path)
	indexed, err := d.store.IndexChunks(ctx, docChunks)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d/%d chunks from %s\n", indexed, len(docChunks), path)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := buildDeps(cmd.Context())
	if err != nil {
		return err
	}
	defer d.Close()

	out, err := json.MarshalIndent(d.store.Stats(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
