package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/chatbot"
	"github.com/chinpeerapat/assistant-builder/internal/chunker"
	"github.com/chinpeerapat/assistant-builder/internal/config"
	"github.com/chinpeerapat/assistant-builder/internal/conversation"
	"github.com/chinpeerapat/assistant-builder/internal/generation/openai"
	"github.com/chinpeerapat/assistant-builder/internal/ingest"
	"github.com/chinpeerapat/assistant-builder/internal/inquiry"
	"github.com/chinpeerapat/assistant-builder/internal/retrieval"
	"github.com/chinpeerapat/assistant-builder/internal/server"
	"github.com/chinpeerapat/assistant-builder/internal/vectorindex"
	"github.com/chinpeerapat/assistant-builder/internal/vectorindex/memory"
	"github.com/chinpeerapat/assistant-builder/internal/vectorindex/weaviate"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(*debug)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	registry, err := chatbot.LoadRegistry(cfg.ChatbotsFile)
	if err != nil {
		logger.Fatal("failed to load chatbots", zap.Error(err))
	}

	var index vectorindex.Index
	switch cfg.VectorIndex.Type {
	case "memory", "":
		index = memory.NewIndex()
	case "weaviate":
		if cfg.VectorIndex.Weaviate == nil {
			logger.Fatal("weaviate config missing")
		}
		index = weaviate.NewClient(weaviate.Config{
			URL:     cfg.VectorIndex.Weaviate.URL,
			APIKey:  os.Getenv(cfg.VectorIndex.Weaviate.APIKeyEnv),
			Class:   cfg.VectorIndex.Weaviate.Class,
			Timeout: time.Duration(cfg.VectorIndex.Weaviate.TimeoutSecs) * time.Second,
		})
	default:
		logger.Fatal("unknown vector index", zap.String("type", cfg.VectorIndex.Type))
	}

	var ch chunker.Chunker
	switch cfg.Chunker.Type {
	case "whole", "":
		ch = chunker.NewWholeDocument()
	case "sentence":
		ch = chunker.NewSentence(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		logger.Fatal("unknown chunker", zap.String("type", cfg.Chunker.Type))
	}

	generator, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Generation.BaseURL,
		APIKeyEnv: cfg.Generation.APIKeyEnv,
		Timeout:   time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Fatal("generation client init failed", zap.Error(err))
	}

	pipeline := ingest.NewPipeline(index, ch, logger)
	engine := retrieval.NewEngine(index, retrieval.Config{
		MaxDistance: cfg.Retrieval.MaxDistance,
		Timeout:     time.Duration(cfg.Retrieval.TimeoutSecs) * time.Second,
	}, logger)
	orchestrator := conversation.New(engine, generator, cfg.Generation.DefaultModel, logger)
	inquiries := inquiry.NewService(inquiry.NewMemoryStore(), logger)

	srv := server.NewServer(registry, pipeline, orchestrator, inquiries,
		&cfg.Server, os.Getenv(cfg.Server.APITokenEnv), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
