package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KumarSohan18/No-Code-platform/internal/api"
	"github.com/KumarSohan18/No-Code-platform/internal/config"
	"github.com/KumarSohan18/No-Code-platform/internal/llm"
	"github.com/KumarSohan18/No-Code-platform/internal/storage"
	"github.com/KumarSohan18/No-Code-platform/internal/vector"
	"github.com/KumarSohan18/No-Code-platform/internal/websearch"
	"github.com/KumarSohan18/No-Code-platform/internal/workflow"
)

func main() {
	cfg := config.Load()

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	cache := storage.NewSessionCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer cache.Close()

	search := websearch.New(cfg.GoogleAPIKey, cfg.GoogleSearchEngineID)
	llmClient := llm.New(cfg.OpenAIAPIKey, search, cfg.OpenAIEmbeddingModel, cfg.WebSearchResults)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	vectors, err := vector.NewStore(ctx, cfg.DatabaseURL, llmClient)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize vector store: %v", err)
	}
	defer vectors.Close()

	executor := workflow.NewExecutor(llmClient, vectors)
	server := api.NewServer(cfg, db, cache, vectors, executor)

	stop := make(chan struct{})
	server.StartMetricsUpdater(stop)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	// Graceful shutdown
	go func() {
		log.Printf("Workflow server starting on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down gracefully...")
	close(stop)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
