package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/simple-translate-pipeline/internal/config"
	"github.com/tendant/simple-translate-pipeline/internal/gateway"
	"github.com/tendant/simple-translate-pipeline/internal/handlers"
	"github.com/tendant/simple-translate-pipeline/internal/metrics"
	"github.com/tendant/simple-translate-pipeline/internal/pipeline"
	"github.com/tendant/simple-translate-pipeline/internal/store"
	"github.com/tendant/simple-translate-pipeline/internal/tasks"
)

// Standalone translate worker for quick testing.
// Uses an in-memory document store and an in-process task loop.
// No Postgres or DBOS needed.
func main() {
	_ = godotenv.Load()

	httpAddr := os.Getenv("TRANSLATE_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	configPath := os.Getenv("TRANSLATE_CONFIG")
	if configPath == "" {
		configPath = "translate.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Translate Standalone Worker")
	log.Printf("  Mode: Embedded (in-memory store + in-process tasks)")
	log.Printf("  HTTP address: %s", httpAddr)

	docs := store.NewMemoryStore()
	records := store.NewRecordStore(docs)

	registry := gateway.NewRegistry()
	registry.Register("openai", gateway.NewOpenAIProvider(os.Getenv("OPENAI_BASE_URL"), cfg.Defaults.Model))
	registry.Register("google", gateway.NewStubProvider("google"))
	registry.Register("anthropic", gateway.NewStubProvider("anthropic"))

	creds := map[string]string{"openai": os.Getenv("OPENAI_API_KEY")}

	m := metrics.New(prometheus.DefaultRegisterer)
	processor := pipeline.New(records, registry, pipeline.WithMetrics(m))
	taskHandler := tasks.NewHandler(docs, processor, cfg, creds)

	transport := tasks.NewMemoryTransport(256)
	orchestrator := tasks.NewOrchestrator(transport, docs, tasks.WithOrchestratorMetrics(m))

	// In-process task loop: honors the stagger delay and bounds concurrency
	// with a semaphore, mimicking the transport-level limits of the real queue.
	sem := make(chan struct{}, cfg.Defaults.MaxConcurrent)
	go func() {
		for d := range transport.Chan() {
			sem <- struct{}{}
			go func(d tasks.Delivery) {
				defer func() { <-sem }()
				if d.Delay > 0 {
					time.Sleep(d.Delay)
				}
				if _, err := taskHandler.HandleTask(context.Background(), d.Payload); err != nil {
					log.Printf("[batch %s] task failed: %v", d.Payload.BatchID, err)
				}
			}(d)
		}
	}()

	httpHandler := handlers.New(orchestrator, records, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/translate", httpHandler.HandleTranslate)
	mux.HandleFunc("/v1/translate/collection", httpHandler.HandleTranslateCollection)
	mux.HandleFunc("/v1/status", httpHandler.HandleStatus)
	mux.HandleFunc("/v1/translations", httpHandler.HandleDelete)

	server := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("✓ Translate worker ready on %s", httpAddr)
		log.Printf("")
		log.Printf("Available endpoints:")
		log.Printf("  GET    /health                   - Health check")
		log.Printf("  GET    /metrics                  - Prometheus metrics")
		log.Printf("  POST   /v1/translate             - Enqueue one document")
		log.Printf("  POST   /v1/translate/collection  - Enqueue a whole collection")
		log.Printf("  GET    /v1/status                - Per-locale record status")
		log.Printf("  DELETE /v1/translations          - Delete records")
		log.Printf("")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
