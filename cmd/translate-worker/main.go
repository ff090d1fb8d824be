package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/simple-translate-pipeline/internal/config"
	"github.com/tendant/simple-translate-pipeline/internal/dbostransport"
	"github.com/tendant/simple-translate-pipeline/internal/gateway"
	"github.com/tendant/simple-translate-pipeline/internal/handlers"
	"github.com/tendant/simple-translate-pipeline/internal/metrics"
	"github.com/tendant/simple-translate-pipeline/internal/pipeline"
	"github.com/tendant/simple-translate-pipeline/internal/store"
	"github.com/tendant/simple-translate-pipeline/internal/tasks"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	httpAddr := os.Getenv("TRANSLATE_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8081"
	}

	configPath := os.Getenv("TRANSLATE_CONFIG")
	if configPath == "" {
		configPath = "translate.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("✓ Loaded configuration: %d collections", len(cfg.Collections))

	// Document store: Postgres when DOCUMENTS_DATABASE_URL is set, otherwise
	// in-memory (development only).
	var docs store.DocumentStore
	if dbURL := os.Getenv("DOCUMENTS_DATABASE_URL"); dbURL != "" {
		pgStore, err := store.NewPostgresStore(dbURL)
		if err != nil {
			log.Fatalf("Failed to initialize document store: %v", err)
		}
		defer pgStore.Close()
		docs = pgStore
		log.Printf("✓ Using Postgres document store")
	} else {
		docs = store.NewMemoryStore()
		log.Printf("Using in-memory document store (development only)")
	}
	records := store.NewRecordStore(docs)

	// Translation providers. One concrete provider; the rest are stubs that
	// report not-implemented instead of raising.
	registry := gateway.NewRegistry()
	registry.Register("openai", gateway.NewOpenAIProvider(os.Getenv("OPENAI_BASE_URL"), cfg.Defaults.Model))
	registry.Register("google", gateway.NewStubProvider("google"))
	registry.Register("anthropic", gateway.NewStubProvider("anthropic"))
	log.Printf("✓ Registered providers: %v", registry.Names())

	creds := map[string]string{
		"openai":    os.Getenv("OPENAI_API_KEY"),
		"google":    os.Getenv("GOOGLE_API_KEY"),
		"anthropic": os.Getenv("ANTHROPIC_API_KEY"),
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	processor := pipeline.New(records, registry, pipeline.WithMetrics(m))
	taskHandler := tasks.NewHandler(docs, processor, cfg, creds)

	// Task transport (required): DBOS durable queue over Postgres.
	dbURL := os.Getenv("DBOS_SYSTEM_DATABASE_URL")
	if dbURL == "" {
		log.Fatalf("DBOS_SYSTEM_DATABASE_URL is required")
	}
	queueName := os.Getenv("DBOS_QUEUE_NAME")
	concurrency := cfg.Defaults.MaxConcurrent
	if raw := os.Getenv("TRANSLATE_CONCURRENCY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			concurrency = n
		}
	}

	transport, err := dbostransport.NewTransport(context.Background(), dbostransport.Config{
		DatabaseURL: dbURL,
		AppName:     "translate-worker",
		QueueName:   queueName,
		Concurrency: concurrency,
	}, taskHandler.HandleTask)
	if err != nil {
		log.Fatalf("Failed to initialize task transport: %v", err)
	}

	// Launch DBOS (must be done after workflow registration)
	if err := transport.Launch(); err != nil {
		log.Fatalf("Failed to launch task transport: %v", err)
	}
	defer transport.Shutdown(10 * time.Second)

	log.Printf("✓ Task transport initialized")
	log.Printf("  Queue: %s", transport.QueueName())
	log.Printf("  Concurrency: %d", transport.Concurrency())

	orchestrator := tasks.NewOrchestrator(transport, docs, tasks.WithOrchestratorMetrics(m))
	httpHandler := handlers.New(orchestrator, records, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/translate", httpHandler.HandleTranslate)
	mux.HandleFunc("/v1/translate/collection", httpHandler.HandleTranslateCollection)
	mux.HandleFunc("/v1/status", httpHandler.HandleStatus)
	mux.HandleFunc("/v1/translations", httpHandler.HandleDelete)

	log.Printf("✓ Registered endpoints")

	server := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Translate worker starting on %s", httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
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
