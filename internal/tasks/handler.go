package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tendant/simple-translate-pipeline/internal/config"
	"github.com/tendant/simple-translate-pipeline/internal/pipeline"
	"github.com/tendant/simple-translate-pipeline/internal/store"
	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

var (
	// ErrInvalidPayload marks a payload that fails shape validation. A hard
	// failure, never treated as a missing document.
	ErrInvalidPayload = errors.New("invalid task payload")

	// ErrNoCollectionConfig marks an inbound task whose collection has no
	// configuration. Fatal for the task.
	ErrNoCollectionConfig = errors.New("no configuration for collection")
)

// Handler consumes delivered task payloads and runs the pipeline once per
// payload. A returned error re-signals the transport so its own retry and
// backoff policy applies; a nil error means done, whether translated or
// skipped.
type Handler struct {
	docs      store.DocumentStore
	processor *pipeline.Processor
	cfg       *config.File
	creds     map[string]string
}

// NewHandler builds a task handler. creds maps provider id to API key and is
// consulted at handling time, so credentials never ride in payloads.
func NewHandler(docs store.DocumentStore, processor *pipeline.Processor, cfg *config.File, creds map[string]string) *Handler {
	return &Handler{docs: docs, processor: processor, cfg: cfg, creds: creds}
}

// HandleTask processes one delivered payload.
func (h *Handler) HandleTask(ctx context.Context, payload translate.TaskPayload) (translate.Result, error) {
	if err := validatePayload(payload); err != nil {
		return translate.Result{Error: err.Error()}, err
	}

	docPath := payload.CollectionPath + "/" + payload.DocumentID

	// Reload the live document: the payload may be arbitrarily stale.
	doc, err := h.docs.Get(ctx, docPath)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(doc) == 0) {
		// Deleted or empty by the time the task runs: a skip, not a failure.
		// Must not trigger a transport retry.
		log.Printf("[batch %s] %s no longer exists - skipping %s", payload.BatchID, docPath, payload.TargetLanguage)
		return translate.Result{Success: true, Skipped: true}, nil
	}
	if err != nil {
		return translate.Result{Error: err.Error()}, fmt.Errorf("failed to load document %s: %w", docPath, err)
	}

	// Prefer the config snapshot captured at enqueue time; fall back to a
	// live resolve for payloads enqueued without one.
	resolved := payload.Config
	if resolved.Provider == "" {
		collection, ok := h.cfg.Collection(payload.CollectionPath)
		if !ok {
			err := fmt.Errorf("%w: %s", ErrNoCollectionConfig, payload.CollectionPath)
			return translate.Result{Error: err.Error()}, err
		}
		resolved = config.Resolve(h.cfg.Defaults, collection)
	}

	result := h.processor.ProcessTranslation(ctx, docPath, doc, payload.TargetLanguage, resolved, h.creds[resolved.Provider])
	if !result.Success && !result.Skipped {
		// Re-signal so the transport applies its retry/backoff policy.
		return result, fmt.Errorf("translation failed for %s %s: %s", docPath, payload.TargetLanguage, result.Error)
	}
	return result, nil
}

func validatePayload(p translate.TaskPayload) error {
	switch {
	case p.CollectionPath == "":
		return fmt.Errorf("%w: collectionPath is required", ErrInvalidPayload)
	case p.DocumentID == "":
		return fmt.Errorf("%w: documentId is required", ErrInvalidPayload)
	case p.TargetLanguage == "":
		return fmt.Errorf("%w: targetLanguage is required", ErrInvalidPayload)
	}
	return nil
}
