package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-translate-pipeline/internal/metrics"
	"github.com/tendant/simple-translate-pipeline/internal/store"
	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// Orchestrator fans out per-locale translation work to the task transport.
type Orchestrator struct {
	transport  Transport
	docs       store.DocumentStore
	metrics    *metrics.Metrics
	newBatchID func() string
}

type OrchestratorOption func(*Orchestrator)

func WithBatchIDFunc(fn func() string) OrchestratorOption {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newBatchID = fn
		}
	}
}

func WithOrchestratorMetrics(m *metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func NewOrchestrator(transport Transport, docs store.DocumentStore, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		transport:  transport,
		docs:       docs,
		newBatchID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EnqueueForDocument enqueues one task per target locale, all sharing a
// single batch id, with a per-task delay of index × stagger interval.
func (o *Orchestrator) EnqueueForDocument(ctx context.Context, collectionPath, docID string, locales []string, cfg translate.ConfigSnapshot) translate.EnqueueResult {
	result := translate.EnqueueResult{BatchID: o.newBatchID()}
	o.fanOut(ctx, &result, collectionPath, docID, locales, cfg, 0)
	o.metrics.RecordEnqueued(result.TasksEnqueued)
	log.Printf("[batch %s] enqueued %d tasks for %s/%s (%d failed)", result.BatchID, result.TasksEnqueued, collectionPath, docID, result.Failed)
	return result
}

// EnqueueForCollection queries the collection's document ids and fans out the
// full (document × locale) cross product under one batch id, preserving the
// same linear stagger formula across all tasks.
func (o *Orchestrator) EnqueueForCollection(ctx context.Context, collectionPath string, locales []string, cfg translate.ConfigSnapshot) (translate.EnqueueResult, error) {
	ids, err := o.docs.ListCollection(ctx, collectionPath)
	if err != nil {
		return translate.EnqueueResult{}, fmt.Errorf("failed to list collection %s: %w", collectionPath, err)
	}

	result := translate.EnqueueResult{BatchID: o.newBatchID()}
	index := 0
	for _, docID := range ids {
		index = o.fanOut(ctx, &result, collectionPath, docID, locales, cfg, index)
	}
	o.metrics.RecordEnqueued(result.TasksEnqueued)
	log.Printf("[batch %s] enqueued %d tasks for collection %s (%d documents, %d failed)", result.BatchID, result.TasksEnqueued, collectionPath, len(ids), result.Failed)
	return result, nil
}

// fanOut enqueues one payload per locale starting at the given stagger index
// and returns the next index.
func (o *Orchestrator) fanOut(ctx context.Context, result *translate.EnqueueResult, collectionPath, docID string, locales []string, cfg translate.ConfigSnapshot, index int) int {
	stagger := time.Duration(cfg.StaggerSeconds) * time.Second
	for _, locale := range locales {
		payload := translate.TaskPayload{
			CollectionPath: collectionPath,
			DocumentID:     docID,
			TargetLanguage: locale,
			Config:         cfg,
			BatchID:        result.BatchID,
		}
		delay := time.Duration(index) * stagger
		if err := o.transport.Enqueue(ctx, payload, delay); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s %s: %v", collectionPath, docID, locale, err))
		} else {
			result.TasksEnqueued++
		}
		index++
	}
	return index
}
