package dbostransport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dbos-inc/dbos-transact-golang/dbos"

	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// HandlerFunc consumes one delivered payload. A returned error marks the
// attempt failed so the transport's retry/backoff policy applies.
type HandlerFunc func(ctx context.Context, payload translate.TaskPayload) (translate.Result, error)

// taskEnvelope is the durable workflow input: the payload plus its stagger
// delay, so the delay survives a worker restart along with the task.
type taskEnvelope struct {
	Payload translate.TaskPayload `json:"payload"`
	Delay   time.Duration         `json:"delay"`
}

// Transport dispatches translation tasks through a DBOS workflow queue,
// giving at-least-once delivery with durable state, bounded worker
// concurrency and bounded-attempt exponential backoff.
type Transport struct {
	dbosContext dbos.DBOSContext
	queue       *dbos.WorkflowQueue
	config      Config
	handler     HandlerFunc
}

// NewTransport creates the transport and registers the task workflow.
// Returns an error if DatabaseURL is not set.
func NewTransport(ctx context.Context, cfg Config, handler HandlerFunc) (*Transport, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	cfg.WithDefaults()

	dbosCtx, err := dbos.NewDBOSContext(ctx, dbos.Config{
		DatabaseURL:        cfg.DatabaseURL,
		AppName:            cfg.AppName,
		ApplicationVersion: cfg.ApplicationVersion,
	})
	if err != nil {
		return nil, err
	}

	queue := dbos.NewWorkflowQueue(dbosCtx, cfg.QueueName,
		dbos.WithWorkerConcurrency(cfg.Concurrency))

	t := &Transport{
		dbosContext: dbosCtx,
		queue:       &queue,
		config:      cfg,
		handler:     handler,
	}
	dbos.RegisterWorkflow(dbosCtx, t.runTask)
	return t, nil
}

// Launch starts the DBOS runtime and workers. Must be called after
// construction (workflow registration happens in NewTransport).
func (t *Transport) Launch() error {
	return dbos.Launch(t.dbosContext)
}

// Shutdown gracefully stops the DBOS runtime.
func (t *Transport) Shutdown(timeout time.Duration) {
	dbos.Shutdown(t.dbosContext, timeout)
}

// QueueName returns the configured queue name.
func (t *Transport) QueueName() string {
	return t.config.QueueName
}

// Concurrency returns the configured dispatch concurrency.
func (t *Transport) Concurrency() int {
	return t.config.Concurrency
}

// Enqueue durably hands one payload to the queue. The stagger delay travels
// inside the workflow input and is slept durably before the handler runs, so
// a pending delay survives a worker restart. The workflow id is derived from
// (batch, document, locale), so a duplicate enqueue within one batch
// collapses into a single logical task.
func (t *Transport) Enqueue(_ context.Context, payload translate.TaskPayload, delay time.Duration) error {
	workflowID := fmt.Sprintf("%s-%s-%s", payload.BatchID, payload.DocumentID, payload.TargetLanguage)
	_, err := dbos.RunWorkflow(
		t.dbosContext,
		t.runTask,
		taskEnvelope{Payload: payload, Delay: delay},
		dbos.WithWorkflowID(workflowID),
		dbos.WithQueue(t.config.QueueName),
	)
	return err
}

// runTask is the DBOS workflow wrapping the task handler: durable stagger
// sleep, then the handler as a step retried with exponential backoff.
func (t *Transport) runTask(dbosCtx dbos.DBOSContext, task taskEnvelope) (translate.Result, error) {
	workflowID, err := dbosCtx.GetWorkflowID()
	if err != nil {
		return translate.Result{Error: err.Error()}, err
	}

	if task.Delay > 0 {
		if _, err := dbos.Sleep(dbosCtx, task.Delay); err != nil {
			return translate.Result{Error: err.Error()}, err
		}
	}

	payload := task.Payload
	log.Printf("[%s] handling task %s/%s -> %s", workflowID, payload.CollectionPath, payload.DocumentID, payload.TargetLanguage)

	// Each retry re-runs the handler from scratch, so a document deleted
	// between attempts still resolves to a clean skip.
	result, err := dbos.RunAsStep(dbosCtx, func(ctx context.Context) (translate.Result, error) {
		return t.handler(ctx, payload)
	},
		dbos.WithStepMaxRetries(t.config.MaxRetries),
		dbos.WithBaseInterval(t.config.RetryBaseInterval),
		dbos.WithMaxInterval(t.config.RetryMaxInterval),
	)
	if err != nil {
		log.Printf("[%s] task failed after retries: %v", workflowID, err)
		if result.Error == "" {
			result.Error = err.Error()
		}
		return result, err
	}
	return result, nil
}
