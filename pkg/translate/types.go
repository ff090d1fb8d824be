package translate

// TaskPayload is the unit of work dispatched to the task transport, one per
// (document, target language) pair. Immutable once enqueued; a re-delivery is
// a fresh attempt against the same payload, never a new entity.
type TaskPayload struct {
	CollectionPath string         `json:"collectionPath"`
	DocumentID     string         `json:"documentId"`
	TargetLanguage string         `json:"targetLanguage"`
	Config         ConfigSnapshot `json:"config"`
	BatchID        string         `json:"batchId"`
}

// ConfigSnapshot is the fully resolved per-collection configuration captured
// at enqueue time: shared defaults with collection overrides already layered
// on top, glossaries merged. Credentials are injected at handling time and
// never travel in the snapshot.
type ConfigSnapshot struct {
	Provider       string            `json:"provider"`
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	BatchSize      int               `json:"batchSize"`
	MaxConcurrent  int               `json:"maxConcurrent"`
	StaggerSeconds int               `json:"staggerSeconds"`
	ForceUpdate    bool              `json:"forceUpdate"`
	SourceLanguage string            `json:"sourceLanguage"`
	PromptContext  string            `json:"promptContext,omitempty"`
	Fields         []string          `json:"fields,omitempty"`
	Glossary       map[string]string `json:"glossary,omitempty"`
}

// Result is the outcome of one pipeline pass over a (document, locale) pair.
type Result struct {
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

// EnqueueResult summarizes one fan-out operation.
type EnqueueResult struct {
	BatchID       string   `json:"batchId"`
	TasksEnqueued int      `json:"tasksEnqueued"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
}

// EnqueueRequest triggers translation of a single document.
type EnqueueRequest struct {
	CollectionPath string   `json:"collectionPath"`
	DocumentID     string   `json:"documentId"`
	Locales        []string `json:"locales,omitempty"`
}

// CollectionEnqueueRequest triggers translation of every document in a
// collection.
type CollectionEnqueueRequest struct {
	CollectionPath string   `json:"collectionPath"`
	Locales        []string `json:"locales,omitempty"`
}

// StatusResponse maps locale to record status, with "missing" standing in for
// locales that have no record at all.
type StatusResponse struct {
	CollectionPath string            `json:"collectionPath"`
	DocumentID     string            `json:"documentId"`
	Locales        map[string]string `json:"locales"`
}

// Record status values. StatusMissing is a query-time synthetic status and is
// never persisted.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusMissing   = "missing"
)
