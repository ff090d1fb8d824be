package gateway

import (
	"context"

	"github.com/tendant/simple-translate-pipeline/internal/schema"
)

// FailureKind distinguishes why a translation attempt failed. Parse failures
// are deliberately separate from validation failures for diagnostics.
type FailureKind string

const (
	FailureProvider       FailureKind = "provider"
	FailureParse          FailureKind = "parse"
	FailureValidation     FailureKind = "validation"
	FailureNotImplemented FailureKind = "not_implemented"
)

// Options carries per-request translation settings.
type Options struct {
	SourceLanguage string
	TargetLanguage string
	Model          string
	Temperature    float64
	PromptContext  string
	Glossary       map[string]string
	APIKey         string
}

// Usage holds optional provider token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Outcome is the uniform result of a translation attempt. Translate never
// raises across this boundary: every failure path becomes a failure Outcome.
type Outcome struct {
	Success    bool
	Content    map[string]any
	Model      string
	Error      string
	Kind       FailureKind
	Usage      *Usage
	DurationMs int64
}

// Translator is a single translation provider implementation. Content is the
// translatable map; validator rejects any reply that does not conform exactly.
type Translator interface {
	Translate(ctx context.Context, content map[string]any, validator *schema.Validator, opts Options) Outcome
	Name() string
}

func failure(kind FailureKind, err string, durationMs int64) Outcome {
	return Outcome{Error: err, Kind: kind, DurationMs: durationMs}
}
