package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tendant/simple-translate-pipeline/internal/classify"
	"github.com/tendant/simple-translate-pipeline/internal/fingerprint"
	"github.com/tendant/simple-translate-pipeline/internal/gateway"
	"github.com/tendant/simple-translate-pipeline/internal/metrics"
	"github.com/tendant/simple-translate-pipeline/internal/schema"
	"github.com/tendant/simple-translate-pipeline/internal/store"
	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// Processor runs the per-(document, locale) translation pipeline. Stateless
// and re-entrant: all state lives in the arguments and the record store.
type Processor struct {
	records  *store.RecordStore
	registry *gateway.Registry
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Processor)

func WithClock(clock func() time.Time) Option {
	return func(p *Processor) {
		if clock != nil {
			p.now = clock
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

func New(records *store.RecordStore, registry *gateway.Registry, opts ...Option) *Processor {
	p := &Processor{
		records:  records,
		registry: registry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessTranslation runs one pipeline pass for a single locale:
// separate → fingerprint → currency check → translate → persist.
// It never raises outward; any panic is converted into a best-effort failed
// mark plus a failure result.
func (p *Processor) ProcessTranslation(ctx context.Context, docPath string, doc map[string]any, locale string, cfg translate.ConfigSnapshot, apiKey string) (result translate.Result) {
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s %s] pipeline panic: %v", docPath, locale, r)
			result = p.fail(ctx, docPath, locale, fmt.Sprintf("internal error: %v", r), start)
		}
	}()

	var allowed []string
	if len(cfg.Fields) > 0 {
		allowed = cfg.Fields
	}
	separated := classify.Separate(doc, allowed)

	if len(separated.Translatable) == 0 {
		log.Printf("[%s %s] no translatable content - skipping", docPath, locale)
		p.metrics.RecordOutcome(metrics.OutcomeSkippedEmpty)
		return translate.Result{Success: true, Skipped: true}
	}

	hash, err := fingerprint.Hash(separated.Translatable)
	if err != nil {
		return p.fail(ctx, docPath, locale, fmt.Sprintf("fingerprint failed: %v", err), start)
	}

	if !cfg.ForceUpdate {
		current, err := p.records.IsCurrent(ctx, docPath, locale, hash)
		if err != nil {
			log.Printf("[%s %s] currency check failed: %v", docPath, locale, err)
			// Continue anyway - a failed check must not block translation.
		} else if current {
			log.Printf("[%s %s] record current (hash=%s) - skipping", docPath, locale, hash[:12])
			p.metrics.RecordOutcome(metrics.OutcomeSkippedCurrent)
			return translate.Result{Success: true, Skipped: true}
		}
	}

	validator, err := schema.FromClassified(separated)
	if err != nil {
		return p.fail(ctx, docPath, locale, fmt.Sprintf("schema synthesis failed: %v", err), start)
	}

	translator, ok := p.registry.Get(cfg.Provider)
	if !ok {
		return p.fail(ctx, docPath, locale, fmt.Sprintf("unknown provider: %s", cfg.Provider), start)
	}

	log.Printf("[%s %s] translating %d fields via %s", docPath, locale, len(separated.Translatable), cfg.Provider)
	outcome := translator.Translate(ctx, separated.Translatable, validator, gateway.Options{
		SourceLanguage: cfg.SourceLanguage,
		TargetLanguage: locale,
		Model:          cfg.Model,
		Temperature:    cfg.Temperature,
		PromptContext:  cfg.PromptContext,
		Glossary:       cfg.Glossary,
		APIKey:         apiKey,
	})
	p.metrics.RecordGatewayDuration(outcome.DurationMs)

	if !outcome.Success {
		return p.fail(ctx, docPath, locale, outcome.Error, start)
	}

	meta := store.Metadata{
		SourceHash:   hash,
		TranslatedAt: p.now().UTC(),
		Model:        outcome.Model,
		Status:       translate.StatusCompleted,
		Reviewed:     false,
	}
	if err := p.records.Write(ctx, docPath, locale, outcome.Content, separated.Passthrough, meta); err != nil {
		return p.fail(ctx, docPath, locale, fmt.Sprintf("record write failed: %v", err), start)
	}

	log.Printf("[%s %s] completed (model=%s)", docPath, locale, outcome.Model)
	p.metrics.RecordOutcome(metrics.OutcomeCompleted)
	return translate.Result{Success: true, DurationMs: time.Since(start).Milliseconds()}
}

// ProcessAllLanguages runs the pipeline once per locale. Locales are fully
// isolated: one failure neither aborts nor alters the outcome of another.
func (p *Processor) ProcessAllLanguages(ctx context.Context, docPath string, doc map[string]any, locales []string, cfg translate.ConfigSnapshot, apiKey string) map[string]translate.Result {
	results := make(map[string]translate.Result, len(locales))
	for _, locale := range locales {
		results[locale] = p.ProcessTranslation(ctx, docPath, doc, locale, cfg, apiKey)
	}
	return results
}

// fail records the failure (creating a metadata-only record if none exists)
// and converts it to a failure result. The record write is best-effort.
func (p *Processor) fail(ctx context.Context, docPath, locale, errMsg string, start time.Time) translate.Result {
	log.Printf("[%s %s] failed: %s", docPath, locale, errMsg)
	if err := p.records.MarkFailed(ctx, docPath, locale, errMsg, p.now().UTC()); err != nil {
		log.Printf("[%s %s] failed to mark record: %v", docPath, locale, err)
	}
	p.metrics.RecordOutcome(metrics.OutcomeFailed)
	return translate.Result{
		Error:      errMsg,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
