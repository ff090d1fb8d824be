package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tendant/simple-translate-pipeline/internal/fingerprint"
	"github.com/tendant/simple-translate-pipeline/internal/gateway"
	"github.com/tendant/simple-translate-pipeline/internal/schema"
	"github.com/tendant/simple-translate-pipeline/internal/store"
	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// fakeTranslator echoes translatable strings with a locale marker, or fails
// on demand.
type fakeTranslator struct {
	calls    int
	failWith *gateway.Outcome
	failFor  map[string]bool // target language -> fail
	panics   bool
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) Translate(_ context.Context, content map[string]any, _ *schema.Validator, opts gateway.Options) gateway.Outcome {
	f.calls++
	if f.panics {
		panic("translator blew up")
	}
	if f.failWith != nil {
		return *f.failWith
	}
	if f.failFor[opts.TargetLanguage] {
		return gateway.Outcome{Error: "provider unavailable", Kind: gateway.FailureProvider}
	}
	out := make(map[string]any, len(content))
	for k, v := range content {
		switch val := v.(type) {
		case string:
			out[k] = "[" + opts.TargetLanguage + "] " + val
		case []any:
			items := make([]any, len(val))
			for i, item := range val {
				items[i] = "[" + opts.TargetLanguage + "] " + item.(string)
			}
			out[k] = items
		}
	}
	return gateway.Outcome{Success: true, Content: out, Model: "fake-1", DurationMs: 3}
}

type fixture struct {
	processor *Processor
	records   *store.RecordStore
	fake      *fakeTranslator
}

func newFixture(fake *fakeTranslator) fixture {
	records := store.NewRecordStore(store.NewMemoryStore())
	registry := gateway.NewRegistry()
	registry.Register("fake", fake)
	return fixture{
		processor: New(records, registry),
		records:   records,
		fake:      fake,
	}
}

func cfg() translate.ConfigSnapshot {
	return translate.ConfigSnapshot{Provider: "fake", Model: "fake-1", SourceLanguage: "en"}
}

func TestProcessTranslation_Completes(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{})
	doc := map[string]any{"title": "Hello", "views": 10.0, "tags": []any{"a", "b"}}

	result := fx.processor.ProcessTranslation(ctx, "posts/abc", doc, "de", cfg(), "key")

	if !result.Success || result.Skipped {
		t.Fatalf("ProcessTranslation() = %+v", result)
	}

	rec, err := fx.records.Read(ctx, "posts/abc", "de")
	if err != nil || rec == nil {
		t.Fatalf("Read() = %v, %v", rec, err)
	}
	if rec.Fields["title"] != "[de] Hello" {
		t.Fatalf("translated field = %v", rec.Fields["title"])
	}
	if rec.Fields["views"] != 10.0 {
		t.Fatalf("passthrough field = %v", rec.Fields["views"])
	}
	if rec.Meta.Status != translate.StatusCompleted || rec.Meta.Reviewed {
		t.Fatalf("meta = %+v", rec.Meta)
	}
	if rec.Meta.Model != "fake-1" {
		t.Fatalf("meta model = %q", rec.Meta.Model)
	}

	// Completed record carries the fingerprint of the content that produced it.
	wantHash, _ := fingerprint.Hash(map[string]any{"title": "Hello", "tags": []any{"a", "b"}})
	if rec.Meta.SourceHash != wantHash {
		t.Fatalf("source_hash = %s, want %s", rec.Meta.SourceHash, wantHash)
	}
}

func TestProcessTranslation_SkipsEmptyWithoutWrite(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{})

	result := fx.processor.ProcessTranslation(ctx, "posts/abc", map[string]any{"views": 10.0}, "de", cfg(), "key")

	if !result.Success || !result.Skipped {
		t.Fatalf("ProcessTranslation() = %+v, want skipped success", result)
	}
	if fx.fake.calls != 0 {
		t.Fatalf("gateway called %d times for empty content", fx.fake.calls)
	}
	if rec, _ := fx.records.Read(ctx, "posts/abc", "de"); rec != nil {
		t.Fatalf("skip must not write a record, got %+v", rec)
	}
}

func TestProcessTranslation_SkipsCurrentRecord(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{})
	doc := map[string]any{"title": "Hello"}

	first := fx.processor.ProcessTranslation(ctx, "posts/abc", doc, "de", cfg(), "key")
	if !first.Success || first.Skipped {
		t.Fatalf("first run = %+v", first)
	}

	second := fx.processor.ProcessTranslation(ctx, "posts/abc", doc, "de", cfg(), "key")
	if !second.Success || !second.Skipped {
		t.Fatalf("second run = %+v, want skipped", second)
	}
	if fx.fake.calls != 1 {
		t.Fatalf("gateway called %d times, want 1 (second run skipped)", fx.fake.calls)
	}

	// Changed content translates again.
	changed := map[string]any{"title": "Hello!"}
	third := fx.processor.ProcessTranslation(ctx, "posts/abc", changed, "de", cfg(), "key")
	if !third.Success || third.Skipped {
		t.Fatalf("third run = %+v, want fresh translation", third)
	}
	if fx.fake.calls != 2 {
		t.Fatalf("gateway called %d times, want 2", fx.fake.calls)
	}
}

func TestProcessTranslation_ForceUpdateBypassesCurrencyCheck(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{})
	doc := map[string]any{"title": "Hello"}

	fx.processor.ProcessTranslation(ctx, "posts/abc", doc, "de", cfg(), "key")

	forced := cfg()
	forced.ForceUpdate = true
	result := fx.processor.ProcessTranslation(ctx, "posts/abc", doc, "de", forced, "key")

	if !result.Success || result.Skipped {
		t.Fatalf("forced run = %+v", result)
	}
	if fx.fake.calls != 2 {
		t.Fatalf("gateway called %d times, want 2 with forceUpdate", fx.fake.calls)
	}
}

func TestProcessTranslation_GatewayFailureMarksRecord(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{failWith: &gateway.Outcome{Error: "rate limited", Kind: gateway.FailureProvider}})

	result := fx.processor.ProcessTranslation(ctx, "posts/abc", map[string]any{"title": "Hello"}, "de", cfg(), "key")

	if result.Success || result.Skipped {
		t.Fatalf("ProcessTranslation() = %+v, want failure", result)
	}
	if !strings.Contains(result.Error, "rate limited") {
		t.Fatalf("result error = %q", result.Error)
	}

	meta, err := fx.records.ReadMetadata(ctx, "posts/abc", "de")
	if err != nil || meta == nil {
		t.Fatalf("ReadMetadata() = %v, %v", meta, err)
	}
	if meta.Status != translate.StatusFailed || meta.Error == "" {
		t.Fatalf("failed record meta = %+v", meta)
	}
}

func TestProcessTranslation_FailureDoesNotDisturbPriorContent(t *testing.T) {
	ctx := context.Background()
	fake := &fakeTranslator{}
	fx := newFixture(fake)
	doc := map[string]any{"title": "Hello"}

	fx.processor.ProcessTranslation(ctx, "posts/abc", doc, "de", cfg(), "key")

	fail := gateway.Outcome{Error: "boom", Kind: gateway.FailureProvider}
	fake.failWith = &fail
	changed := map[string]any{"title": "Hello again"}
	result := fx.processor.ProcessTranslation(ctx, "posts/abc", changed, "de", cfg(), "key")
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}

	rec, _ := fx.records.Read(ctx, "posts/abc", "de")
	if rec.Fields["title"] != "[de] Hello" {
		t.Fatalf("failure disturbed persisted content: %v", rec.Fields)
	}
	if rec.Meta.Status != translate.StatusFailed {
		t.Fatalf("meta = %+v", rec.Meta)
	}

	// A later pass can flip the record back to completed.
	fake.failWith = nil
	result = fx.processor.ProcessTranslation(ctx, "posts/abc", changed, "de", cfg(), "key")
	if !result.Success {
		t.Fatalf("recovery run = %+v", result)
	}
	rec, _ = fx.records.Read(ctx, "posts/abc", "de")
	if rec.Meta.Status != translate.StatusCompleted || rec.Meta.Error != "" {
		t.Fatalf("recovered meta = %+v", rec.Meta)
	}
}

func TestProcessTranslation_UnknownProvider(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{})

	bad := cfg()
	bad.Provider = "deepl"
	result := fx.processor.ProcessTranslation(ctx, "posts/abc", map[string]any{"title": "x"}, "de", bad, "key")

	if result.Success {
		t.Fatalf("ProcessTranslation() = %+v, want failure for unknown provider", result)
	}
	meta, _ := fx.records.ReadMetadata(ctx, "posts/abc", "de")
	if meta == nil || meta.Status != translate.StatusFailed {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestProcessTranslation_RecoversFromPanic(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{panics: true})

	result := fx.processor.ProcessTranslation(ctx, "posts/abc", map[string]any{"title": "x"}, "de", cfg(), "key")

	if result.Success || result.Skipped {
		t.Fatalf("ProcessTranslation() = %+v, want contained failure", result)
	}
	if !strings.Contains(result.Error, "internal error") {
		t.Fatalf("result error = %q", result.Error)
	}
	meta, _ := fx.records.ReadMetadata(ctx, "posts/abc", "de")
	if meta == nil || meta.Status != translate.StatusFailed {
		t.Fatalf("panic must still mark the record failed, meta = %+v", meta)
	}
}

func TestProcessAllLanguages_IsolatesLocales(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{failFor: map[string]bool{"fr": true}})
	doc := map[string]any{"title": "Hello"}

	results := fx.processor.ProcessAllLanguages(ctx, "posts/abc", doc, []string{"de", "fr", "es"}, cfg(), "key")

	if len(results) != 3 {
		t.Fatalf("ProcessAllLanguages() = %v", results)
	}
	if !results["de"].Success || !results["es"].Success {
		t.Fatalf("healthy locales affected: %+v", results)
	}
	if results["fr"].Success {
		t.Fatalf("fr should have failed: %+v", results["fr"])
	}

	if rec, _ := fx.records.Read(ctx, "posts/abc", "es"); rec == nil || rec.Meta.Status != translate.StatusCompleted {
		t.Fatalf("es record missing or not completed")
	}
	if meta, _ := fx.records.ReadMetadata(ctx, "posts/abc", "fr"); meta == nil || meta.Status != translate.StatusFailed {
		t.Fatalf("fr record not marked failed")
	}
}

func TestProcessTranslation_FieldListForcesPassthrough(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(&fakeTranslator{})
	doc := map[string]any{"title": "Hello", "subtitle": "World"}

	limited := cfg()
	limited.Fields = []string{"title"}
	result := fx.processor.ProcessTranslation(ctx, "posts/abc", doc, "de", limited, "key")
	if !result.Success {
		t.Fatalf("ProcessTranslation() = %+v", result)
	}

	rec, _ := fx.records.Read(ctx, "posts/abc", "de")
	if rec.Fields["subtitle"] != "World" {
		t.Fatalf("subtitle should pass through verbatim: %v", rec.Fields)
	}
	if rec.Fields["title"] != "[de] Hello" {
		t.Fatalf("title should be translated: %v", rec.Fields)
	}
}

func TestProcessTranslation_ClockInjection(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := store.NewRecordStore(store.NewMemoryStore())
	registry := gateway.NewRegistry()
	registry.Register("fake", &fakeTranslator{})
	p := New(records, registry, WithClock(func() time.Time { return at }))

	p.ProcessTranslation(ctx, "posts/abc", map[string]any{"title": "x"}, "de", cfg(), "key")

	rec, _ := records.Read(ctx, "posts/abc", "de")
	if !rec.Meta.TranslatedAt.Equal(at) {
		t.Fatalf("translated_at = %v, want %v", rec.Meta.TranslatedAt, at)
	}
}
