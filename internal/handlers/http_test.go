package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tendant/simple-translate-pipeline/internal/config"
	"github.com/tendant/simple-translate-pipeline/internal/store"
	"github.com/tendant/simple-translate-pipeline/internal/tasks"
	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

func fixture(t *testing.T) (*Handler, *tasks.MemoryTransport, *store.MemoryStore, *store.RecordStore) {
	t.Helper()
	docs := store.NewMemoryStore()
	records := store.NewRecordStore(docs)
	transport := tasks.NewMemoryTransport(64)
	orchestrator := tasks.NewOrchestrator(transport, docs)
	cfg := &config.File{
		Defaults:    config.Defaults{Provider: "openai", Locales: []string{"de", "fr"}},
		Collections: []config.Collection{{Path: "posts"}},
	}
	return New(orchestrator, records, cfg), transport, docs, records
}

func TestHandleTranslate_Enqueues(t *testing.T) {
	h, transport, _, _ := fixture(t)

	body := strings.NewReader(`{"collectionPath": "posts", "documentId": "abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/translate", body)
	w := httptest.NewRecorder()
	h.HandleTranslate(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var result translate.EnqueueResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.TasksEnqueued != 2 || result.BatchID == "" {
		t.Fatalf("result = %+v", result)
	}
	if len(transport.Deliveries()) != 2 {
		t.Fatalf("deliveries = %d", len(transport.Deliveries()))
	}
}

func TestHandleTranslate_UnknownCollection(t *testing.T) {
	h, _, _, _ := fixture(t)

	body := strings.NewReader(`{"collectionPath": "pages", "documentId": "abc"}`)
	w := httptest.NewRecorder()
	h.HandleTranslate(w, httptest.NewRequest(http.MethodPost, "/v1/translate", body))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleTranslate_MissingFields(t *testing.T) {
	h, _, _, _ := fixture(t)

	body := strings.NewReader(`{"collectionPath": "posts"}`)
	w := httptest.NewRecorder()
	h.HandleTranslate(w, httptest.NewRequest(http.MethodPost, "/v1/translate", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleTranslateCollection(t *testing.T) {
	h, transport, docs, _ := fixture(t)
	ctx := context.Background()
	docs.Set(ctx, "posts/a", map[string]any{"title": "A"})
	docs.Set(ctx, "posts/b", map[string]any{"title": "B"})

	body := strings.NewReader(`{"collectionPath": "posts", "locales": ["de"]}`)
	w := httptest.NewRecorder()
	h.HandleTranslateCollection(w, httptest.NewRequest(http.MethodPost, "/v1/translate/collection", body))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(transport.Deliveries()) != 2 {
		t.Fatalf("deliveries = %d, want one per document", len(transport.Deliveries()))
	}
}

func TestHandleStatus(t *testing.T) {
	h, _, _, records := fixture(t)
	ctx := context.Background()
	records.Write(ctx, "posts/abc", "de", nil, nil, store.Metadata{Status: translate.StatusCompleted})
	records.MarkFailed(ctx, "posts/abc", "fr", "boom", time.Now())

	req := httptest.NewRequest(http.MethodGet, "/v1/status?collectionPath=posts&documentId=abc&locales=de,fr,es", nil)
	w := httptest.NewRecorder()
	h.HandleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp translate.StatusResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Locales["de"] != translate.StatusCompleted || resp.Locales["fr"] != translate.StatusFailed || resp.Locales["es"] != translate.StatusMissing {
		t.Fatalf("locales = %v", resp.Locales)
	}
}

func TestHandleDelete(t *testing.T) {
	h, _, _, records := fixture(t)
	ctx := context.Background()
	records.Write(ctx, "posts/abc", "de", nil, nil, store.Metadata{Status: translate.StatusCompleted})
	records.Write(ctx, "posts/abc", "fr", nil, nil, store.Metadata{Status: translate.StatusCompleted})

	req := httptest.NewRequest(http.MethodDelete, "/v1/translations?collectionPath=posts&documentId=abc&locale=de", nil)
	w := httptest.NewRecorder()
	h.HandleDelete(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if locales, _ := records.ListLocales(ctx, "posts/abc"); len(locales) != 1 {
		t.Fatalf("locales after single delete = %v", locales)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/translations?collectionPath=posts&documentId=abc", nil)
	w = httptest.NewRecorder()
	h.HandleDelete(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if locales, _ := records.ListLocales(ctx, "posts/abc"); len(locales) != 0 {
		t.Fatalf("locales after delete all = %v", locales)
	}
}

func TestHandleMethodNotAllowed(t *testing.T) {
	h, _, _, _ := fixture(t)

	w := httptest.NewRecorder()
	h.HandleTranslate(w, httptest.NewRequest(http.MethodGet, "/v1/translate", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}
