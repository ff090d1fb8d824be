package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/tendant/simple-translate-pipeline/internal/config"
	"github.com/tendant/simple-translate-pipeline/internal/store"
	"github.com/tendant/simple-translate-pipeline/internal/tasks"
	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// Handler exposes the enqueue/status/delete HTTP surface.
type Handler struct {
	orchestrator *tasks.Orchestrator
	records      *store.RecordStore
	cfg          *config.File
}

func New(orchestrator *tasks.Orchestrator, records *store.RecordStore, cfg *config.File) *Handler {
	return &Handler{orchestrator: orchestrator, records: records, cfg: cfg}
}

// HandleTranslate handles POST /v1/translate - enqueues one document's
// locales and returns immediately.
func (h *Handler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req translate.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.CollectionPath == "" {
		http.Error(w, "collectionPath is required", http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" {
		http.Error(w, "documentId is required", http.StatusBadRequest)
		return
	}

	collection, ok := h.cfg.Collection(req.CollectionPath)
	if !ok {
		http.Error(w, fmt.Sprintf("no configuration for collection %s", req.CollectionPath), http.StatusNotFound)
		return
	}
	resolved := config.Resolve(h.cfg.Defaults, collection)

	locales := req.Locales
	if len(locales) == 0 {
		locales = h.cfg.Locales(collection)
	}
	if len(locales) == 0 {
		http.Error(w, "no target locales configured", http.StatusBadRequest)
		return
	}

	log.Printf("Enqueueing translation: %s/%s locales=%v", req.CollectionPath, req.DocumentID, locales)
	result := h.orchestrator.EnqueueForDocument(r.Context(), req.CollectionPath, req.DocumentID, locales, resolved)

	writeJSON(w, http.StatusAccepted, result)
}

// HandleTranslateCollection handles POST /v1/translate/collection - fans out
// every document in the collection.
func (h *Handler) HandleTranslateCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req translate.CollectionEnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.CollectionPath == "" {
		http.Error(w, "collectionPath is required", http.StatusBadRequest)
		return
	}

	collection, ok := h.cfg.Collection(req.CollectionPath)
	if !ok {
		http.Error(w, fmt.Sprintf("no configuration for collection %s", req.CollectionPath), http.StatusNotFound)
		return
	}
	resolved := config.Resolve(h.cfg.Defaults, collection)

	locales := req.Locales
	if len(locales) == 0 {
		locales = h.cfg.Locales(collection)
	}
	if len(locales) == 0 {
		http.Error(w, "no target locales configured", http.StatusBadRequest)
		return
	}

	result, err := h.orchestrator.EnqueueForCollection(r.Context(), req.CollectionPath, locales, resolved)
	if err != nil {
		log.Printf("Failed to enqueue collection %s: %v", req.CollectionPath, err)
		http.Error(w, fmt.Sprintf("Failed to enqueue collection: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// HandleStatus handles GET /v1/status - reports per-locale record status,
// with "missing" for locales that have no record.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	collectionPath := r.URL.Query().Get("collectionPath")
	documentID := r.URL.Query().Get("documentId")
	if collectionPath == "" || documentID == "" {
		http.Error(w, "collectionPath and documentId are required", http.StatusBadRequest)
		return
	}
	docPath := collectionPath + "/" + documentID

	var locales []string
	if raw := r.URL.Query().Get("locales"); raw != "" {
		locales = strings.Split(raw, ",")
	} else if collection, ok := h.cfg.Collection(collectionPath); ok {
		locales = h.cfg.Locales(collection)
	}
	if len(locales) == 0 {
		stored, err := h.records.ListLocales(r.Context(), docPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to list locales: %v", err), http.StatusInternalServerError)
			return
		}
		locales = stored
	}

	statuses, err := h.records.StatusByLocale(r.Context(), docPath, locales)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read status: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, translate.StatusResponse{
		CollectionPath: collectionPath,
		DocumentID:     documentID,
		Locales:        statuses,
	})
}

// HandleDelete handles DELETE /v1/translations - removes one locale's record,
// or every locale's when no locale is given.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	collectionPath := r.URL.Query().Get("collectionPath")
	documentID := r.URL.Query().Get("documentId")
	if collectionPath == "" || documentID == "" {
		http.Error(w, "collectionPath and documentId are required", http.StatusBadRequest)
		return
	}
	docPath := collectionPath + "/" + documentID

	locale := r.URL.Query().Get("locale")
	var err error
	if locale == "" {
		err = h.records.DeleteAll(r.Context(), docPath)
	} else {
		err = h.records.Delete(r.Context(), docPath, locale)
	}
	if err != nil {
		log.Printf("Failed to delete translations for %s: %v", docPath, err)
		http.Error(w, fmt.Sprintf("Failed to delete: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleHealth returns health status.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
