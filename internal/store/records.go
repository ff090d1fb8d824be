package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// MetaField is the reserved field carrying record metadata inside a persisted
// translation document.
const MetaField = "_meta"

// recordsCollection is the per-document subcollection holding one record per
// locale.
const recordsCollection = "translations"

// Metadata is the status envelope persisted under MetaField.
type Metadata struct {
	SourceHash   string    `json:"source_hash"`
	TranslatedAt time.Time `json:"translated_at"`
	Model        string    `json:"model"`
	Status       string    `json:"status"`
	Reviewed     bool      `json:"reviewed"`
	Error        string    `json:"error,omitempty"`
}

// MetadataPatch is a partial metadata update; nil fields are left untouched.
type MetadataPatch struct {
	SourceHash   *string
	TranslatedAt *time.Time
	Model        *string
	Status       *string
	Reviewed     *bool
	Error        *string
}

func (p MetadataPatch) apply(m *Metadata) {
	if p.SourceHash != nil {
		m.SourceHash = *p.SourceHash
	}
	if p.TranslatedAt != nil {
		m.TranslatedAt = *p.TranslatedAt
	}
	if p.Model != nil {
		m.Model = *p.Model
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.Reviewed != nil {
		m.Reviewed = *p.Reviewed
	}
	if p.Error != nil {
		m.Error = *p.Error
	}
}

// Record is one persisted per-(document, locale) translation. Fields holds
// the translated and passthrough content flattened together, as stored.
type Record struct {
	Fields map[string]any
	Meta   Metadata
}

// RecordStore reads and writes translation records, addressed by
// (parent document path, locale). Records are stored as documents under the
// parent's "translations" subcollection.
type RecordStore struct {
	docs DocumentStore
}

func NewRecordStore(docs DocumentStore) *RecordStore {
	return &RecordStore{docs: docs}
}

// RecordPath returns the storage path of a locale's record.
func RecordPath(docPath, locale string) string {
	return docPath + "/" + recordsCollection + "/" + locale
}

func recordsPath(docPath string) string {
	return docPath + "/" + recordsCollection
}

// Read returns the record for the locale, or nil when absent.
func (s *RecordStore) Read(ctx context.Context, docPath, locale string) (*Record, error) {
	doc, err := s.docs.Get(ctx, RecordPath(docPath, locale))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return decodeRecord(doc)
}

// ReadMetadata returns only the metadata for the locale, or nil when absent.
func (s *RecordStore) ReadMetadata(ctx context.Context, docPath, locale string) (*Metadata, error) {
	rec, err := s.Read(ctx, docPath, locale)
	if err != nil || rec == nil {
		return nil, err
	}
	meta := rec.Meta
	return &meta, nil
}

// Write fully replaces the locale's record. A full replace, not a merge, so
// stale fields from a previous schema cannot survive a narrower translation.
func (s *RecordStore) Write(ctx context.Context, docPath, locale string, translated, passthrough map[string]any, meta Metadata) error {
	doc := make(map[string]any, len(translated)+len(passthrough)+1)
	for k, v := range passthrough {
		doc[k] = v
	}
	for k, v := range translated {
		doc[k] = v
	}
	doc[MetaField] = encodeMetadata(meta)
	if err := s.docs.Set(ctx, RecordPath(docPath, locale), doc); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// UpdateMetadata applies a metadata-only partial update, leaving previously
// persisted content untouched. Returns ErrNotFound when no record exists.
func (s *RecordStore) UpdateMetadata(ctx context.Context, docPath, locale string, patch MetadataPatch) error {
	rec, err := s.Read(ctx, docPath, locale)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	meta := rec.Meta
	patch.apply(&meta)
	if err := s.docs.Update(ctx, RecordPath(docPath, locale), map[string]any{MetaField: encodeMetadata(meta)}); err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	return nil
}

// MarkFailed records a failure. If a record exists, only its metadata is
// touched; otherwise a minimal metadata-only record is created.
func (s *RecordStore) MarkFailed(ctx context.Context, docPath, locale, errMsg string, at time.Time) error {
	status := translate.StatusFailed
	err := s.UpdateMetadata(ctx, docPath, locale, MetadataPatch{
		Status:       &status,
		Error:        &errMsg,
		TranslatedAt: &at,
	})
	if errors.Is(err, ErrNotFound) {
		return s.Write(ctx, docPath, locale, nil, nil, Metadata{
			Status:       translate.StatusFailed,
			Error:        errMsg,
			TranslatedAt: at,
		})
	}
	return err
}

// Delete removes the locale's record.
func (s *RecordStore) Delete(ctx context.Context, docPath, locale string) error {
	return s.docs.Delete(ctx, RecordPath(docPath, locale))
}

// DeleteAll removes every locale's record for the document, all-or-nothing.
func (s *RecordStore) DeleteAll(ctx context.Context, docPath string) error {
	return s.docs.DeleteCollection(ctx, recordsPath(docPath))
}

// ListLocales returns the locales that have a record for the document.
func (s *RecordStore) ListLocales(ctx context.Context, docPath string) ([]string, error) {
	return s.docs.ListCollection(ctx, recordsPath(docPath))
}

// IsCurrent reports whether the locale's record is completed and carries the
// expected source hash. Absent, failed or hash-mismatched records are stale.
func (s *RecordStore) IsCurrent(ctx context.Context, docPath, locale, expectedHash string) (bool, error) {
	meta, err := s.ReadMetadata(ctx, docPath, locale)
	if err != nil || meta == nil {
		return false, err
	}
	return meta.Status == translate.StatusCompleted && meta.SourceHash == expectedHash, nil
}

// StatusByLocale returns each locale's record status, with StatusMissing for
// locales that have no record.
func (s *RecordStore) StatusByLocale(ctx context.Context, docPath string, locales []string) (map[string]string, error) {
	out := make(map[string]string, len(locales))
	for _, locale := range locales {
		meta, err := s.ReadMetadata(ctx, docPath, locale)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			out[locale] = translate.StatusMissing
			continue
		}
		out[locale] = meta.Status
	}
	return out, nil
}

func encodeMetadata(meta Metadata) map[string]any {
	out := map[string]any{
		"source_hash":   meta.SourceHash,
		"translated_at": meta.TranslatedAt.UTC().Format(time.RFC3339Nano),
		"model":         meta.Model,
		"status":        meta.Status,
		"reviewed":      meta.Reviewed,
	}
	if meta.Error != "" {
		out["error"] = meta.Error
	}
	return out
}

func decodeRecord(doc map[string]any) (*Record, error) {
	rec := &Record{Fields: make(map[string]any, len(doc))}
	for k, v := range doc {
		if k == MetaField {
			continue
		}
		rec.Fields[k] = v
	}
	raw, ok := doc[MetaField]
	if !ok {
		return rec, nil
	}
	// Round-trip through JSON so both map-shaped and struct-shaped metadata
	// decode uniformly.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record metadata: %w", err)
	}
	if err := json.Unmarshal(data, &rec.Meta); err != nil {
		return nil, fmt.Errorf("failed to decode record metadata: %w", err)
	}
	return rec, nil
}
