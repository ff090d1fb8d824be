package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory DocumentStore for development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

func (s *MemoryStore) Get(_ context.Context, path string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(doc), nil
}

func (s *MemoryStore) Set(_ context.Context, path string, doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = deepCopy(doc)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, path string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		return ErrNotFound
	}
	for k, v := range deepCopy(fields) {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

func (s *MemoryStore) ListCollection(_ context.Context, collectionPath string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := collectionPath + "/"
	var ids []string
	for path := range s.docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		ids = append(ids, rest)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) DeleteCollection(_ context.Context, collectionPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := collectionPath + "/"
	for path := range s.docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		delete(s.docs, path)
	}
	return nil
}

// deepCopy isolates callers from shared mutable state; documents round-trip
// through JSON on the way in and out.
func deepCopy(doc map[string]any) map[string]any {
	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("memory store: unserializable document: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("memory store: %v", err))
	}
	return out
}
