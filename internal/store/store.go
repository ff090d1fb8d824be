package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Update when no document exists at the
// given path.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the contract this pipeline needs from the external
// document database. Paths are slash-separated: "collection/docID", with
// nested collections like "posts/abc/translations/de".
type DocumentStore interface {
	// Get returns the document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (map[string]any, error)

	// Set fully replaces the document at path, creating it if absent.
	Set(ctx context.Context, path string, doc map[string]any) error

	// Update merges the given top-level fields into an existing document.
	// Returns ErrNotFound if the document does not exist.
	Update(ctx context.Context, path string, fields map[string]any) error

	// Delete removes the document at path. Deleting an absent document is
	// not an error.
	Delete(ctx context.Context, path string) error

	// ListCollection returns the ids of the documents directly under the
	// given collection path. An id-only projection: no document data.
	ListCollection(ctx context.Context, collectionPath string) ([]string, error)

	// DeleteCollection removes every document directly under the given
	// collection path, all-or-nothing.
	DeleteCollection(ctx context.Context, collectionPath string) error
}
