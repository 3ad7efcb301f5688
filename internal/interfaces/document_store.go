package interfaces

import (
	"context"

	"github.com/bonjohen/gistqueue/internal/models"
)

// DocumentStore is the remote versioned document service backing queues.
// Lookups return (nil, nil) when the document does not exist; errors are
// reserved for transport and malformed-state failures.
type DocumentStore interface {
	// GetDocument fetches a document by ID, including file contents.
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// FindByDescription returns the first document whose description
	// matches exactly.
	FindByDescription(ctx context.Context, description string) (*models.Document, error)

	// ListDocuments returns all documents owned by the authenticated user.
	// File contents may be absent on listed documents.
	ListDocuments(ctx context.Context) ([]*models.Document, error)

	// CreateDocument creates a document with a single file.
	CreateDocument(ctx context.Context, description, filename, content string, public bool) (*models.Document, error)

	// UpdateDocument replaces the content of one file in a document.
	// The write is a blind overwrite; the store has no compare-and-swap.
	UpdateDocument(ctx context.Context, id, filename, content string) (*models.Document, error)

	// ReadFileContent fetches the current content of one file, bypassing
	// any previously fetched snapshot. Returns models.ErrQueueNotFound
	// when the document or file is missing.
	ReadFileContent(ctx context.Context, id, filename string) (string, error)
}
