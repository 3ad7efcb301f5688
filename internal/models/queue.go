package models

import (
	"errors"
	"time"
)

// ErrQueueNotFound is returned when a queue cannot be resolved to a document
var ErrQueueNotFound = errors.New("queue not found")

// ErrParse is returned when stored queue content is not valid JSON
var ErrParse = errors.New("failed to parse queue content")

// Document is a remote versioned document (a gist): a described object
// holding named file entries. A queue is exactly one document with one file.
type Document struct {
	ID          string
	Description string
	URL         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Files       map[string]DocumentFile
}

// DocumentFile is one named file entry inside a document
type DocumentFile struct {
	Content string
	Size    int
}

// QueueInfo describes a queue as reported by list operations
type QueueInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QueueRefKind discriminates the variants of QueueRef
type QueueRefKind int

const (
	RefByName QueueRefKind = iota
	RefByID
	RefByDocument
)

// QueueRef identifies a queue by name, by document ID, or by an already
// resolved document handle. Public operations resolve it once at entry.
type QueueRef struct {
	Kind QueueRefKind
	Name string
	ID   string
	Doc  *Document
}

// ByName references a queue by its human name
func ByName(name string) QueueRef {
	return QueueRef{Kind: RefByName, Name: name}
}

// ByID references a queue by its document ID
func ByID(id string) QueueRef {
	return QueueRef{Kind: RefByID, ID: id}
}

// ByDocument references a queue through a resolved document handle.
// Name may be empty when the caller only holds the document.
func ByDocument(doc *Document, name string) QueueRef {
	return QueueRef{Kind: RefByDocument, Doc: doc, Name: name}
}

// ParseQueueRef interprets a CLI-style queue argument: a purely alphanumeric
// string is treated as a document ID, anything else as a queue name.
func ParseQueueRef(s string) QueueRef {
	if s != "" && isAlphanumeric(s) {
		return ByID(s)
	}
	return ByName(s)
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// String returns a human-readable form of the reference for logging
func (r QueueRef) String() string {
	switch r.Kind {
	case RefByID:
		return r.ID
	case RefByDocument:
		if r.Name != "" {
			return r.Name
		}
		if r.Doc != nil {
			return r.Doc.ID
		}
		return "<nil document>"
	default:
		return r.Name
	}
}
