package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bonjohen/gistqueue/internal/common"
	"github.com/bonjohen/gistqueue/internal/models"
)

// memDocStore is an in-memory DocumentStore for tests. afterWrite, when
// set, runs after each UpdateDocument and can mutate stored content to
// simulate a concurrent writer racing between this call's write and its
// verify-read.
type memDocStore struct {
	mu      sync.Mutex
	docs    map[string]*models.Document
	nextID  int
	created int
	updated int
	reads   int

	afterWrite func(s *memDocStore, id, filename string)
}

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: make(map[string]*models.Document)}
}

func (s *memDocStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

func (s *memDocStore) FindByDescription(ctx context.Context, description string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.Description == description {
			return cloneDoc(doc), nil
		}
	}
	return nil, nil
}

func (s *memDocStore) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]*models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, cloneDoc(doc))
	}
	return docs, nil
}

func (s *memDocStore) CreateDocument(ctx context.Context, description, filename, content string, public bool) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.created++
	id := fmt.Sprintf("doc%04d", s.nextID)
	doc := &models.Document{
		ID:          id,
		Description: description,
		URL:         "https://gist.example/" + id,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Files: map[string]models.DocumentFile{
			filename: {Content: content, Size: len(content)},
		},
	}
	s.docs[id] = doc
	return cloneDoc(doc), nil
}

func (s *memDocStore) UpdateDocument(ctx context.Context, id, filename, content string) (*models.Document, error) {
	s.mu.Lock()
	doc, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return nil, models.ErrQueueNotFound
	}
	s.updated++
	doc.Files[filename] = models.DocumentFile{Content: content, Size: len(content)}
	doc.UpdatedAt = time.Now()
	result := cloneDoc(doc)
	hook := s.afterWrite
	s.mu.Unlock()

	if hook != nil {
		hook(s, id, filename)
	}
	return result, nil
}

func (s *memDocStore) ReadFileContent(ctx context.Context, id, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	doc, ok := s.docs[id]
	if !ok {
		return "", models.ErrQueueNotFound
	}
	file, ok := doc.Files[filename]
	if !ok {
		return "", models.ErrQueueNotFound
	}
	return file.Content, nil
}

// setContent overwrites a stored file directly, bypassing counters
func (s *memDocStore) setContent(id, filename, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[id]; ok {
		doc.Files[filename] = models.DocumentFile{Content: content, Size: len(content)}
	}
}

func (s *memDocStore) content(id, filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[id]; ok {
		return doc.Files[filename].Content
	}
	return ""
}

func cloneDoc(doc *models.Document) *models.Document {
	clone := *doc
	clone.Files = make(map[string]models.DocumentFile, len(doc.Files))
	for name, f := range doc.Files {
		clone.Files[name] = f
	}
	return &clone
}

// newTestConfig returns a config with fast retry timing for tests
func newTestConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.Concurrency.RetryDelayBase = 1 * time.Millisecond
	config.Concurrency.RetryDelayMax = 5 * time.Millisecond
	config.Cleanup.Interval = 50 * time.Millisecond
	return config
}

// newTestQueue creates a queue with the given messages already stored and
// returns the directory, store and document handle
func newTestQueue(t *testing.T, docs *memDocStore, name string, msgs []models.Message) (*Directory, *Store, *models.Document) {
	t.Helper()

	config := newTestConfig()
	logger := common.GetLogger()
	dir := NewDirectory(docs, config, logger)
	store := NewStore(dir, docs, logger)

	doc, err := dir.CreateQueue(context.Background(), name, false)
	if err != nil {
		t.Fatalf("failed to create test queue: %v", err)
	}
	if msgs != nil {
		content, err := MarshalMessages(msgs)
		if err != nil {
			t.Fatalf("failed to marshal test messages: %v", err)
		}
		docs.setContent(doc.ID, dir.QueueFilename(name), content)
	}
	return dir, store, doc
}

// pendingMessage builds a pending message for scenarios
func pendingMessage(id string, content interface{}) models.Message {
	return models.Message{
		ID:             id,
		Content:        content,
		Status:         models.StatusPending,
		StatusDatetime: models.StatusTime(time.Now()),
	}
}

// messageWith builds a message with explicit status and age in days
func messageWith(id string, status models.MessageStatus, ageDays int) models.Message {
	return models.Message{
		ID:             id,
		Content:        strings.ToUpper(id),
		Status:         status,
		StatusDatetime: models.StatusTime(time.Now().AddDate(0, 0, -ageDays)),
	}
}
