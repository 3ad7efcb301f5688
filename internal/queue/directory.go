package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/bonjohen/gistqueue/internal/common"
	"github.com/bonjohen/gistqueue/internal/interfaces"
	"github.com/bonjohen/gistqueue/internal/models"
)

// Directory maps human queue names to queue documents through a naming
// convention: description "{prefix} {name}", single file "{name}_queue.{ext}".
type Directory struct {
	docs   interfaces.DocumentStore
	logger arbor.ILogger

	prefix       string
	defaultQueue string
	extension    string
}

// NewDirectory creates a queue directory over a document store
func NewDirectory(docs interfaces.DocumentStore, config *common.Config, logger arbor.ILogger) *Directory {
	return &Directory{
		docs:         docs,
		logger:       logger,
		prefix:       config.Queue.DescriptionPrefix,
		defaultQueue: config.Queue.DefaultName,
		extension:    config.Queue.FileExtension,
	}
}

// DefaultQueue returns the configured default queue name
func (d *Directory) DefaultQueue() string {
	return d.defaultQueue
}

// QueueDescription returns the canonical description tag for a queue
func (d *Directory) QueueDescription(name string) string {
	return fmt.Sprintf("%s %s", d.prefix, name)
}

// QueueFilename returns the canonical filename for a queue
func (d *Directory) QueueFilename(name string) string {
	return fmt.Sprintf("%s_queue.%s", name, d.extension)
}

// CreateQueue creates a new queue holding an empty message array. Creation
// is idempotent: if a document already carries the queue's description tag,
// that document is returned unchanged.
func (d *Directory) CreateQueue(ctx context.Context, name string, public bool) (*models.Document, error) {
	if name == "" {
		name = d.defaultQueue
	}

	existing, err := d.GetQueue(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		d.logger.Info().Str("queue", name).Str("document_id", existing.ID).Msg("Queue already exists")
		return existing, nil
	}

	doc, err := d.docs.CreateDocument(ctx, d.QueueDescription(name), d.QueueFilename(name), "[]", public)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue %q: %w", name, err)
	}

	d.logger.Info().Str("queue", name).Str("document_id", doc.ID).Msg("Queue created")
	return doc, nil
}

// GetQueue looks a queue up by name. Returns (nil, nil) when absent.
func (d *Directory) GetQueue(ctx context.Context, name string) (*models.Document, error) {
	if name == "" {
		name = d.defaultQueue
	}
	return d.docs.FindByDescription(ctx, d.QueueDescription(name))
}

// GetQueueByID looks a queue up by document ID. Returns (nil, nil) when absent.
func (d *Directory) GetQueueByID(ctx context.Context, id string) (*models.Document, error) {
	return d.docs.GetDocument(ctx, id)
}

// ListQueues returns every queue owned by the authenticated user, recovered
// from documents whose description starts with the queue prefix
func (d *Directory) ListQueues(ctx context.Context) ([]models.QueueInfo, error) {
	docs, err := d.docs.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	queues := make([]models.QueueInfo, 0)
	for _, doc := range docs {
		if !strings.HasPrefix(doc.Description, d.prefix) {
			continue
		}
		queues = append(queues, models.QueueInfo{
			ID:          doc.ID,
			Name:        strings.TrimSpace(strings.TrimPrefix(doc.Description, d.prefix)),
			Description: doc.Description,
			URL:         doc.URL,
			CreatedAt:   doc.CreatedAt,
			UpdatedAt:   doc.UpdatedAt,
		})
	}
	return queues, nil
}

// Resolve turns a queue reference into a concrete document and queue
// filename. Returns models.ErrQueueNotFound when no document matches.
func (d *Directory) Resolve(ctx context.Context, ref models.QueueRef) (*models.Document, string, error) {
	switch ref.Kind {
	case models.RefByID:
		doc, err := d.GetQueueByID(ctx, ref.ID)
		if err != nil {
			return nil, "", err
		}
		if doc == nil {
			return nil, "", fmt.Errorf("queue %q: %w", ref.ID, models.ErrQueueNotFound)
		}
		filename, ok := d.queueFileIn(doc)
		if !ok {
			return nil, "", fmt.Errorf("no queue file in document %q: %w", ref.ID, models.ErrQueueNotFound)
		}
		return doc, filename, nil

	case models.RefByDocument:
		if ref.Doc == nil {
			return nil, "", models.ErrQueueNotFound
		}
		if ref.Name != "" {
			return ref.Doc, d.QueueFilename(ref.Name), nil
		}
		filename, ok := d.queueFileIn(ref.Doc)
		if !ok {
			return nil, "", fmt.Errorf("no queue file in document %q: %w", ref.Doc.ID, models.ErrQueueNotFound)
		}
		return ref.Doc, filename, nil

	default:
		name := ref.Name
		if name == "" {
			name = d.defaultQueue
		}
		doc, err := d.GetQueue(ctx, name)
		if err != nil {
			return nil, "", err
		}
		if doc == nil {
			return nil, "", fmt.Errorf("queue %q: %w", name, models.ErrQueueNotFound)
		}
		return doc, d.QueueFilename(name), nil
	}
}

// queueFileIn finds the queue file inside a document by its filename suffix
func (d *Directory) queueFileIn(doc *models.Document) (string, bool) {
	suffix := fmt.Sprintf("_queue.%s", d.extension)
	for name := range doc.Files {
		if strings.HasSuffix(name, suffix) {
			return name, true
		}
	}
	return "", false
}

// GetQueueContent resolves a queue reference and parses its message array.
// A missing queue or file yields models.ErrQueueNotFound; malformed JSON
// yields models.ErrParse.
func (d *Directory) GetQueueContent(ctx context.Context, ref models.QueueRef) ([]models.Message, error) {
	doc, filename, err := d.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	content, err := d.docs.ReadFileContent(ctx, doc.ID, filename)
	if err != nil {
		return nil, err
	}

	return ParseMessages(content)
}

// ParseMessages decodes a queue document's JSON array
func ParseMessages(content string) ([]models.Message, error) {
	var msgs []models.Message
	if err := json.Unmarshal([]byte(content), &msgs); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrParse, err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// MarshalMessages encodes a message array in the stable on-document format:
// two-space indentation, fixed field order. Byte stability across writes is
// required by the fingerprint verification in the concurrency layer.
func MarshalMessages(msgs []models.Message) (string, error) {
	if msgs == nil {
		msgs = []models.Message{}
	}
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize queue content: %w", err)
	}
	return string(data), nil
}

var _ interfaces.QueueDirectory = (*Directory)(nil)
