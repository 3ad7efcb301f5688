package interfaces

import (
	"context"
	"time"

	"github.com/bonjohen/gistqueue/internal/models"
)

// QueueDirectory maps human queue names to queue documents
type QueueDirectory interface {
	CreateQueue(ctx context.Context, name string, public bool) (*models.Document, error)
	GetQueue(ctx context.Context, name string) (*models.Document, error)
	GetQueueByID(ctx context.Context, id string) (*models.Document, error)
	ListQueues(ctx context.Context) ([]models.QueueInfo, error)
	GetQueueContent(ctx context.Context, ref models.QueueRef) ([]models.Message, error)
	Resolve(ctx context.Context, ref models.QueueRef) (*models.Document, string, error)
}

// MessageStore provides message operations over a queue document.
// ClaimNext is a naive read-mutate-write and is only safe with a single
// writer; concurrent claimers must go through ConcurrencyController.
type MessageStore interface {
	CreateMessage(ctx context.Context, ref models.QueueRef, content interface{}) (*models.Message, error)
	ListMessages(ctx context.Context, ref models.QueueRef, status models.MessageStatus) ([]models.Message, error)
	ClaimNext(ctx context.Context, ref models.QueueRef) (*models.Message, error)
	UpdateMessage(ctx context.Context, ref models.QueueRef, id string, content interface{}, status *models.MessageStatus) (*models.Message, error)
	PurgeCompleted(ctx context.Context, ref models.QueueRef, retentionDays int) (int, error)
}

// UpdateFunc transforms the current message array into the new one. It must
// be pure: no I/O, result derived only from the input slice.
type UpdateFunc func(msgs []models.Message) ([]models.Message, error)

// ConcurrencyController makes read-modify-write operations against a queue
// document safe under concurrent writers via fingerprint verification and
// bounded retry with backoff.
type ConcurrencyController interface {
	AtomicUpdate(ctx context.Context, ref models.QueueRef, fn UpdateFunc) ([]models.Message, error)
	AtomicClaimNext(ctx context.Context, ref models.QueueRef) (*models.Message, error)
	AtomicUpdateMessage(ctx context.Context, ref models.QueueRef, id string, content interface{}, status *models.MessageStatus) (*models.Message, error)
}

// RetentionSweeper periodically purges old completed messages across all
// queues. At most one loop may run per process.
type RetentionSweeper interface {
	Start() error
	Stop(timeout time.Duration) error
	CleanupQueue(ctx context.Context, name string) int
	CleanupAllQueues(ctx context.Context) map[string]int
}
