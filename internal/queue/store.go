package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bonjohen/gistqueue/internal/common"
	"github.com/bonjohen/gistqueue/internal/interfaces"
	"github.com/bonjohen/gistqueue/internal/models"
)

// Store provides message operations over queue documents. Every operation
// re-reads the full document, mutates the array, and writes it back whole;
// no message state is cached across calls.
type Store struct {
	dir      *Directory
	docs     interfaces.DocumentStore
	logger   arbor.ILogger
	workerID string
}

// NewStore creates a message store over a queue directory
func NewStore(dir *Directory, docs interfaces.DocumentStore, logger arbor.ILogger) *Store {
	return &Store{
		dir:      dir,
		docs:     docs,
		logger:   logger,
		workerID: common.ProcessIdentifier(),
	}
}

// CreateMessage appends a new pending message to the queue
func (s *Store) CreateMessage(ctx context.Context, ref models.QueueRef, content interface{}) (*models.Message, error) {
	doc, filename, err := s.dir.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	raw, err := s.docs.ReadFileContent(ctx, doc.ID, filename)
	if err != nil {
		return nil, err
	}
	msgs, err := ParseMessages(raw)
	if err != nil {
		return nil, err
	}

	msg := models.NewMessage(common.NewMessageID(), content)
	msgs = append(msgs, msg)

	if err := s.writeBack(ctx, doc.ID, filename, msgs); err != nil {
		return nil, err
	}

	s.logger.Info().Str("queue", ref.String()).Str("message_id", msg.ID).Msg("Message created")
	return &msg, nil
}

// ListMessages returns the queue's messages, optionally filtered by status
func (s *Store) ListMessages(ctx context.Context, ref models.QueueRef, status models.MessageStatus) ([]models.Message, error) {
	msgs, err := s.dir.GetQueueContent(ctx, ref)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return msgs, nil
	}

	filtered := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Status == status {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// ClaimNext claims the first pending message by position and marks it in
// progress for this worker. This is a naive read-mutate-write: under
// concurrent claimers the same message can be handed out twice. Use
// Controller.AtomicClaimNext when more than one writer exists.
func (s *Store) ClaimNext(ctx context.Context, ref models.QueueRef) (*models.Message, error) {
	doc, filename, err := s.dir.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	raw, err := s.docs.ReadFileContent(ctx, doc.ID, filename)
	if err != nil {
		return nil, err
	}
	msgs, err := ParseMessages(raw)
	if err != nil {
		return nil, err
	}

	for i := range msgs {
		if msgs[i].Status != models.StatusPending {
			continue
		}
		msgs[i].Claim(s.workerID)

		if err := s.writeBack(ctx, doc.ID, filename, msgs); err != nil {
			return nil, err
		}

		claimed := msgs[i]
		s.logger.Info().Str("queue", ref.String()).Str("message_id", claimed.ID).Msg("Message claimed")
		return &claimed, nil
	}

	return nil, models.ErrNoMessage
}

// UpdateMessage applies content and/or status changes to a message by ID.
// The status timestamp is bumped only when a status change is requested.
// No write occurs when the ID is absent.
func (s *Store) UpdateMessage(ctx context.Context, ref models.QueueRef, id string, content interface{}, status *models.MessageStatus) (*models.Message, error) {
	doc, filename, err := s.dir.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	raw, err := s.docs.ReadFileContent(ctx, doc.ID, filename)
	if err != nil {
		return nil, err
	}
	msgs, err := ParseMessages(raw)
	if err != nil {
		return nil, err
	}

	updated, err := applyMessageUpdate(msgs, id, content, status)
	if err != nil {
		return nil, err
	}

	if err := s.writeBack(ctx, doc.ID, filename, msgs); err != nil {
		return nil, err
	}

	s.logger.Info().Str("queue", ref.String()).Str("message_id", id).Msg("Message updated")
	return updated, nil
}

// PurgeCompleted removes complete messages whose status timestamp is older
// than the retention threshold. Returns the number removed; the document is
// rewritten only when at least one message was removed.
func (s *Store) PurgeCompleted(ctx context.Context, ref models.QueueRef, retentionDays int) (int, error) {
	doc, filename, err := s.dir.Resolve(ctx, ref)
	if err != nil {
		return 0, err
	}

	raw, err := s.docs.ReadFileContent(ctx, doc.ID, filename)
	if err != nil {
		return 0, err
	}
	msgs, err := ParseMessages(raw)
	if err != nil {
		return 0, err
	}

	kept, removed := purgeCompleted(msgs, retentionCutoff(time.Now(), retentionDays))
	if removed == 0 {
		return 0, nil
	}

	if err := s.writeBack(ctx, doc.ID, filename, kept); err != nil {
		return 0, err
	}

	s.logger.Info().Str("queue", ref.String()).Int("removed", removed).Msg("Purged completed messages")
	return removed, nil
}

func (s *Store) writeBack(ctx context.Context, docID, filename string, msgs []models.Message) error {
	content, err := MarshalMessages(msgs)
	if err != nil {
		return err
	}
	if _, err := s.docs.UpdateDocument(ctx, docID, filename, content); err != nil {
		return fmt.Errorf("failed to write queue content: %w", err)
	}
	return nil
}

// applyMessageUpdate mutates msgs in place, updating the record with the
// given ID. Returns models.ErrMessageNotFound when absent.
func applyMessageUpdate(msgs []models.Message, id string, content interface{}, status *models.MessageStatus) (*models.Message, error) {
	for i := range msgs {
		if msgs[i].ID != id {
			continue
		}
		if content != nil {
			msgs[i].Content = content
		}
		if status != nil {
			if !models.CanTransition(msgs[i].Status, *status) {
				return nil, fmt.Errorf("message %q: %s -> %s: %w",
					id, msgs[i].Status, *status, models.ErrInvalidTransition)
			}
			msgs[i].SetStatus(*status)
		}
		return &msgs[i], nil
	}
	return nil, fmt.Errorf("message %q: %w", id, models.ErrMessageNotFound)
}

// retentionCutoff returns the status_datetime value below which complete
// messages are eligible for deletion
func retentionCutoff(now time.Time, retentionDays int) string {
	return models.StatusTime(now.AddDate(0, 0, -retentionDays))
}

// purgeCompleted filters out complete messages older than the cutoff.
// The fixed-width UTC timestamp format makes lexicographic comparison
// equivalent to chronological comparison.
func purgeCompleted(msgs []models.Message, cutoff string) ([]models.Message, int) {
	kept := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Status == models.StatusComplete && m.StatusDatetime < cutoff {
			continue
		}
		kept = append(kept, m)
	}
	return kept, len(msgs) - len(kept)
}

var _ interfaces.MessageStore = (*Store)(nil)
