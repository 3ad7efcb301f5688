package queue

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bonjohen/gistqueue/internal/common"
	"github.com/bonjohen/gistqueue/internal/gist"
	"github.com/bonjohen/gistqueue/internal/interfaces"
	"github.com/bonjohen/gistqueue/internal/models"
)

// minRetryDelay is the floor for any backoff wait
const minRetryDelay = 100 * time.Millisecond

// Controller makes read-modify-write queue mutations safe under concurrent
// writers. The document store only offers whole-file blind overwrites, so
// lost updates cannot be prevented; instead every write is verified by an
// immediate re-read and fingerprint comparison, and detected conflicts are
// retried from fresh content with exponential backoff and jitter.
type Controller struct {
	dir    *Directory
	docs   interfaces.DocumentStore
	logger arbor.ILogger

	maxRetries   int
	delayBase    time.Duration
	delayMax     time.Duration
	jitterFactor float64
	workerID     string
}

// NewController creates a concurrency controller from configuration
func NewController(dir *Directory, docs interfaces.DocumentStore, config *common.Config, logger arbor.ILogger) *Controller {
	return &Controller{
		dir:          dir,
		docs:         docs,
		logger:       logger,
		maxRetries:   config.Concurrency.MaxRetries,
		delayBase:    config.Concurrency.RetryDelayBase,
		delayMax:     config.Concurrency.RetryDelayMax,
		jitterFactor: config.Concurrency.JitterFactor,
		workerID:     common.ProcessIdentifier(),
	}
}

// fingerprint returns the content hash used to detect whether a write
// landed unmodified
func fingerprint(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// AtomicUpdate reads the queue document, applies fn to the parsed message
// array, writes the result back, and verifies the write by re-reading and
// comparing fingerprints. A mismatch means another writer interleaved and
// yields ErrConflict; callers retry through WithRetry.
//
// fn must be pure: no I/O, output derived only from the input slice.
func (c *Controller) AtomicUpdate(ctx context.Context, ref models.QueueRef, fn interfaces.UpdateFunc) ([]models.Message, error) {
	doc, filename, err := c.dir.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	current, err := c.docs.ReadFileContent(ctx, doc.ID, filename)
	if err != nil {
		return nil, err
	}
	msgs, err := ParseMessages(current)
	if err != nil {
		return nil, err
	}

	updated, err := fn(msgs)
	if err != nil {
		return nil, err
	}

	// Serialization must be deterministic: the verify step compares the
	// re-read bytes against this exact string, not against a re-derivation.
	written, err := MarshalMessages(updated)
	if err != nil {
		return nil, err
	}

	if _, err := c.docs.UpdateDocument(ctx, doc.ID, filename, written); err != nil {
		return nil, fmt.Errorf("failed to write queue content: %w", err)
	}

	verify, err := c.docs.ReadFileContent(ctx, doc.ID, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to verify queue update: %w", err)
	}

	if fingerprint(verify) != fingerprint(written) {
		return nil, fmt.Errorf("queue %s: %w", ref.String(), ErrConflict)
	}

	return updated, nil
}

// WithRetry executes op, retrying on conflicts and retryable storage
// failures with capped exponential backoff plus jitter. Not-found, parse,
// and validation failures propagate immediately without burning attempts.
// Exhausting the budget returns a ConflictError wrapping the last failure.
func (c *Controller) WithRetry(ctx context.Context, op func(ctx context.Context) ([]models.Message, error)) ([]models.Message, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == c.maxRetries-1 {
			break
		}

		delay := c.retryDelay(attempt)
		c.logger.Warn().
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Str("delay", delay.String()).
			Err(err).
			Msg("Queue update conflict, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, &ConflictError{Attempts: c.maxRetries, Err: lastErr}
}

// retryDelay computes the wait before retry attempt (0-based): exponential
// backoff capped at delayMax, with uniform jitter of ±jitterFactor, floored
// at 100ms to avoid hammering the store.
func (c *Controller) retryDelay(attempt int) time.Duration {
	delay := c.delayBase << attempt
	if delay > c.delayMax || delay <= 0 {
		delay = c.delayMax
	}

	jitter := (rand.Float64()*2 - 1) * c.jitterFactor * float64(delay)
	delay += time.Duration(jitter)

	if delay < minRetryDelay {
		delay = minRetryDelay
	}
	return delay
}

// isRetryable reports whether err is worth another attempt: detected
// conflicts and transient storage failures are; absent queues or messages
// and malformed content are not.
func isRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || gist.IsRetryable(err)
}

// AtomicClaimNext claims the first pending message under the retry wrapper.
// A cheap pre-read short-circuits when nothing is pending, avoiding a
// wasted write attempt. After a verified update the claimed record is
// recovered by worker identity, since a concurrent claimer may have taken
// the message this call was aiming for.
func (c *Controller) AtomicClaimNext(ctx context.Context, ref models.QueueRef) (*models.Message, error) {
	current, err := c.dir.GetQueueContent(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !anyPending(current) {
		return nil, models.ErrNoMessage
	}

	claim := func(msgs []models.Message) ([]models.Message, error) {
		for i := range msgs {
			if msgs[i].Status == models.StatusPending {
				msgs[i].Claim(c.workerID)
				break
			}
		}
		return msgs, nil
	}

	updated, err := c.WithRetry(ctx, func(ctx context.Context) ([]models.Message, error) {
		return c.AtomicUpdate(ctx, ref, claim)
	})
	if err != nil {
		return nil, err
	}

	for i := range updated {
		if updated[i].ClaimedBy(c.workerID) {
			c.logger.Info().
				Str("queue", ref.String()).
				Str("message_id", updated[i].ID).
				Msg("Message claimed")
			return &updated[i], nil
		}
	}

	// Another worker drained the pending messages between the pre-read and
	// the verified update; the claim function found nothing to claim.
	return nil, models.ErrNoMessage
}

// AtomicUpdateMessage updates a message by ID under the retry wrapper.
// models.ErrMessageNotFound raised by the update function is not retryable
// and propagates immediately.
func (c *Controller) AtomicUpdateMessage(ctx context.Context, ref models.QueueRef, id string, content interface{}, status *models.MessageStatus) (*models.Message, error) {
	update := func(msgs []models.Message) ([]models.Message, error) {
		if _, err := applyMessageUpdate(msgs, id, content, status); err != nil {
			return nil, err
		}
		return msgs, nil
	}

	updated, err := c.WithRetry(ctx, func(ctx context.Context) ([]models.Message, error) {
		return c.AtomicUpdate(ctx, ref, update)
	})
	if err != nil {
		return nil, err
	}

	for i := range updated {
		if updated[i].ID == id {
			c.logger.Info().
				Str("queue", ref.String()).
				Str("message_id", id).
				Msg("Message updated")
			return &updated[i], nil
		}
	}
	return nil, fmt.Errorf("message %q: %w", id, models.ErrMessageNotFound)
}

// anyPending reports whether at least one message is pending
func anyPending(msgs []models.Message) bool {
	for _, m := range msgs {
		if m.Status == models.StatusPending {
			return true
		}
	}
	return false
}

var _ interfaces.ConcurrencyController = (*Controller)(nil)
