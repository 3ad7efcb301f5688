package models

import (
	"errors"
	"time"
)

// ErrNoMessage is returned when a queue has no pending messages
var ErrNoMessage = errors.New("no pending messages in queue")

// ErrMessageNotFound is returned when a message ID does not exist in the queue
var ErrMessageNotFound = errors.New("message not found")

// ErrInvalidTransition is returned when a status update would violate the
// message lifecycle (e.g. reopening a complete or failed message)
var ErrInvalidTransition = errors.New("invalid message status transition")

// StatusTimeFormat is the fixed-width UTC timestamp format stored in
// status_datetime. Fixed width matters: purge compares timestamps
// lexicographically, and the fingerprint check requires byte-stable output.
const StatusTimeFormat = "2006-01-02T15:04:05.000000Z07:00"

// MessageStatus represents the lifecycle state of a queue message
type MessageStatus string

const (
	StatusPending    MessageStatus = "pending"
	StatusInProgress MessageStatus = "in_progress"
	StatusComplete   MessageStatus = "complete"
	StatusFailed     MessageStatus = "failed"
)

// Valid reports whether s is a known message status
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a final state. Terminal messages never
// move back to pending or in_progress.
func (s MessageStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// CanTransition reports whether a message may move from one status to another.
// Claimed messages never return to pending, and terminal states never change.
func CanTransition(from, to MessageStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusInProgress
	case StatusInProgress:
		return to == StatusComplete || to == StatusFailed
	}
	return false
}

// Message is a single record in a queue document. The JSON field order is
// fixed by the struct definition; serialization must stay byte-stable
// across writes for the concurrency fingerprint check.
type Message struct {
	ID             string        `json:"id"`
	Content        interface{}   `json:"content"`
	Status         MessageStatus `json:"status"`
	StatusDatetime string        `json:"status_datetime"`
	Process        *string       `json:"process"`
}

// NewMessage creates a pending message with a fresh timestamp
func NewMessage(id string, content interface{}) Message {
	return Message{
		ID:             id,
		Content:        content,
		Status:         StatusPending,
		StatusDatetime: StatusTime(time.Now()),
		Process:        nil,
	}
}

// StatusTime formats t as a status_datetime value
func StatusTime(t time.Time) string {
	return t.UTC().Format(StatusTimeFormat)
}

// SetStatus moves the message to a new status and bumps the timestamp
func (m *Message) SetStatus(status MessageStatus) {
	m.Status = status
	m.StatusDatetime = StatusTime(time.Now())
}

// Claim marks the message as in progress on behalf of the given worker
func (m *Message) Claim(workerID string) {
	m.SetStatus(StatusInProgress)
	m.Process = &workerID
}

// ClaimedBy reports whether this message is in progress under workerID
func (m *Message) ClaimedBy(workerID string) bool {
	return m.Status == StatusInProgress && m.Process != nil && *m.Process == workerID
}
