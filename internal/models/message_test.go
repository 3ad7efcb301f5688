package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from MessageStatus
		to   MessageStatus
		want bool
	}{
		{"pending to in_progress", StatusPending, StatusInProgress, true},
		{"pending to complete", StatusPending, StatusComplete, false},
		{"pending to failed", StatusPending, StatusFailed, false},
		{"in_progress to complete", StatusInProgress, StatusComplete, true},
		{"in_progress to failed", StatusInProgress, StatusFailed, true},
		{"in_progress to pending", StatusInProgress, StatusPending, false},
		{"complete to pending", StatusComplete, StatusPending, false},
		{"complete to in_progress", StatusComplete, StatusInProgress, false},
		{"failed to in_progress", StatusFailed, StatusInProgress, false},
		{"same status is allowed", StatusComplete, StatusComplete, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusInProgress.Valid())
	assert.True(t, StatusComplete.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, MessageStatus("archived").Valid())
	assert.False(t, MessageStatus("").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestStatusTimeFormat(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 5, 7, 123456000, time.FixedZone("UTC+2", 2*3600))
	got := StatusTime(at)
	assert.Equal(t, "2026-03-10T07:05:07.123456Z", got)

	// fixed width keeps lexicographic order chronological
	earlier := StatusTime(at.Add(-time.Hour))
	assert.Less(t, earlier, got)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("m1", map[string]interface{}{"job": "resize"})
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, StatusPending, msg.Status)
	assert.Nil(t, msg.Process)

	_, err := time.Parse(StatusTimeFormat, msg.StatusDatetime)
	assert.NoError(t, err)
}

func TestClaimAndClaimedBy(t *testing.T) {
	msg := NewMessage("m1", "payload")
	before := msg.StatusDatetime

	msg.Claim("host:42")
	assert.Equal(t, StatusInProgress, msg.Status)
	require.NotNil(t, msg.Process)
	assert.Equal(t, "host:42", *msg.Process)
	assert.GreaterOrEqual(t, msg.StatusDatetime, before)

	assert.True(t, msg.ClaimedBy("host:42"))
	assert.False(t, msg.ClaimedBy("other:1"))

	msg.SetStatus(StatusComplete)
	assert.False(t, msg.ClaimedBy("host:42"), "only in-progress messages count as claimed")
}

func TestMessageJSONFieldOrder(t *testing.T) {
	msg := Message{
		ID:             "m1",
		Content:        "payload",
		Status:         StatusPending,
		StatusDatetime: "2026-03-10T07:05:07.123456Z",
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"m1","content":"payload","status":"pending","status_datetime":"2026-03-10T07:05:07.123456Z","process":null}`,
		string(data))
}
