package common

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// NewMessageID generates a globally unique message ID
func NewMessageID() string {
	return uuid.New().String()
}

// ProcessIdentifier returns the identity recorded on claimed messages so a
// worker can recognize its own claim after a shared-document update.
// Format: hostname:pid
func ProcessIdentifier() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%d", hostname, os.Getpid())
}
