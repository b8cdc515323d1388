// Package session provides per-session conversation history. A
// session holds an ordered User/Assistant message sequence; tool
// results are never persisted, only the committed turn pairs.
package session

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/parley/pkg/models"
)

// Store maps session ids to ordered persisted messages. Sessions are
// created lazily on first append; an unknown id reads as empty.
//
// Implementations must be safe for concurrent use; operations on the
// same session id are serialized so reads see a consistent snapshot
// and Append is atomic.
type Store interface {
	// GetMessages returns a defensive copy of the session's messages in
	// insertion order. Unknown sessions return an empty slice.
	GetMessages(ctx context.Context, sessionID string) ([]models.Message, error)

	// Append commits one User/Assistant pair atomically: either both
	// are visible on the next read or neither is.
	Append(ctx context.Context, sessionID, question, answer string) error

	// Clear removes all messages; the session id remains addressable.
	Clear(ctx context.Context, sessionID string) error

	// Delete removes the session entirely.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions returns the known session ids.
	ListSessions(ctx context.Context) ([]string, error)

	// MessageCount returns the number of persisted messages.
	MessageCount(ctx context.Context, sessionID string) (int, error)
}

// StorageError wraps a failed store operation. The orchestrator
// surfaces these to the caller and does not retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session store %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
