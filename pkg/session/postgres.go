package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codeready-toolchain/parley/pkg/models"
)

// PostgresStore persists session history in a conversation_turns
// table. Append writes the User/Assistant pair in one transaction, so
// readers never observe a half-committed turn.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool. The schema is
// managed by the database package's embedded migrations.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM conversation_turns WHERE session_id = $1 ORDER BY seq`,
		sessionID)
	if err != nil {
		return nil, &StorageError{Op: "get_messages", Err: err}
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, &StorageError{Op: "get_messages", Err: err}
		}
		msgs = append(msgs, models.Message{Role: models.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "get_messages", Err: err}
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

func (s *PostgresStore) Append(ctx context.Context, sessionID, question, answer string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	// Serialize appends per session: without the lock, concurrent
	// writers read the same MAX(seq) and the loser dies on the unique
	// constraint instead of queueing behind the winner.
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
		return &StorageError{Op: "append", Err: err}
	}

	var nextSeq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM conversation_turns WHERE session_id = $1`,
		sessionID).Scan(&nextSeq)
	if err != nil {
		return &StorageError{Op: "append", Err: err}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversation_turns (session_id, seq, role, content) VALUES
		 ($1, $2, $3, $4), ($1, $5, $6, $7)`,
		sessionID,
		nextSeq, string(models.RoleUser), question,
		nextSeq+1, string(models.RoleAssistant), answer)
	if err != nil {
		return &StorageError{Op: "append", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "append", Err: fmt.Errorf("commit failed: %w", err)}
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_turns WHERE session_id = $1`, sessionID); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// Delete is identical to Clear at the storage level: a session is
// nothing beyond its rows.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_turns WHERE session_id = $1`, sessionID); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

func (s *PostgresStore) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM conversation_turns ORDER BY session_id`)
	if err != nil {
		return nil, &StorageError{Op: "list_sessions", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &StorageError{Op: "list_sessions", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list_sessions", Err: err}
	}
	return ids, nil
}

func (s *PostgresStore) MessageCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_turns WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		return 0, &StorageError{Op: "message_count", Err: err}
	}
	return count, nil
}
