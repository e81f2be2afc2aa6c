package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChatSession binds a conversation to a workflow.
type ChatSession struct {
	ID         int           `json:"id"`
	WorkflowID int           `json:"workflow_id"`
	SessionID  string        `json:"session_id"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  *time.Time    `json:"updated_at,omitempty"`
	Messages   []ChatMessage `json:"messages"`
}

// ChatMessage is one user or AI message in a session.
type ChatMessage struct {
	ID          int            `json:"id"`
	MessageType string         `json:"message_type"`
	Content     string         `json:"content"`
	MetaData    map[string]any `json:"meta_data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateChatSession creates a session with a fresh uuid for the workflow.
func (d *DB) CreateChatSession(workflowID int) (*ChatSession, error) {
	sessionID := uuid.New().String()

	var s ChatSession
	err := d.sql.QueryRow(`
		INSERT INTO chat_sessions (workflow_id, session_id)
		VALUES ($1, $2)
		RETURNING id, workflow_id, session_id, created_at, updated_at`,
		workflowID, sessionID).Scan(&s.ID, &s.WorkflowID, &s.SessionID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Messages = []ChatMessage{}
	return &s, nil
}

// GetChatSession loads a session and all of its messages, oldest first.
func (d *DB) GetChatSession(sessionID string) (*ChatSession, error) {
	var s ChatSession
	err := d.sql.QueryRow(`
		SELECT id, workflow_id, session_id, created_at, updated_at
		FROM chat_sessions WHERE session_id = $1`, sessionID).Scan(
		&s.ID, &s.WorkflowID, &s.SessionID, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	messages, err := d.listMessages(s.ID, 0)
	if err != nil {
		return nil, err
	}
	s.Messages = messages
	return &s, nil
}

// AddChatMessage appends a message to a session. Metadata may be nil.
func (d *DB) AddChatMessage(sessionDBID int, messageType, content string, metadata map[string]any) (*ChatMessage, error) {
	var metaJSON any
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		metaJSON = raw
	}

	var m ChatMessage
	var rawMeta []byte
	err := d.sql.QueryRow(`
		INSERT INTO chat_messages (session_id, message_type, content, meta_data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, message_type, content, meta_data, created_at`,
		sessionDBID, messageType, content, metaJSON).Scan(
		&m.ID, &m.MessageType, &m.Content, &rawMeta, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &m.MetaData); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &m, nil
}

// ListChatMessages returns up to limit messages of a session, newest first.
func (d *DB) ListChatMessages(sessionID string, limit int) ([]ChatMessage, error) {
	s, err := d.GetChatSession(sessionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.sql.Query(`
		SELECT id, message_type, content, meta_data, created_at
		FROM chat_messages WHERE session_id = $1
		ORDER BY created_at DESC LIMIT $2`, s.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// DeleteChatSession removes a session and all of its messages.
func (d *DB) DeleteChatSession(sessionID string) error {
	s, err := d.GetChatSession(sessionID)
	if err != nil {
		return err
	}
	if _, err := d.sql.Exec(`DELETE FROM chat_messages WHERE session_id = $1`, s.ID); err != nil {
		return err
	}
	_, err = d.sql.Exec(`DELETE FROM chat_sessions WHERE id = $1`, s.ID)
	return err
}

func (d *DB) listMessages(sessionDBID, limit int) ([]ChatMessage, error) {
	query := `
		SELECT id, message_type, content, meta_data, created_at
		FROM chat_messages WHERE session_id = $1
		ORDER BY created_at`
	args := []any{sessionDBID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := d.sql.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]ChatMessage, error) {
	messages := []ChatMessage{}
	for rows.Next() {
		var m ChatMessage
		var rawMeta []byte
		if err := rows.Scan(&m.ID, &m.MessageType, &m.Content, &rawMeta, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &m.MetaData); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
