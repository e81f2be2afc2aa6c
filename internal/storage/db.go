// Package storage persists workflows, chat sessions, execution records, and
// document metadata in Postgres.
package storage

import (
	"database/sql"
	"errors"
	"log"

	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps the relational database handle.
type DB struct {
	sql *sql.DB
}

// Open connects to Postgres and creates the tables if they are missing.
func Open(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	log.Println("Connected to PostgreSQL database")

	d := &DB{sql: db}
	if err := d.createTables(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping verifies database connectivity, for health checks.
func (d *DB) Ping() error {
	return d.sql.Ping()
}

func (d *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS workflows (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		nodes JSONB NOT NULL,
		edges JSONB NOT NULL,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id SERIAL PRIMARY KEY,
		workflow_id INTEGER NOT NULL REFERENCES workflows(id),
		session_id VARCHAR(255) UNIQUE NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id SERIAL PRIMARY KEY,
		session_id INTEGER NOT NULL REFERENCES chat_sessions(id),
		message_type VARCHAR(50) NOT NULL,
		content TEXT NOT NULL,
		meta_data JSONB,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS workflow_executions (
		id SERIAL PRIMARY KEY,
		workflow_id INTEGER NOT NULL REFERENCES workflows(id),
		session_id VARCHAR(255) NOT NULL,
		input_data JSONB NOT NULL,
		output_data JSONB,
		execution_log JSONB,
		status VARCHAR(50) DEFAULT 'pending',
		error_message TEXT,
		execution_time INTEGER,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS documents (
		id SERIAL PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		original_filename VARCHAR(255) NOT NULL,
		file_path VARCHAR(500) NOT NULL,
		file_size INTEGER NOT NULL,
		file_type VARCHAR(50) NOT NULL,
		content TEXT,
		meta_data JSONB,
		is_processed BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ
	);
	`

	if _, err := d.sql.Exec(query); err != nil {
		return err
	}
	log.Println("Database tables created successfully")
	return nil
}
