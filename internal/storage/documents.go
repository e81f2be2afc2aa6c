package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Document is the metadata row for an uploaded file. Content holds the
// extracted text once the document has been processed.
type Document struct {
	ID               int            `json:"id"`
	Filename         string         `json:"filename"`
	OriginalFilename string         `json:"original_filename"`
	FilePath         string         `json:"file_path"`
	FileSize         int64          `json:"file_size"`
	FileType         string         `json:"file_type"`
	Content          string         `json:"content,omitempty"`
	MetaData         map[string]any `json:"meta_data,omitempty"`
	IsProcessed      bool           `json:"is_processed"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

func (d *DB) CreateDocument(doc *Document) (*Document, error) {
	var metaJSON any
	if doc.MetaData != nil {
		raw, err := json.Marshal(doc.MetaData)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		metaJSON = raw
	}

	err := d.sql.QueryRow(`
		INSERT INTO documents (filename, original_filename, file_path, file_size, file_type, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_processed, created_at, updated_at`,
		doc.Filename, doc.OriginalFilename, doc.FilePath, doc.FileSize, doc.FileType, metaJSON).Scan(
		&doc.ID, &doc.IsProcessed, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *DB) GetDocument(id int) (*Document, error) {
	var doc Document
	var content sql.NullString
	var rawMeta []byte
	err := d.sql.QueryRow(`
		SELECT id, filename, original_filename, file_path, file_size, file_type,
		       content, meta_data, is_processed, created_at, updated_at
		FROM documents WHERE id = $1`, id).Scan(
		&doc.ID, &doc.Filename, &doc.OriginalFilename, &doc.FilePath, &doc.FileSize,
		&doc.FileType, &content, &rawMeta, &doc.IsProcessed, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.Content = content.String
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &doc.MetaData); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &doc, nil
}

// ListDocuments returns one page of document metadata (without extracted
// content) plus the total count.
func (d *DB) ListDocuments(page, size int) ([]Document, int, error) {
	offset := (page - 1) * size
	rows, err := d.sql.Query(`
		SELECT id, filename, original_filename, file_path, file_size, file_type,
		       is_processed, created_at, updated_at
		FROM documents ORDER BY created_at DESC OFFSET $1 LIMIT $2`, offset, size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.OriginalFilename, &doc.FilePath,
			&doc.FileSize, &doc.FileType, &doc.IsProcessed, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := d.sql.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// MarkDocumentProcessed stores the extracted content and flips the processed
// flag.
func (d *DB) MarkDocumentProcessed(id int, content string) error {
	result, err := d.sql.Exec(`
		UPDATE documents
		SET content = $1, is_processed = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`, content, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) DeleteDocument(id int) error {
	result, err := d.sql.Exec(`DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountDocuments reports the total number of document rows, for metrics.
func (d *DB) CountDocuments() (int, error) {
	var count int
	err := d.sql.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}
