// Package vector stores document chunk embeddings in Postgres with pgvector
// and serves similarity search for the workflow engine's knowledge nodes.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/KumarSohan18/No-Code-platform/internal/workflow"
)

// ErrSearch wraps backend failures during similarity search.
var ErrSearch = errors.New("vector search failed")

// EmbeddingDim is the dimension of text-embedding-ada-002 vectors.
const EmbeddingDim = 1536

// Embedder turns text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunk is one piece of a document ready for embedding and storage.
type Chunk struct {
	ID       string         `json:"id"`
	Filename string         `json:"filename"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Store holds embeddings grouped into named collections. Searching a
// collection that does not exist returns an empty result list, not an error.
type Store struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

func NewStore(ctx context.Context, databaseURL string, embedder Embedder) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	s := &Store{pool: pool, embedder: embedder}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS embeddings (
		id TEXT PRIMARY KEY,
		collection VARCHAR(255) NOT NULL DEFAULT 'default',
		filename VARCHAR(255),
		content TEXT NOT NULL,
		metadata JSONB,
		embedding vector(%d)
	);

	CREATE INDEX IF NOT EXISTS embeddings_collection_idx ON embeddings (collection);
	`, EmbeddingDim)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create embeddings schema: %w", err)
	}
	return nil
}

// AddChunks embeds the chunks and upserts them into the collection.
func (s *Store) AddChunks(ctx context.Context, collection string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return errors.New("no chunks")
	}
	if collection == "" {
		collection = "default"
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	for i, c := range chunks {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO embeddings (id, collection, filename, content, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET collection = EXCLUDED.collection,
			    filename = EXCLUDED.filename,
			    content = EXCLUDED.content,
			    metadata = EXCLUDED.metadata,
			    embedding = EXCLUDED.embedding`,
			c.ID, collection, c.Filename, c.Content, c.Metadata, pgvector.NewVector(embeddings[i]))
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}
	log.Printf("stored %d chunks in collection %s", len(chunks), collection)
	return nil
}

// Search embeds the query and returns the chunks in the collection whose
// cosine similarity clears the threshold, most similar first.
func (s *Store) Search(ctx context.Context, query, collection string, topK int, threshold float64) ([]workflow.SearchResult, error) {
	if collection == "" {
		collection = "default"
	}
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrSearch, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, filename, content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM embeddings
		WHERE collection = $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(embedding), collection, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearch, err)
	}
	defer rows.Close()

	results := []workflow.SearchResult{}
	for rows.Next() {
		var r workflow.SearchResult
		var filename *string
		if err := rows.Scan(&r.ID, &filename, &r.Content, &r.Metadata, &r.SimilarityScore); err != nil {
			return nil, fmt.Errorf("%w: scan result: %v", ErrSearch, err)
		}
		if filename != nil {
			r.Filename = *filename
		}
		if r.SimilarityScore >= threshold {
			results = append(results, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearch, err)
	}
	log.Printf("found %d results for query in collection %s", len(results), collection)
	return results, nil
}

// DeleteChunks removes specific chunks from a collection.
func (s *Store) DeleteChunks(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM embeddings WHERE collection = $1 AND id = ANY($2)`, collection, ids)
	return err
}

// DeleteByFilename removes every chunk of a file from a collection.
func (s *Store) DeleteByFilename(ctx context.Context, collection, filename string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM embeddings WHERE collection = $1 AND filename = $2`, collection, filename)
	return err
}

// ListCollections returns the names of the collections that hold at least one
// chunk.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT collection FROM embeddings ORDER BY collection`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CollectionInfo describes one collection.
type CollectionInfo struct {
	Name          string `json:"name"`
	DocumentCount int    `json:"document_count"`
}

// GetCollectionInfo returns the chunk count for a collection. A collection
// nobody has written to reports zero documents.
func (s *Store) GetCollectionInfo(ctx context.Context, name string) (CollectionInfo, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM embeddings WHERE collection = $1`, name).Scan(&count)
	if err != nil {
		return CollectionInfo{}, err
	}
	return CollectionInfo{Name: name, DocumentCount: count}, nil
}

// Ping verifies connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
