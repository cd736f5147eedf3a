package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/tubesage/cli/internal/rag"
)

// SaveSource creates or updates a source record.
func (s *Store) SaveSource(ctx context.Context, src *rag.Source) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sources (id, kind, title, transcript_source, embedding_model, chunk_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   kind = EXCLUDED.kind,
		   title = EXCLUDED.title,
		   transcript_source = EXCLUDED.transcript_source,
		   embedding_model = EXCLUDED.embedding_model,
		   chunk_count = EXCLUDED.chunk_count`,
		src.ID, src.Kind, src.Title, src.TranscriptSource,
		src.EmbeddingModel, src.ChunkCount, src.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}
	return nil
}

// GetSource retrieves a source by ID, or nil when absent.
func (s *Store) GetSource(ctx context.Context, id string) (*rag.Source, error) {
	var src rag.Source
	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, title, transcript_source, embedding_model, chunk_count, created_at
		 FROM sources WHERE id = $1`,
		id,
	).Scan(
		&src.ID, &src.Kind, &src.Title, &src.TranscriptSource,
		&src.EmbeddingModel, &src.ChunkCount, &src.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &src, nil
}

// ListSources retrieves all sources, newest first.
func (s *Store) ListSources(ctx context.Context) ([]rag.Source, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, title, transcript_source, embedding_model, chunk_count, created_at
		 FROM sources ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []rag.Source
	for rows.Next() {
		var src rag.Source
		if err := rows.Scan(
			&src.ID, &src.Kind, &src.Title, &src.TranscriptSource,
			&src.EmbeddingModel, &src.ChunkCount, &src.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// SaveChunks writes a source's chunks and their vectors in a single
// transaction: either the full chunk set lands or none of it does.
func (s *Store) SaveChunks(ctx context.Context, sourceID string, chunks []rag.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(
			`INSERT INTO chunks (id, source_id, sequence_index, content, start_offset, end_offset, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.SourceID, c.SequenceIndex, c.Text, c.StartOffset, c.EndOffset,
			pgvector.NewVector(vectors[i]),
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert chunk for %s: %w", sourceID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to flush chunk batch: %w", err)
	}

	return tx.Commit(ctx)
}

// GetChunks retrieves a source's chunks with their vectors, ordered by
// sequence index.
func (s *Store) GetChunks(ctx context.Context, sourceID string) ([]rag.Chunk, [][]float32, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_id, sequence_index, content, start_offset, end_offset, embedding
		 FROM chunks WHERE source_id = $1 ORDER BY sequence_index`,
		sourceID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()

	var chunks []rag.Chunk
	var vectors [][]float32
	for rows.Next() {
		var c rag.Chunk
		var vec pgvector.Vector
		if err := rows.Scan(
			&c.ID, &c.SourceID, &c.SequenceIndex, &c.Text,
			&c.StartOffset, &c.EndOffset, &vec,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
		vectors = append(vectors, vec.Slice())
	}
	return chunks, vectors, rows.Err()
}

// DeleteSource deletes a source; its chunks cascade.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}
