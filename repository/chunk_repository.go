package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDimensionMismatch means the embedding column width does not match
// the configured embedding model. Changing the provider's output
// dimension requires a schema migration, not a runtime fallback.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ChunkRepository handles database operations for document chunks and
// pgvector similarity search
type ChunkRepository struct {
	db        *pgxpool.Pool
	dimension int
}

// NewChunkRepository creates a new chunk repository expecting vectors
// of the given dimension.
func NewChunkRepository(db *pgxpool.Pool, dimension int) *ChunkRepository {
	return &ChunkRepository{db: db, dimension: dimension}
}

// Init verifies that the document_chunks embedding column width equals
// the configured embedding dimension. Called once at startup; a
// mismatch is fatal, never a per-record error.
func (r *ChunkRepository) Init(ctx context.Context) error {
	// pgvector stores the dimension as the column's type modifier.
	var typmod int
	err := r.db.QueryRow(ctx, `
		SELECT atttypmod
		FROM pg_attribute
		WHERE attrelid = 'document_chunks'::regclass AND attname = 'embedding'`,
	).Scan(&typmod)
	if err != nil {
		return fmt.Errorf("failed to inspect embedding column: %w", err)
	}

	if typmod != r.dimension {
		return fmt.Errorf("%w: column is vector(%d), embedder produces %d dimensions",
			ErrDimensionMismatch, typmod, r.dimension)
	}
	return nil
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ReplaceForDocument atomically replaces a document's chunks. Safe to
// call repeatedly for the same document: re-ingestion never
// accumulates duplicates.
func (r *ChunkRepository) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []models.Chunk) error {
	for i, chunk := range chunks {
		if len(chunk.Embedding) != r.dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), r.dimension)
		}
	}

	return pgx.BeginFunc(ctx, r.db, func(dbtx pgx.Tx) error {
		_, err := dbtx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
		if err != nil {
			return fmt.Errorf("failed to clear existing chunks: %w", err)
		}

		query := `
			INSERT INTO document_chunks (
				document_id, fund_id, page_number, chunk_index, content, embedding, metadata
			) VALUES ($1, $2, $3, $4, $5, $6::vector, $7)`

		for _, chunk := range chunks {
			_, err := dbtx.Exec(
				ctx, query,
				chunk.DocumentID,
				chunk.FundID,
				chunk.PageNumber,
				chunk.ChunkIndex,
				chunk.Content,
				formatVector(chunk.Embedding),
				chunk.Metadata,
			)
			if err != nil {
				return fmt.Errorf("failed to insert chunk: %w", err)
			}
		}
		return nil
	})
}

// SimilaritySearch ranks a fund's chunks by ascending cosine distance
// to the query vector. Returns at most topK chunks whose distance does
// not exceed 1 - threshold; an empty result is not an error.
func (r *ChunkRepository) SimilaritySearch(
	ctx context.Context,
	embedding []float64,
	fundID uuid.UUID,
	topK int,
	threshold float64,
) ([]models.Chunk, error) {
	if len(embedding) != r.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), r.dimension)
	}

	maxDistance := 1 - threshold
	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id,
			document_id,
			fund_id,
			page_number,
			chunk_index,
			content,
			metadata,
			created_at,
			embedding <=> $1::vector AS distance
		FROM document_chunks
		WHERE
			fund_id = $2
			AND embedding <=> $1::vector <= $3
		ORDER BY
			embedding <=> $1::vector
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, vectorStr, fundID, maxDistance, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.FundID,
			&chunk.PageNumber,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	return chunks, nil
}

// CountByFund returns the number of indexed chunks for a fund.
func (r *ChunkRepository) CountByFund(ctx context.Context, fundID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks WHERE fund_id = $1`, fundID).Scan(&count)
	return count, err
}
