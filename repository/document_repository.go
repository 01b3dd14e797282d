package repository

import (
	"context"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles database operations for documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document record in pending status
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.Status == "" {
		doc.Status = models.DocStatusPending
	}

	query := `
		INSERT INTO documents (fund_id, filename, storage_path, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploaded_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		doc.FundID,
		doc.Filename,
		doc.StoragePath,
		doc.Status,
	).Scan(&doc.ID, &doc.UploadedAt, &doc.UpdatedAt)
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `
		SELECT id, fund_id, filename, storage_path, status, error_message, uploaded_at, updated_at
		FROM documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.FundID,
		&doc.Filename,
		&doc.StoragePath,
		&doc.Status,
		&doc.ErrorMessage,
		&doc.UploadedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// ListByFund retrieves all documents for a fund
func (r *DocumentRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT id, fund_id, filename, storage_path, status, error_message, uploaded_at, updated_at
		FROM documents
		WHERE fund_id = $1
		ORDER BY uploaded_at DESC`

	rows, err := r.db.Query(ctx, query, fundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.FundID,
			&doc.Filename,
			&doc.StoragePath,
			&doc.Status,
			&doc.ErrorMessage,
			&doc.UploadedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// TransitionStatus applies a compare-and-set status transition keyed
// on the current status. Returns false when the document is not in
// the expected status, so a duplicate or retried processing request
// cannot race past a terminal state.
func (r *DocumentRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to models.DocumentStatus,
	errorMessage *string,
) (bool, error) {
	query := `
		UPDATE documents SET
			status = $3,
			error_message = $4,
			updated_at = NOW()
		WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, query, id, from, to, errorMessage)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete deletes a document. Its transactions and chunks are removed
// by the schema's cascading foreign keys; ownership is exclusive.
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}
