package repository

import (
	"context"
	"fmt"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository handles database operations for transactions
type TransactionRepository struct {
	db *pgxpool.Pool
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, fund_id, document_id, kind, tx_date, amount, tx_type,
	description, is_recallable, is_contribution_adjustment, created_at`

// CreateBatch inserts extracted transactions atomically.
func (r *TransactionRepository) CreateBatch(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, r.db, func(dbtx pgx.Tx) error {
		query := `
			INSERT INTO transactions (
				fund_id, document_id, kind, tx_date, amount, tx_type,
				description, is_recallable, is_contribution_adjustment
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		for _, t := range txs {
			_, err := dbtx.Exec(
				ctx, query,
				t.FundID,
				t.DocumentID,
				t.Kind,
				t.Date,
				t.Amount,
				t.Type,
				t.Description,
				t.IsRecallable,
				t.IsContributionAdjustment,
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction: %w", err)
			}
		}
		return nil
	})
}

// ListByFund retrieves all transactions for a fund in date order.
func (r *TransactionRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE fund_id = $1
		ORDER BY tx_date, created_at`, transactionColumns)

	rows, err := r.db.Query(ctx, query, fundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByFundAndKind retrieves a fund's transactions of one kind in
// date order.
func (r *TransactionRepository) ListByFundAndKind(
	ctx context.Context,
	fundID uuid.UUID,
	kind models.TransactionKind,
) ([]models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE fund_id = $1 AND kind = $2
		ORDER BY tx_date, created_at`, transactionColumns)

	rows, err := r.db.Query(ctx, query, fundID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// DeleteByDocument removes all transactions extracted from a document.
// Called before re-extraction so reprocessing never duplicates records.
func (r *TransactionRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE document_id = $1`, documentID)
	return err
}

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&t.ID,
			&t.FundID,
			&t.DocumentID,
			&t.Kind,
			&t.Date,
			&t.Amount,
			&t.Type,
			&t.Description,
			&t.IsRecallable,
			&t.IsContributionAdjustment,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}
