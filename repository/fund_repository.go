package repository

import (
	"context"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FundRepository handles database operations for funds
type FundRepository struct {
	db *pgxpool.Pool
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *pgxpool.Pool) *FundRepository {
	return &FundRepository{db: db}
}

// Create creates a new fund record
func (r *FundRepository) Create(ctx context.Context, fund *models.Fund) error {
	query := `
		INSERT INTO funds (name, sponsor, vintage_year)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		fund.Name,
		fund.Sponsor,
		fund.VintageYear,
	).Scan(&fund.ID, &fund.CreatedAt)
}

// GetByID retrieves a fund by ID
func (r *FundRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Fund, error) {
	fund := &models.Fund{}
	query := `
		SELECT id, name, sponsor, vintage_year, created_at
		FROM funds
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&fund.ID,
		&fund.Name,
		&fund.Sponsor,
		&fund.VintageYear,
		&fund.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return fund, nil
}

// List retrieves all funds ordered by creation time
func (r *FundRepository) List(ctx context.Context) ([]*models.Fund, error) {
	query := `
		SELECT id, name, sponsor, vintage_year, created_at
		FROM funds
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funds []*models.Fund
	for rows.Next() {
		fund := &models.Fund{}
		err := rows.Scan(
			&fund.ID,
			&fund.Name,
			&fund.Sponsor,
			&fund.VintageYear,
			&fund.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		funds = append(funds, fund)
	}

	return funds, rows.Err()
}
