package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the category of a cash-flow transaction
type TransactionKind string

const (
	KindCapitalCall  TransactionKind = "capital_call"
	KindDistribution TransactionKind = "distribution"
	KindAdjustment   TransactionKind = "adjustment"
)

// Transaction represents a single cash-flow record extracted from a
// fund report. Amount is a signed fixed-point value with 2 decimal
// places; a row whose amount fails parsing is never persisted.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	FundID      uuid.UUID       `json:"fund_id"`
	DocumentID  uuid.UUID       `json:"document_id"`
	Kind        TransactionKind `json:"kind"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description *string         `json:"description,omitempty"`

	// IsRecallable applies to distributions only.
	IsRecallable bool `json:"is_recallable"`

	// IsContributionAdjustment marks an adjustment that offsets a
	// contribution rather than a distribution.
	IsContributionAdjustment bool `json:"is_contribution_adjustment"`

	CreatedAt time.Time `json:"created_at"`
}
