package parser

import (
	"log"
	"strings"
	"time"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category represents the classified transaction category of a table
type Category string

const (
	CategoryCapitalCall  Category = "capital_call"
	CategoryDistribution Category = "distribution"
	CategoryAdjustment   Category = "adjustment"
	CategoryUnknown      Category = "unknown"
)

var (
	capitalCallHeaderKeywords  = []string{"capital call", "contribution", "call date", "called", "call number"}
	distributionHeaderKeywords = []string{"distribution", "distributed", "dividend", "recallable"}
	adjustmentHeaderKeywords   = []string{"adjustment", "rebalance", "clawback", "refund"}

	// Content fallbacks cover reports with generic headers like
	// "Date, Type, Amount, Description" where only the rows are
	// category-bearing. Adjustment keywords are checked first so a
	// "Recallable Distribution" row is not claimed as a distribution.
	adjustmentContentKeywords  = []string{"adjustment", "rebalance", "clawback", "refund", "recallable distribution"}
	capitalCallContentKeywords = []string{"call 1", "call 2", "call 3", "call 4", "initial capital", "follow-on"}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Classify determines the transaction category of a table. The header
// row is matched against category keyword sets first; when the header
// is generic the first three data rows are inspected instead. Tables
// matching nothing are CategoryUnknown and produce no transactions.
func Classify(rows [][]string) Category {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return CategoryUnknown
	}

	header := strings.ToLower(strings.Join(rows[0], " "))

	if containsAny(header, capitalCallHeaderKeywords) {
		return CategoryCapitalCall
	}
	if containsAny(header, distributionHeaderKeywords) {
		return CategoryDistribution
	}
	if containsAny(header, adjustmentHeaderKeywords) {
		return CategoryAdjustment
	}

	if len(rows) > 1 {
		end := len(rows)
		if end > 4 {
			end = 4
		}
		var parts []string
		for _, row := range rows[1:end] {
			parts = append(parts, strings.Join(row, " "))
		}
		sample := strings.ToLower(strings.Join(parts, " "))

		if containsAny(sample, adjustmentContentKeywords) {
			return CategoryAdjustment
		}
		if containsAny(sample, capitalCallContentKeywords) {
			return CategoryCapitalCall
		}
	}

	return CategoryUnknown
}

// ExtractTransactions converts the data rows of a classified table
// into typed transactions. Rows where the date or amount is rejected
// are skipped with a warning; a skipped row never fails the table.
func ExtractTransactions(rows [][]string, category Category, fundID, documentID uuid.UUID) []models.Transaction {
	switch category {
	case CategoryCapitalCall:
		return extractCapitalCalls(rows, fundID, documentID)
	case CategoryDistribution:
		return extractDistributions(rows, fundID, documentID)
	case CategoryAdjustment:
		return extractAdjustments(rows, fundID, documentID)
	default:
		return nil
	}
}

func extractCapitalCalls(rows [][]string, fundID, documentID uuid.UUID) []models.Transaction {
	var txs []models.Transaction

	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}

		var txDate *time.Time
		var amount *decimal.Decimal
		var callType, description *string

		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			if txDate == nil {
				if d, err := ParseDate(cell); err == nil {
					txDate = &d
					continue
				}
			}

			if amount == nil {
				if a, err := ParseAmount(cell); err == nil && a.IsPositive() {
					amount = &a
					continue
				}
			}

			lower := strings.ToLower(cell)
			if lower == "date" || lower == "amount" || lower == "description" {
				continue
			}
			if callType == nil && len(cell) < 50 {
				c := cell
				callType = &c
			} else if description == nil {
				c := cell
				description = &c
			}
		}

		if txDate == nil || amount == nil {
			log.Printf("Warning: skipping capital call row without date/amount: %v", row)
			continue
		}

		txs = append(txs, models.Transaction{
			FundID:      fundID,
			DocumentID:  documentID,
			Kind:        models.KindCapitalCall,
			Date:        *txDate,
			Amount:      *amount,
			Type:        orDefault(callType, "Investment"),
			Description: description,
		})
	}

	return txs
}

func extractDistributions(rows [][]string, fundID, documentID uuid.UUID) []models.Transaction {
	var txs []models.Transaction

	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}

		var txDate *time.Time
		var amount *decimal.Decimal
		var distType, description *string
		isRecallable := false

		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			if txDate == nil {
				if d, err := ParseDate(cell); err == nil {
					txDate = &d
					continue
				}
			}

			if amount == nil {
				if a, err := ParseAmount(cell); err == nil && a.IsPositive() {
					amount = &a
					continue
				}
			}

			lower := strings.ToLower(cell)
			if lower == "yes" || lower == "true" || lower == "recallable" {
				isRecallable = true
				continue
			}
			if lower == "date" || lower == "amount" || lower == "description" || lower == "no" || lower == "false" {
				continue
			}
			if distType == nil && len(cell) < 50 {
				c := cell
				distType = &c
			} else if description == nil {
				c := cell
				description = &c
			}
		}

		if txDate == nil || amount == nil {
			log.Printf("Warning: skipping distribution row without date/amount: %v", row)
			continue
		}

		txs = append(txs, models.Transaction{
			FundID:       fundID,
			DocumentID:   documentID,
			Kind:         models.KindDistribution,
			Date:         *txDate,
			Amount:       *amount,
			Type:         orDefault(distType, "Return of Capital"),
			Description:  description,
			IsRecallable: isRecallable,
		})
	}

	return txs
}

func extractAdjustments(rows [][]string, fundID, documentID uuid.UUID) []models.Transaction {
	var txs []models.Transaction

	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}

		var txDate *time.Time
		var amount *decimal.Decimal
		var adjType, description *string
		isContribution := false

		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			if txDate == nil {
				if d, err := ParseDate(cell); err == nil {
					txDate = &d
					continue
				}
			}

			// Adjustments keep their sign; only a zero amount is
			// treated as not-an-amount.
			if amount == nil {
				if a, err := ParseAmount(cell); err == nil && !a.IsZero() {
					amount = &a
					continue
				}
			}

			lower := strings.ToLower(cell)
			if strings.Contains(lower, "contribution") || strings.Contains(lower, "capital call") {
				isContribution = true
			}

			if lower == "date" || lower == "amount" || lower == "description" || lower == "type" || lower == "category" {
				continue
			}
			if adjType == nil && len(cell) < 50 {
				c := cell
				adjType = &c
			} else if description == nil {
				c := cell
				description = &c
			}
		}

		if txDate == nil || amount == nil {
			log.Printf("Warning: skipping adjustment row without date/amount: %v", row)
			continue
		}

		txs = append(txs, models.Transaction{
			FundID:                   fundID,
			DocumentID:               documentID,
			Kind:                     models.KindAdjustment,
			Date:                     *txDate,
			Amount:                   *amount,
			Type:                     orDefault(adjType, "Rebalance"),
			Description:              description,
			IsContributionAdjustment: isContribution,
		})
	}

	return txs
}

func orDefault(s *string, def string) string {
	if s != nil {
		return *s
	}
	return def
}
