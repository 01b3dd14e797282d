// Package metrics computes fund performance metrics (PIC, DPI, IRR)
// from extracted cash-flow transactions, with auditable breakdowns.
package metrics

import (
	"context"
	"errors"
	"sort"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionSource supplies the committed transactions of a fund.
// The engine holds no state of its own and is safe for unlimited
// concurrent callers.
type TransactionSource interface {
	ListByFund(ctx context.Context, fundID uuid.UUID) ([]models.Transaction, error)
}

var ErrUnknownMetric = errors.New("unknown metric")

// Engine computes fund performance metrics
type Engine struct {
	source TransactionSource

	// includeAdjustmentsInIRR folds adjustments into the IRR cash-flow
	// timeline with their stored sign. Configurable because some
	// sponsors report adjustments outside the cash-flow stream.
	includeAdjustmentsInIRR bool
}

// EngineOption is a functional option for Engine
type EngineOption func(*Engine)

// WithAdjustmentsInIRR controls whether adjustments enter the IRR
// cash-flow timeline. Default true.
func WithAdjustmentsInIRR(include bool) EngineOption {
	return func(e *Engine) {
		e.includeAdjustmentsInIRR = include
	}
}

// NewEngine creates a new metrics engine
func NewEngine(source TransactionSource, opts ...EngineOption) *Engine {
	e := &Engine{
		source:                  source,
		includeAdjustmentsInIRR: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FundMetrics holds the scalar metrics of a fund. A nil entry means
// the metric is not computable from the available transactions; it is
// never reported as zero.
type FundMetrics struct {
	PIC                *decimal.Decimal `json:"pic"`
	TotalDistributions *decimal.Decimal `json:"total_distributions"`
	DPI                *decimal.Decimal `json:"dpi"`
	IRR                *float64         `json:"irr"`
}

// PIC computes Paid-In Capital: the sum of capital call amounts net of
// contribution-side adjustments. Adjustment amounts are signed, so a
// negative adjustment increases PIC.
func (e *Engine) PIC(ctx context.Context, fundID uuid.UUID) (decimal.Decimal, error) {
	txs, err := e.source.ListByFund(ctx, fundID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return picOf(txs), nil
}

func picOf(txs []models.Transaction) decimal.Decimal {
	pic := decimal.Zero
	for _, tx := range txs {
		switch {
		case tx.Kind == models.KindCapitalCall:
			pic = pic.Add(tx.Amount)
		case tx.Kind == models.KindAdjustment && tx.IsContributionAdjustment:
			pic = pic.Sub(tx.Amount)
		}
	}
	return pic
}

// TotalDistributions computes the sum of distribution amounts.
func (e *Engine) TotalDistributions(ctx context.Context, fundID uuid.UUID) (decimal.Decimal, error) {
	txs, err := e.source.ListByFund(ctx, fundID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return distributionsOf(txs), nil
}

func distributionsOf(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Kind == models.KindDistribution {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// DPI computes Distributions to Paid-In. Returns nil when PIC is zero;
// a zero denominator makes the ratio non-computable, not a fault.
func (e *Engine) DPI(ctx context.Context, fundID uuid.UUID) (*decimal.Decimal, error) {
	txs, err := e.source.ListByFund(ctx, fundID)
	if err != nil {
		return nil, err
	}
	return dpiOf(txs), nil
}

func dpiOf(txs []models.Transaction) *decimal.Decimal {
	pic := picOf(txs)
	if pic.IsZero() {
		return nil
	}
	dpi := distributionsOf(txs).Div(pic)
	return &dpi
}

// IRR computes the Internal Rate of Return over the dated cash-flow
// timeline of the fund. Returns nil when the timeline is degenerate
// (no sign change) or the root-find does not converge.
func (e *Engine) IRR(ctx context.Context, fundID uuid.UUID) (*float64, error) {
	txs, err := e.source.ListByFund(ctx, fundID)
	if err != nil {
		return nil, err
	}
	flows := e.cashFlows(txs)
	rate, ok := solveIRR(flows)
	if !ok {
		return nil, nil
	}
	return &rate, nil
}

// Metrics computes all scalar metrics for a fund in one pass.
func (e *Engine) Metrics(ctx context.Context, fundID uuid.UUID) (*FundMetrics, error) {
	txs, err := e.source.ListByFund(ctx, fundID)
	if err != nil {
		return nil, err
	}

	pic := picOf(txs)
	dists := distributionsOf(txs)

	m := &FundMetrics{
		PIC:                &pic,
		TotalDistributions: &dists,
		DPI:                dpiOf(txs),
	}
	if rate, ok := solveIRR(e.cashFlows(txs)); ok {
		m.IRR = &rate
	}
	return m, nil
}

// cashFlow is a dated signed flow: negative for capital calls,
// positive for distributions, stored sign for adjustments.
type cashFlow struct {
	tx     models.Transaction
	amount float64
}

func (e *Engine) cashFlows(txs []models.Transaction) []cashFlow {
	var flows []cashFlow
	for _, tx := range txs {
		switch tx.Kind {
		case models.KindCapitalCall:
			flows = append(flows, cashFlow{tx: tx, amount: -tx.Amount.InexactFloat64()})
		case models.KindDistribution:
			flows = append(flows, cashFlow{tx: tx, amount: tx.Amount.InexactFloat64()})
		case models.KindAdjustment:
			if e.includeAdjustmentsInIRR {
				flows = append(flows, cashFlow{tx: tx, amount: tx.Amount.InexactFloat64()})
			}
		}
	}
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].tx.Date.Before(flows[j].tx.Date)
	})
	return flows
}
