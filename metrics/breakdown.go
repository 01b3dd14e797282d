package metrics

import (
	"context"
	"fmt"
	"sort"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metric names accepted by Breakdown.
const (
	MetricPIC                = "pic"
	MetricTotalDistributions = "total_distributions"
	MetricDPI                = "dpi"
	MetricIRR                = "irr"
)

// BreakdownStep records one transaction's contribution to a metric.
type BreakdownStep struct {
	Transaction  models.Transaction `json:"transaction"`
	Component    string             `json:"component"`
	Contribution decimal.Decimal    `json:"contribution"`
	RunningTotal decimal.Decimal    `json:"running_total"`
}

// Breakdown exposes every transaction consumed by a metric together
// with the arithmetic steps, for audit display. It is computed on
// demand and never persisted. Final is nil when the metric is
// non-computable, with Reason explaining why.
type Breakdown struct {
	FundID uuid.UUID        `json:"fund_id"`
	Metric string           `json:"metric"`
	Steps  []BreakdownStep  `json:"steps"`
	Final  *decimal.Decimal `json:"final"`
	Reason string           `json:"reason,omitempty"`
}

// Breakdown returns the audit breakdown for the named metric. The
// steps consume exactly the same transactions, in the same order, as
// the scalar calculation.
func (e *Engine) Breakdown(ctx context.Context, fundID uuid.UUID, metric string) (*Breakdown, error) {
	listed, err := e.source.ListByFund(ctx, fundID)
	if err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, len(listed))
	copy(txs, listed)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})

	switch metric {
	case MetricPIC:
		return e.picBreakdown(fundID, txs), nil
	case MetricTotalDistributions:
		return e.distributionsBreakdown(fundID, txs), nil
	case MetricDPI:
		return e.dpiBreakdown(fundID, txs), nil
	case MetricIRR:
		return e.irrBreakdown(fundID, txs), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
}

func (e *Engine) picBreakdown(fundID uuid.UUID, txs []models.Transaction) *Breakdown {
	b := &Breakdown{FundID: fundID, Metric: MetricPIC}
	running := decimal.Zero

	for _, tx := range txs {
		var contribution decimal.Decimal
		switch {
		case tx.Kind == models.KindCapitalCall:
			contribution = tx.Amount
		case tx.Kind == models.KindAdjustment && tx.IsContributionAdjustment:
			contribution = tx.Amount.Neg()
		default:
			continue
		}
		running = running.Add(contribution)
		b.Steps = append(b.Steps, BreakdownStep{
			Transaction:  tx,
			Component:    MetricPIC,
			Contribution: contribution,
			RunningTotal: running,
		})
	}

	final := running
	b.Final = &final
	return b
}

func (e *Engine) distributionsBreakdown(fundID uuid.UUID, txs []models.Transaction) *Breakdown {
	b := &Breakdown{FundID: fundID, Metric: MetricTotalDistributions}
	running := decimal.Zero

	for _, tx := range txs {
		if tx.Kind != models.KindDistribution {
			continue
		}
		running = running.Add(tx.Amount)
		b.Steps = append(b.Steps, BreakdownStep{
			Transaction:  tx,
			Component:    MetricTotalDistributions,
			Contribution: tx.Amount,
			RunningTotal: running,
		})
	}

	final := running
	b.Final = &final
	return b
}

// dpiBreakdown lists the denominator (PIC) steps followed by the
// numerator (distribution) steps; each step's running total tracks
// its own component.
func (e *Engine) dpiBreakdown(fundID uuid.UUID, txs []models.Transaction) *Breakdown {
	b := &Breakdown{FundID: fundID, Metric: MetricDPI}

	pic := e.picBreakdown(fundID, txs)
	dists := e.distributionsBreakdown(fundID, txs)
	b.Steps = append(b.Steps, pic.Steps...)
	b.Steps = append(b.Steps, dists.Steps...)

	if pic.Final.IsZero() {
		b.Reason = "paid-in capital is zero"
		return b
	}

	final := dists.Final.Div(*pic.Final)
	b.Final = &final
	return b
}

func (e *Engine) irrBreakdown(fundID uuid.UUID, txs []models.Transaction) *Breakdown {
	b := &Breakdown{FundID: fundID, Metric: MetricIRR}

	flows := e.cashFlows(txs)
	running := decimal.Zero
	for _, f := range flows {
		contribution := decimal.NewFromFloat(f.amount)
		running = running.Add(contribution)
		b.Steps = append(b.Steps, BreakdownStep{
			Transaction:  f.tx,
			Component:    "cash_flow",
			Contribution: contribution,
			RunningTotal: running,
		})
	}

	rate, ok := solveIRR(flows)
	if !ok {
		b.Reason = "cash-flow timeline does not admit an internal rate of return"
		return b
	}

	final := decimal.NewFromFloat(rate)
	b.Final = &final
	return b
}
