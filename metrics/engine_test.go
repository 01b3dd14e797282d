package metrics

import (
	"context"
	"testing"
	"time"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySource is an in-memory TransactionSource for tests.
type memorySource struct {
	txs map[uuid.UUID][]models.Transaction
}

func (m *memorySource) ListByFund(_ context.Context, fundID uuid.UUID) ([]models.Transaction, error) {
	return m.txs[fundID], nil
}

func newSource(fundID uuid.UUID, txs ...models.Transaction) *memorySource {
	return &memorySource{txs: map[uuid.UUID][]models.Transaction{fundID: txs}}
}

func call(fundID uuid.UUID, day string, amount string) models.Transaction {
	return tx(fundID, models.KindCapitalCall, day, amount)
}

func dist(fundID uuid.UUID, day string, amount string) models.Transaction {
	return tx(fundID, models.KindDistribution, day, amount)
}

func adj(fundID uuid.UUID, day string, amount string, contribution bool) models.Transaction {
	t := tx(fundID, models.KindAdjustment, day, amount)
	t.IsContributionAdjustment = contribution
	return t
}

func tx(fundID uuid.UUID, kind models.TransactionKind, day string, amount string) models.Transaction {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return models.Transaction{
		ID:     uuid.New(),
		FundID: fundID,
		Kind:   kind,
		Date:   d,
		Amount: decimal.RequireFromString(amount),
	}
}

func TestPICWithContributionAdjustments(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID,
		call(fundID, "2022-01-15", "5000000"),
		call(fundID, "2022-06-01", "4000000"),
		call(fundID, "2023-02-10", "2500000"),
		adj(fundID, "2023-05-01", "-450000", true),
	))

	pic, err := engine.PIC(context.Background(), fundID)
	require.NoError(t, err)

	// 11,500,000 - (-450,000) = 11,950,000
	assert.Equal(t, "11950000", pic.String())
}

func TestPICIgnoresDistributionSideAdjustments(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID,
		call(fundID, "2022-01-15", "1000000"),
		adj(fundID, "2022-03-01", "50000", false),
	))

	pic, err := engine.PIC(context.Background(), fundID)
	require.NoError(t, err)
	assert.Equal(t, "1000000", pic.String())
}

func TestPICEmptyFund(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID))

	pic, err := engine.PIC(context.Background(), fundID)
	require.NoError(t, err)
	assert.True(t, pic.IsZero())
}

func TestDPI(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID,
		call(fundID, "2022-01-15", "5000000"),
		call(fundID, "2022-06-01", "4000000"),
		call(fundID, "2023-02-10", "2500000"),
		adj(fundID, "2023-05-01", "-450000", true),
		dist(fundID, "2023-09-30", "1800000"),
		dist(fundID, "2024-03-31", "2500000"),
	))

	dpi, err := engine.DPI(context.Background(), fundID)
	require.NoError(t, err)
	require.NotNil(t, dpi)

	// 4,300,000 / 11,950,000 ≈ 0.3598
	assert.InDelta(t, 0.3598, dpi.InexactFloat64(), 1e-4)
}

func TestDPINonComputableOnZeroPIC(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID,
		dist(fundID, "2023-09-30", "1800000"),
	))

	dpi, err := engine.DPI(context.Background(), fundID)
	require.NoError(t, err)
	assert.Nil(t, dpi)
}

func TestIRRNonComputableWithoutDistributions(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID,
		call(fundID, "2022-01-15", "5000000"),
		call(fundID, "2022-06-01", "4000000"),
	))

	irr, err := engine.IRR(context.Background(), fundID)
	require.NoError(t, err)
	assert.Nil(t, irr)
}

func TestIRRSimpleOneYearReturn(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID,
		call(fundID, "2022-01-01", "1000000"),
		dist(fundID, "2023-01-01", "1100000"),
	))

	irr, err := engine.IRR(context.Background(), fundID)
	require.NoError(t, err)
	require.NotNil(t, irr)

	// 1,000,000 grows to 1,100,000 in one year: roughly 10%.
	assert.InDelta(t, 0.10, *irr, 0.005)
}

func TestIRRNegativeReturn(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID,
		call(fundID, "2022-01-01", "1000000"),
		dist(fundID, "2023-01-01", "800000"),
	))

	irr, err := engine.IRR(context.Background(), fundID)
	require.NoError(t, err)
	require.NotNil(t, irr)
	assert.InDelta(t, -0.20, *irr, 0.005)
}

func TestIRRAdjustmentConfiguration(t *testing.T) {
	fundID := uuid.New()
	source := newSource(fundID,
		call(fundID, "2022-01-01", "1000000"),
		dist(fundID, "2023-01-01", "1100000"),
		adj(fundID, "2022-07-01", "-50000", true),
	)

	withAdj := NewEngine(source)
	withoutAdj := NewEngine(source, WithAdjustmentsInIRR(false))

	a, err := withAdj.IRR(context.Background(), fundID)
	require.NoError(t, err)
	require.NotNil(t, a)

	b, err := withoutAdj.IRR(context.Background(), fundID)
	require.NoError(t, err)
	require.NotNil(t, b)

	// The folded adjustment shifts the rate.
	assert.NotEqual(t, *a, *b)
	assert.InDelta(t, 0.10, *b, 0.005)
}

func TestMetricsAllTogether(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID,
		call(fundID, "2022-01-01", "1000000"),
		dist(fundID, "2023-01-01", "400000"),
	))

	m, err := engine.Metrics(context.Background(), fundID)
	require.NoError(t, err)
	require.NotNil(t, m.PIC)
	require.NotNil(t, m.TotalDistributions)
	require.NotNil(t, m.DPI)
	require.NotNil(t, m.IRR)

	assert.Equal(t, "1000000", m.PIC.String())
	assert.Equal(t, "400000", m.TotalDistributions.String())
	assert.InDelta(t, 0.4, m.DPI.InexactFloat64(), 1e-9)
}

func TestMetricsEmptyFundAllUnavailableButPIC(t *testing.T) {
	fundID := uuid.New()
	engine := NewEngine(newSource(fundID))

	m, err := engine.Metrics(context.Background(), fundID)
	require.NoError(t, err)
	assert.True(t, m.PIC.IsZero())
	assert.Nil(t, m.DPI)
	assert.Nil(t, m.IRR)
}
