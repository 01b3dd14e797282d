package parser

import (
	"testing"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want Category
	}{
		{
			name: "capital call header",
			rows: [][]string{
				{"Date", "Call Number", "Amount", "Description"},
				{"2024-01-15", "Call 1", "$1,000,000", "Initial closing"},
				{"2024-03-20", "Call 2", "$2,500,000", "Follow-on"},
			},
			want: CategoryCapitalCall,
		},
		{
			name: "distribution header via recallable column",
			rows: [][]string{
				{"Date", "Type", "Amount", "Recallable", "Description"},
				{"2024-06-30", "Return of Capital", "$500,000", "No", "Exit proceeds"},
			},
			want: CategoryDistribution,
		},
		{
			name: "adjustment header",
			rows: [][]string{
				{"Date", "Adjustment", "Amount", "Category"},
				{"2024-01-15", "Rebalance", "$100,000", "Clawback"},
			},
			want: CategoryAdjustment,
		},
		{
			name: "generic header with recallable distribution content",
			rows: [][]string{
				{"Date", "Type", "Amount", "Description"},
				{"2024-02-01", "Recallable Distribution", "($250,000)", "Returned to LPs"},
			},
			want: CategoryAdjustment,
		},
		{
			name: "generic header with capital call content",
			rows: [][]string{
				{"Date", "Type", "Amount", "Description"},
				{"2024-01-15", "Call 1", "$1,000,000", "Initial capital"},
			},
			want: CategoryCapitalCall,
		},
		{
			name: "unrecognized header and content",
			rows: [][]string{
				{"Random", "Headers", "Here"},
				{"Some", "Data", "Here"},
			},
			want: CategoryUnknown,
		},
		{
			name: "empty table",
			rows: nil,
			want: CategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.rows))
		})
	}
}

func TestExtractCapitalCalls(t *testing.T) {
	fundID := uuid.New()
	docID := uuid.New()

	rows := [][]string{
		{"Date", "Call Number", "Amount", "Description"},
		{"2024-01-15", "Call 1", "$1,000,000", "Initial closing"},
		{"2024-03-20", "Call 2", "$2,500,000", "Follow-on investment"},
		{"not a date", "Call 3", "$500,000", "Broken row"},
		{"2024-05-01", "Call 4", "n/a", "No amount"},
	}

	txs := ExtractTransactions(rows, CategoryCapitalCall, fundID, docID)
	require.Len(t, txs, 2)

	assert.Equal(t, models.KindCapitalCall, txs[0].Kind)
	assert.Equal(t, fundID, txs[0].FundID)
	assert.Equal(t, docID, txs[0].DocumentID)
	assert.Equal(t, "1000000", txs[0].Amount.String())
	assert.Equal(t, "Call 1", txs[0].Type)
	require.NotNil(t, txs[0].Description)
	assert.Equal(t, "Initial closing", *txs[0].Description)

	assert.Equal(t, "2500000", txs[1].Amount.String())
}

func TestExtractDistributionsRecallableFlag(t *testing.T) {
	fundID := uuid.New()
	docID := uuid.New()

	rows := [][]string{
		{"Date", "Distribution", "Amount", "Recallable"},
		{"2024-06-30", "Return of Capital", "$500,000", "Yes"},
		{"2024-09-30", "Dividend", "$750,000", "No"},
	}

	txs := ExtractTransactions(rows, CategoryDistribution, fundID, docID)
	require.Len(t, txs, 2)

	assert.Equal(t, models.KindDistribution, txs[0].Kind)
	assert.True(t, txs[0].IsRecallable)
	assert.Equal(t, "Return of Capital", txs[0].Type)

	assert.False(t, txs[1].IsRecallable)
	assert.Equal(t, "750000", txs[1].Amount.String())
}

func TestExtractAdjustmentsKeepSignAndFlag(t *testing.T) {
	fundID := uuid.New()
	docID := uuid.New()

	rows := [][]string{
		{"Date", "Adjustment", "Amount", "Category"},
		{"2024-02-01", "Contribution Refund", "($450,000)", "Rebalance"},
		{"2024-04-01", "Clawback", "$100,000", "Distribution Clawback"},
	}

	txs := ExtractTransactions(rows, CategoryAdjustment, fundID, docID)
	require.Len(t, txs, 2)

	assert.Equal(t, models.KindAdjustment, txs[0].Kind)
	assert.Equal(t, "-450000", txs[0].Amount.String())
	assert.True(t, txs[0].IsContributionAdjustment)

	assert.Equal(t, "100000", txs[1].Amount.String())
	assert.False(t, txs[1].IsContributionAdjustment)
}

func TestExtractUnknownProducesNothing(t *testing.T) {
	rows := [][]string{
		{"Random", "Headers"},
		{"Some", "Data"},
	}
	assert.Empty(t, ExtractTransactions(rows, CategoryUnknown, uuid.New(), uuid.New()))
}

func TestExtractTables(t *testing.T) {
	page := "Quarterly Report\n\n" +
		"Date | Call Number | Amount | Description\n" +
		"2024-01-15 | Call 1 | $1,000,000 | Initial closing\n" +
		"2024-03-20 | Call 2 | $2,500,000 | Follow-on\n" +
		"\n" +
		"Narrative commentary about the portfolio follows here.\n"

	tables := ExtractTables(page)
	require.Len(t, tables, 1)
	require.Len(t, tables[0], 3)
	assert.Equal(t, []string{"Date", "Call Number", "Amount", "Description"}, tables[0][0])
	assert.Equal(t, "Call 1", tables[0][1][1])
}

func TestSplitPages(t *testing.T) {
	pages := SplitPages("page one\fpage two\fpage three")
	assert.Len(t, pages, 3)
	assert.Equal(t, "page two", pages[1])
}
