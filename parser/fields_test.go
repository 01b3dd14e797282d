package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		rejected bool
	}{
		{name: "row label call 1", input: "Call 1", rejected: true},
		{name: "row label call 2", input: "Call 2", rejected: true},
		{name: "bare sequence number", input: "1", rejected: true},
		{name: "bare hundred accepted", input: "100", want: "100"},
		{name: "currency with decimals", input: "$100.00", want: "100.00"},
		{name: "currency with separators", input: "$5,000,000", want: "5000000"},
		{name: "negative with currency", input: "-$500,000", want: "-500000"},
		{name: "parenthesized negative", input: "(500,000)", rejected: false, want: "-500000"},
		{name: "small with decimal suffix", input: "5.50", want: "5.50"},
		{name: "small with currency", input: "$5", want: "5"},
		{name: "euro symbol", input: "€1,250.00", want: "1250.00"},
		{name: "empty", input: "", rejected: true},
		{name: "whitespace only", input: "   ", rejected: true},
		{name: "punctuation only", input: "$,", rejected: true},
		{name: "label with digits", input: "Call Number 3", rejected: true},
		{name: "bare small number", input: "42", rejected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.rejected {
				assert.ErrorIs(t, err, ErrRejected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmountRejectsAnyAlphabetic(t *testing.T) {
	// Any alphabetic-containing string is always rejected, no matter
	// how monetary it otherwise looks.
	for _, input := range []string{"USD 1,000,000", "1,000,000 dollars", "1m", "Call 4", "$1,000,000.00 USD"} {
		_, err := ParseAmount(input)
		assert.ErrorIs(t, err, ErrRejected, "input %q", input)
	}
}

func TestParseAmountRoundTrip(t *testing.T) {
	// An accepted value reformatted in the same style parses back to
	// the same decimal.
	got, err := ParseAmount("$5,000,000.00")
	require.NoError(t, err)

	reformatted := "$" + got.StringFixed(2)
	again, err := ParseAmount(reformatted)
	require.NoError(t, err)
	assert.True(t, got.Equal(again))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"Jan 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"January 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15-Jan-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024/01/15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestParseDateRejected(t *testing.T) {
	for _, input := range []string{"", "not a date", "Q1 2024", "Investment", "1,000,000"} {
		_, err := ParseDate(input)
		assert.ErrorIs(t, err, ErrRejected, "input %q", input)
	}
}
