// Package parser extracts structured cash-flow records from the noisy
// tabular text of fund report documents.
package parser

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRejected signals that a cell could not be read as the requested
// field. Callers skip the row and continue; this error never aborts
// document processing.
var ErrRejected = errors.New("field rejected")

// dateFormats is tried in order; the first successful parse wins.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"Jan 2 2006",
}

// ParseDate parses a cell against the known report date formats.
// Returns ErrRejected when no format matches.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrRejected
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, ErrRejected
}

var (
	alphabeticPattern    = regexp.MustCompile(`[a-zA-Z]`)
	currencyPattern      = regexp.MustCompile(`[$€£¥]`)
	decimalSuffixPattern = regexp.MustCompile(`\.\d{2}$`)
)

// minBareMagnitude is the smallest absolute value accepted for a bare
// number carrying no monetary signal. Row labels like "Call 1" would
// otherwise be read as an amount of 1.
var minBareMagnitude = decimal.NewFromInt(100)

// ParseAmount parses a monetary cell like "$1,000,000.00" or
// "(500,000)" into a signed decimal.
//
// Two reject gates defend against misreading table labels as money:
// any alphabetic content rejects immediately, and a bare value below
// 100 with no currency symbol, no thousands separator, and no
// two-digit decimal suffix is rejected as a likely sequence number.
func ParseAmount(s string) (decimal.Decimal, error) {
	original := strings.TrimSpace(s)
	if original == "" {
		return decimal.Decimal{}, ErrRejected
	}

	if alphabeticPattern.MatchString(original) {
		return decimal.Decimal{}, ErrRejected
	}

	hasCurrency := currencyPattern.MatchString(original)
	hasSeparator := strings.Contains(original, ",")
	hasDecimal := decimalSuffixPattern.MatchString(original)

	cleaned := original

	// Parentheses notation for negatives: (500,000)
	negative := strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")")
	if negative {
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	}

	// Strip everything except digits and the decimal point.
	var b strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned = b.String()
	if cleaned == "" || cleaned == "." {
		return decimal.Decimal{}, ErrRejected
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, ErrRejected
	}

	if amount.LessThan(minBareMagnitude) && !hasCurrency && !hasSeparator && !hasDecimal {
		return decimal.Decimal{}, ErrRejected
	}

	if negative {
		amount = amount.Neg()
	}

	return amount, nil
}
