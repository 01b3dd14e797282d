package parser

import (
	"regexp"
	"strings"
)

// Pages of extracted report text are separated by form feeds, the
// convention used by text extraction tools.
const pageSeparator = "\f"

// SplitPages splits raw extracted document text into pages.
func SplitPages(text string) []string {
	return strings.Split(text, pageSeparator)
}

var multiSpacePattern = regexp.MustCompile(`\s{2,}`)

// ExtractTables finds tabular blocks in a page of extracted text.
// A table is a run of two or more consecutive lines sharing a cell
// delimiter (pipe, tab, or runs of two or more spaces) that split
// into at least two cells. Returned tables include their header row.
func ExtractTables(pageText string) [][][]string {
	lines := strings.Split(pageText, "\n")

	var tables [][][]string
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, line := range lines {
		cells := splitCells(line)
		if len(cells) >= 2 {
			current = append(current, cells)
		} else {
			flush()
		}
	}
	flush()

	return tables
}

func splitCells(line string) []string {
	line = strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	var raw []string
	switch {
	case strings.Contains(line, "|"):
		raw = strings.Split(line, "|")
	case strings.Contains(line, "\t"):
		raw = strings.Split(line, "\t")
	default:
		raw = multiSpacePattern.Split(strings.TrimSpace(line), -1)
	}

	var cells []string
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
