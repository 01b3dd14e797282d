package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TextChunk is a position-tagged segment of narrative page text
// prepared for embedding.
type TextChunk struct {
	Text       string
	PageNumber int
	Index      int
}

// Chunker splits page text into overlapping chunks on sentence
// boundaries. Identical input always produces identical chunks.
type Chunker struct {
	Size    int // target chunk size in characters
	Overlap int // characters carried over between consecutive chunks
}

// NewChunker creates a chunker with sane defaults for zero values.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// minChunkableLength filters out page fragments too short to carry
// retrievable content (stray headers, page furniture).
const minChunkableLength = 50

// Chunk splits a page of text into overlapping chunks. Pages shorter
// than minChunkableLength produce no chunks.
func (c *Chunker) Chunk(text string, pageNumber int) []TextChunk {
	if len(strings.TrimSpace(text)) < minChunkableLength {
		return nil
	}

	cleaned := cleanText(text)
	sentences := splitSentences(cleaned)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []TextChunk
	var current []string
	currentLen := 0
	index := 0

	for _, sentence := range sentences {
		if currentLen+len(sentence) > c.Size && len(current) > 0 {
			chunkText := strings.Join(current, " ")
			chunks = append(chunks, TextChunk{Text: chunkText, PageNumber: pageNumber, Index: index})
			index++

			// Carry the tail of the emitted chunk into the next one
			// so no semantic unit is lost at the boundary.
			overlapText := chunkText
			if len(chunkText) > c.Overlap {
				start := len(chunkText) - c.Overlap
				// Back off to a rune boundary so the carried tail is
				// never an invalid UTF-8 fragment.
				for start > 0 && !utf8.RuneStart(chunkText[start]) {
					start--
				}
				overlapText = chunkText[start:]
			}
			current = splitSentences(overlapText)
			currentLen = len(overlapText)
		}

		current = append(current, sentence)
		currentLen += len(sentence)
	}

	if len(current) > 0 {
		chunks = append(chunks, TextChunk{Text: strings.Join(current, " "), PageNumber: pageNumber, Index: index})
	}

	return chunks
}

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	pageLabelPattern  = regexp.MustCompile(`(?i)\bPage\s+\d+\s+of\s+\d+\b`)
)

func cleanText(text string) string {
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = pageLabelPattern.ReplaceAllString(text, "")

	// Normalize typographic quotes from extraction tools.
	replacer := strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
	text = replacer.Replace(text)

	return strings.TrimSpace(text)
}

// splitSentences splits on sentence-terminating punctuation followed
// by whitespace. Text without terminators is a single sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && runes[i+1] == ' ' {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}

	if start < len(runes) {
		s := strings.TrimSpace(string(runes[start:]))
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}
