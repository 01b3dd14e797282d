package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"fundsight-backend/embedding"
	"fundsight-backend/metrics"
	"fundsight-backend/models"

	"github.com/google/uuid"
)

// Intent is the closed set of query intents. Classification picks the
// first matching category in a fixed precedence order; scattered ad
// hoc string matching is deliberately avoided.
type Intent string

const (
	IntentCalculation Intent = "calculation"
	IntentDefinition  Intent = "definition"
	IntentRetrieval   Intent = "retrieval"
	IntentGeneral     Intent = "general"
)

// intentRule binds an intent to its trigger keywords. Rules are
// evaluated in order: calculation > definition > retrieval > general.
type intentRule struct {
	intent   Intent
	keywords []string
}

var intentRules = []intentRule{
	{IntentCalculation, []string{
		"calculate", "what is the", "current", "dpi", "irr",
		"tvpi", "rvpi", "pic", "paid-in capital", "return",
		"performance",
	}},
	{IntentDefinition, []string{
		"what does", "mean", "define", "explain", "definition",
		"what is a", "what are",
	}},
	{IntentRetrieval, []string{
		"show me", "list", "all", "find", "search", "when",
		"how many", "which",
	}},
}

// ClassifyIntent classifies a natural-language query.
func ClassifyIntent(query string) Intent {
	lower := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return IntentGeneral
}

// ChunkSearcher answers nearest-neighbor queries over indexed chunks.
type ChunkSearcher interface {
	SimilaritySearch(ctx context.Context, embedding []float64, fundID uuid.UUID, topK int, threshold float64) ([]models.Chunk, error)
}

// Generator produces an answer from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var ErrFundRequired = errors.New("fund id is required")

const (
	defaultTopK      = 5
	defaultThreshold = 0.2

	// Bounded prompt context.
	maxPromptSources     = 3
	maxConversationTurns = 3
)

// QueryService routes a natural-language question to the metrics
// engine and the vector store and merges both into a grounded answer.
// It is stateless over the transaction/chunk store and safe for
// concurrent callers.
type QueryService struct {
	engine    *metrics.Engine
	embedder  embedding.Embedder
	searcher  ChunkSearcher
	convStore ConversationStore
	generator Generator
	topK      int
	threshold float64
}

// QueryServiceOption is a functional option for QueryService
type QueryServiceOption func(*QueryService)

// QueryWithMetricsEngine sets the metrics engine
func QueryWithMetricsEngine(e *metrics.Engine) QueryServiceOption {
	return func(s *QueryService) {
		s.engine = e
	}
}

// QueryWithEmbedder sets the embedding provider
func QueryWithEmbedder(e embedding.Embedder) QueryServiceOption {
	return func(s *QueryService) {
		s.embedder = e
	}
}

// QueryWithSearcher sets the chunk searcher
func QueryWithSearcher(cs ChunkSearcher) QueryServiceOption {
	return func(s *QueryService) {
		s.searcher = cs
	}
}

// QueryWithConversationStore sets the conversation store
func QueryWithConversationStore(cs ConversationStore) QueryServiceOption {
	return func(s *QueryService) {
		s.convStore = cs
	}
}

// QueryWithGenerator sets the answer generator
func QueryWithGenerator(g Generator) QueryServiceOption {
	return func(s *QueryService) {
		s.generator = g
	}
}

// QueryWithTopK sets the similarity search result limit
func QueryWithTopK(k int) QueryServiceOption {
	return func(s *QueryService) {
		s.topK = k
	}
}

// QueryWithThreshold sets the minimum similarity for retrieved chunks
func QueryWithThreshold(t float64) QueryServiceOption {
	return func(s *QueryService) {
		s.threshold = t
	}
}

// NewQueryService creates a new query service
func NewQueryService(opts ...QueryServiceOption) *QueryService {
	s := &QueryService{
		topK:      defaultTopK,
		threshold: defaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryRequest represents a natural-language query against a fund
type QueryRequest struct {
	Query          string
	FundID         uuid.UUID
	ConversationID string
}

// QueryResult represents a grounded answer
type QueryResult struct {
	Answer    string               `json:"answer"`
	Intent    Intent               `json:"intent"`
	Sources   []models.Chunk       `json:"sources"`
	Metrics   *metrics.FundMetrics `json:"metrics,omitempty"`
	Breakdown *metrics.Breakdown   `json:"breakdown,omitempty"`

	// Degraded is set when the vector store was unavailable and the
	// answer fell back to metrics-only grounding.
	Degraded bool `json:"degraded,omitempty"`
}

// Query answers a natural-language question about a fund. Vector
// store failures degrade the answer to metrics-only grounding; they
// never fail the query.
func (s *QueryService) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	if req.FundID == uuid.Nil {
		return nil, ErrFundRequired
	}

	result := &QueryResult{Intent: ClassifyIntent(req.Query)}

	switch result.Intent {
	case IntentCalculation:
		if err := s.attachMetrics(ctx, req, result); err != nil {
			return nil, err
		}
	case IntentRetrieval, IntentGeneral:
		s.attachSources(ctx, req, result)
	}

	var history []Turn
	if s.convStore != nil && req.ConversationID != "" {
		h, err := s.convStore.History(ctx, req.ConversationID)
		if err != nil {
			log.Printf("Warning: failed to load conversation %s: %v", req.ConversationID, err)
		} else {
			history = h
		}
	}

	prompt := s.buildPrompt(req.Query, result, history)
	result.Answer = s.generate(ctx, prompt, result)

	if s.convStore != nil && req.ConversationID != "" {
		err := s.convStore.Append(ctx, req.ConversationID,
			Turn{Role: "user", Content: req.Query},
			Turn{Role: "assistant", Content: result.Answer},
		)
		if err != nil {
			log.Printf("Warning: failed to record conversation %s: %v", req.ConversationID, err)
		}
	}

	return result, nil
}

func (s *QueryService) attachMetrics(ctx context.Context, req QueryRequest, result *QueryResult) error {
	if s.engine == nil {
		return errors.New("metrics engine not set")
	}

	m, err := s.engine.Metrics(ctx, req.FundID)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}
	result.Metrics = m

	// "How" and "why" questions get the audit breakdown of the metric
	// they name.
	lower := strings.ToLower(req.Query)
	if !strings.Contains(lower, "how") && !strings.Contains(lower, "why") {
		return nil
	}
	metric := namedMetric(lower)
	if metric == "" {
		return nil
	}

	b, err := s.engine.Breakdown(ctx, req.FundID, metric)
	if err != nil {
		return fmt.Errorf("failed to compute breakdown: %w", err)
	}
	result.Breakdown = b
	return nil
}

func namedMetric(lowerQuery string) string {
	switch {
	case strings.Contains(lowerQuery, "dpi"):
		return metrics.MetricDPI
	case strings.Contains(lowerQuery, "irr"):
		return metrics.MetricIRR
	case strings.Contains(lowerQuery, "pic"), strings.Contains(lowerQuery, "paid-in"):
		return metrics.MetricPIC
	case strings.Contains(lowerQuery, "distribution"):
		return metrics.MetricTotalDistributions
	default:
		return ""
	}
}

// attachSources retrieves relevant chunks. Any failure here flags the
// result as degraded instead of surfacing an error.
func (s *QueryService) attachSources(ctx context.Context, req QueryRequest, result *QueryResult) {
	if s.searcher == nil || s.embedder == nil {
		result.Degraded = true
		return
	}

	vector, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		log.Printf("Warning: query embedding failed, degrading to metrics-only: %v", err)
		result.Degraded = true
		return
	}

	chunks, err := s.searcher.SimilaritySearch(ctx, vector, req.FundID, s.topK, s.threshold)
	if err != nil {
		log.Printf("Warning: similarity search failed, degrading to metrics-only: %v", err)
		result.Degraded = true
		return
	}

	result.Sources = chunks
}

const systemPrompt = `You are a financial analyst assistant specializing in private equity fund performance.

Your role:
- Answer questions about fund performance using the provided context
- Use the provided metrics for PIC, DPI, and IRR; never invent numbers
- Explain financial terms in plain language
- Cite sources from the provided document excerpts

Format your responses concisely and show calculation steps when metrics are involved.`

func (s *QueryService) buildPrompt(query string, result *QueryResult, history []Turn) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if len(result.Sources) > 0 {
		b.WriteString("Context from documents:\n")
		limit := len(result.Sources)
		if limit > maxPromptSources {
			limit = maxPromptSources
		}
		for i, chunk := range result.Sources[:limit] {
			fmt.Fprintf(&b, "[Source %d, page %d]\n%s\n\n", i+1, chunk.PageNumber, chunk.Content)
		}
	}

	if result.Metrics != nil {
		b.WriteString("Available metrics:\n")
		b.WriteString(formatMetrics(result.Metrics))
		b.WriteString("\n")
	}

	if result.Breakdown != nil {
		fmt.Fprintf(&b, "Calculation breakdown for %s:\n", result.Breakdown.Metric)
		for _, step := range result.Breakdown.Steps {
			fmt.Fprintf(&b, "- %s %s on %s: %s (running total %s)\n",
				step.Transaction.Kind,
				step.Transaction.Type,
				step.Transaction.Date.Format("2006-01-02"),
				step.Contribution.StringFixed(2),
				step.RunningTotal.StringFixed(2),
			)
		}
		b.WriteString("\n")
	}

	if len(history) > 0 {
		start := len(history) - maxConversationTurns
		if start < 0 {
			start = 0
		}
		b.WriteString("Previous conversation:\n")
		for _, turn := range history[start:] {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n", query)
	return b.String()
}

func formatMetrics(m *metrics.FundMetrics) string {
	var b strings.Builder
	if m.PIC != nil {
		fmt.Fprintf(&b, "- PIC: %s\n", m.PIC.StringFixed(2))
	}
	if m.TotalDistributions != nil {
		fmt.Fprintf(&b, "- Total distributions: %s\n", m.TotalDistributions.StringFixed(2))
	}
	if m.DPI != nil {
		fmt.Fprintf(&b, "- DPI: %s\n", m.DPI.StringFixed(4))
	} else {
		b.WriteString("- DPI: not computable (paid-in capital is zero)\n")
	}
	if m.IRR != nil {
		fmt.Fprintf(&b, "- IRR: %.2f%%\n", *m.IRR*100)
	} else {
		b.WriteString("- IRR: not computable from the available cash flows\n")
	}
	return b.String()
}

// generate produces the answer text. Without a generator (or when the
// provider fails) it falls back to a deterministic summary built from
// the grounded context, so a query never fails outright.
func (s *QueryService) generate(ctx context.Context, prompt string, result *QueryResult) string {
	if s.generator != nil {
		answer, err := s.generator.Generate(ctx, prompt)
		if err == nil {
			return answer
		}
		log.Printf("Warning: answer generation failed, using fallback summary: %v", err)
	}
	return s.fallbackAnswer(result)
}

func (s *QueryService) fallbackAnswer(result *QueryResult) string {
	var b strings.Builder

	if result.Metrics != nil {
		b.WriteString("Fund metrics:\n")
		b.WriteString(formatMetrics(result.Metrics))
	}

	if len(result.Sources) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Relevant excerpts:\n")
		limit := len(result.Sources)
		if limit > maxPromptSources {
			limit = maxPromptSources
		}
		for _, chunk := range result.Sources[:limit] {
			fmt.Fprintf(&b, "- (page %d) %s\n", chunk.PageNumber, chunk.Content)
		}
	}

	if b.Len() == 0 {
		if result.Degraded {
			return "Document search is temporarily unavailable and no metrics apply to this question. Please try again later."
		}
		return "No indexed documents or metrics were found for this fund."
	}
	return b.String()
}
