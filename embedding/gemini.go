package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	embedAPI      = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	batchEmbedAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:batchEmbedContents"

	embeddingModel = "models/gemini-embedding-001"

	// DefaultDimension is the output dimensionality requested from
	// the embedding model.
	DefaultDimension = 768

	maxRetries     = 3
	initialBackoff = time.Second
)

// EmbeddingRequest represents an embedding API request
type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

// ContentInput represents content for embedding
type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

// PartInput represents a part of content
type PartInput struct {
	Text string `json:"text"`
}

// EmbeddingResponse represents an embedding API response
type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

// EmbeddingData contains the embedding values
type EmbeddingData struct {
	Values []float64 `json:"values"`
}

// BatchEmbeddingRequest represents a batch embedding API request
type BatchEmbeddingRequest struct {
	Requests []EmbeddingRequest `json:"requests"`
}

// BatchEmbeddingItem is the structure returned by the batch API (no
// nested "embedding" key)
type BatchEmbeddingItem struct {
	Values []float64 `json:"values"`
}

// BatchEmbeddingResponse represents a batch embedding API response
type BatchEmbeddingResponse struct {
	Embeddings []BatchEmbeddingItem `json:"embeddings"`
}

// GeminiEmbedder calls the Gemini embedding API over HTTP with retry
// and exponential backoff.
type GeminiEmbedder struct {
	apiKey    string
	dimension int
	client    *http.Client
}

// NewGeminiEmbedder creates a Gemini embedder. The API key is read
// from GEMINI_API_KEY when empty.
func NewGeminiEmbedder(apiKey string, dimension int) *GeminiEmbedder {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &GeminiEmbedder{
		apiKey:    apiKey,
		dimension: dimension,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Dimension returns the configured output dimensionality.
func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

// Embed generates an embedding for a single query text. Single-text
// embedding is the query-time path, so it uses the retrieval query
// task type; indexed documents go through EmbedBatch.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := EmbeddingRequest{
		Model: embeddingModel,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: e.dimension,
	}

	var apiResp EmbeddingResponse
	if err := e.post(ctx, embedAPI, reqBody, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Embedding.Values) != e.dimension {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(apiResp.Embedding.Values), e.dimension)
	}
	return apiResp.Embedding.Values, nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := BatchEmbeddingRequest{}
	for _, text := range texts {
		reqBody.Requests = append(reqBody.Requests, EmbeddingRequest{
			Model: embeddingModel,
			Content: ContentInput{
				Parts: []PartInput{{Text: text}},
			},
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: e.dimension,
		})
	}

	var apiResp BatchEmbeddingResponse
	if err := e.post(ctx, batchEmbedAPI, reqBody, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("batch returned %d embeddings for %d texts", len(apiResp.Embeddings), len(texts))
	}

	vectors := make([][]float64, len(apiResp.Embeddings))
	for i, item := range apiResp.Embeddings {
		if len(item.Values) != e.dimension {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(item.Values), e.dimension)
		}
		vectors[i] = item.Values
	}
	return vectors, nil
}

// post sends a JSON request with retry and exponential backoff.
func (e *GeminiEmbedder) post(ctx context.Context, url string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				lastErr = fmt.Errorf("failed to decode response: %w", err)
				continue
			}
			return nil
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(respBody))

		// Client errors other than rate limiting will not succeed on
		// retry.
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("embedding request failed after %d attempts: %w", maxRetries, lastErr)
}
