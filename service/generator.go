package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

const defaultGenerationModel = "gemini-2.0-flash"

// GeminiGenerator produces answers with the Gemini generation API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiGenerator creates a generator on top of an initialized
// Gemini client.
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	if model == "" {
		model = defaultGenerationModel
	}
	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: 0.2,
	}
}

// Generate sends the prompt to the model and returns the concatenated
// text of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("generation returned no candidates")
	}

	var b strings.Builder
	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
		log.Printf("Warning: generation finished with reason %v", candidate.FinishReason)
	}
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("generation returned empty content")
	}
	return b.String(), nil
}
