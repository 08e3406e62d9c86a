// Package insights implements the narrative-insight collaborator on top
// of the Gemini API.
package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini generates markdown narratives from entry reasons. It satisfies
// services.NarrativeGenerator.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a client for the given API key and model.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Narrative sends the prompt plus the newline-joined reasons and returns
// the model's markdown response.
func (g *Gemini) Narrative(ctx context.Context, prompt string, reasons []string) (string, error) {
	contents := genai.Text(prompt + "\n\n" + strings.Join(reasons, "\n"))
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}
