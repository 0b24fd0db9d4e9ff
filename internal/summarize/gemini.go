package summarize

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const systemPrompt = `You are a marketing assistant. Given a customer testimonial, extract a short highlight quote (1-2 sentences, the most impactful part) and 2-4 keyword tags. Respond ONLY with valid JSON: {"summary": "...", "tags": ["tag1", "tag2"]}`

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// generateFunc sends content to the model and returns its text reply.
type generateFunc func(ctx context.Context, content string) (string, error)

// Gemini summarizes testimonials with Google Gemini.
type Gemini struct {
	generate generateFunc
}

// NewGemini creates a Gemini summarizer for the given API key and model.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	cfg := generateConfig(model)
	return &Gemini{
		generate: func(ctx context.Context, content string) (string, error) {
			result, err := client.Models.GenerateContent(ctx, model, genai.Text(content), cfg)
			if err != nil {
				return "", fmt.Errorf("gemini generate: %w", err)
			}
			return result.Text(), nil
		},
	}, nil
}

const (
	replyTokens = 200
	// thinkingTokens is reserved on models that cannot turn thinking off,
	// since thought tokens count against MaxOutputTokens.
	thinkingTokens = 1024
)

// generateConfig returns the request config for model. Flash models run with
// thinking disabled so the whole output budget goes to the JSON reply.
func generateConfig(model string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: replyTokens,
	}
	if strings.Contains(model, "flash") {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)}
	} else {
		cfg.MaxOutputTokens = replyTokens + thinkingTokens
	}
	return cfg
}

func (g *Gemini) Summarize(ctx context.Context, content string) (Summary, error) {
	reply, err := g.generate(ctx, content)
	if err != nil {
		return Summary{}, err
	}
	return parseResponse(reply, content), nil
}

// New returns a Gemini summarizer when apiKey is set and the Fallback otherwise.
func New(ctx context.Context, apiKey, model string) (Summarizer, error) {
	if apiKey == "" {
		return Fallback{}, nil
	}
	return NewGemini(ctx, apiKey, model)
}
