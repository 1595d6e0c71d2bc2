package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, maxTokens int64, temperature float64) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &GeminiGenerator{
		client:      client,
		model:       model,
		maxTokens:   int32(maxTokens),
		temperature: float32(temperature),
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, systemText, userText string) (string, error) {
	temp := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: g.maxTokens,
	}
	if systemText != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userText), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
