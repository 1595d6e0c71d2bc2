package provider

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// NewAnthropicClient returns a client using the API key from the env unless
// an option.WithAPIKey is supplied.
func NewAnthropicClient(opts ...option.RequestOption) *anthropic.Client {
	c := anthropic.NewClient(opts...)
	return &c
}

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// AnthropicGenerator calls the Anthropic Messages API with a fixed output
// budget and sampling temperature.
type AnthropicGenerator struct {
	Client      *anthropic.Client
	Model       anthropic.Model
	MaxTokens   int64
	Temperature float64
}

func NewAnthropicGenerator(client *anthropic.Client, model string, maxTokens int64, temperature float64) *AnthropicGenerator {
	m := anthropic.Model(strings.TrimSpace(model))
	if m == "" {
		m = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &AnthropicGenerator{Client: client, Model: m, MaxTokens: maxTokens, Temperature: temperature}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, systemText, userText string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       g.Model,
		MaxTokens:   g.MaxTokens,
		Temperature: anthropic.Float(g.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	msg, err := g.Client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
