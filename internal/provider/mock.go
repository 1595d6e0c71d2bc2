package provider

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator is a deterministic offline generator for local runs.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator { return &MockGenerator{} }

func (MockGenerator) Generate(ctx context.Context, _, userText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Echo only the new message, not the rendered history.
	if i := strings.LastIndex(userText, "New message:\n"); i >= 0 {
		userText = userText[i+len("New message:\n"):]
	}
	return fmt.Sprintf("Acknowledged: %q. Overwatch is listening.", strings.TrimSpace(userText)), nil
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, systemText, userText string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, systemText, userText string) (string, error) {
	return f(ctx, systemText, userText)
}
