package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers every prompt with a short canned paragraph
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// Complete - mock completion, echoes the query line of the prompt
func (m *MockConnector) Complete(ctx context.Context, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] completion request", zap.Int("prompt_length", len(prompt)))

	topic := "the document"
	if i := strings.LastIndex(prompt, "Query: "); i >= 0 {
		line, _, _ := strings.Cut(prompt[i+len("Query: "):], "\n")
		if line = strings.TrimSpace(line); line != "" {
			topic = line
		}
	}

	return fmt.Sprintf("Mock answer for %q, based on %d characters of context.", topic, len(prompt)), nil
}
