package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const systemPrompt = "You answer strictly from the document excerpts you are given. " +
	"If the excerpts do not contain the answer, say so instead of guessing."

// Connector sends single-turn completions to the hosted language model.
type Connector struct {
	config config.LLMConfig
	client anthropic.Client
	logger *zap.Logger
}

func NewConnector(
	cfg config.LLMConfig,
	logger *zap.Logger,
) *Connector {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	return &Connector{
		config: cfg,
		client: anthropic.NewClient(opts...),
		logger: logger,
	}
}

// Complete returns the model's text answer to prompt.
func (c *Connector) Complete(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	ctxzap.Debug(ctx, "sending completion request",
		zap.String("model", c.config.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		ctxzap.Error(ctx, "completion request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", entity.ErrLLMFailed, err)
	}

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(answer.String())
	if text == "" {
		return "", fmt.Errorf("%w: model returned no text", entity.ErrEmptyResponse)
	}

	ctxzap.Debug(ctx, "completion received",
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	return text, nil
}
