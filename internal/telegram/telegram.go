package telegram

import (
	"context"
	"fmt"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/pkg/formatter"
	"github.com/futig/pdf-digest/internal/telegram/bot"
	"github.com/futig/pdf-digest/internal/telegram/handlers"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies. A nil report
// formatter sends the summary as chat messages only.
func NewBot(
	cfg *config.TelegramConfig,
	summaryUC handlers.SummaryUsecase,
	report formatter.Formatter,
	logger *zap.Logger,
) (Bot, error) {
	b, err := bot.New(cfg, summaryUC, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	registerHandlers(b, report, logger)

	logger.Info("telegram bot initialized successfully")

	return b, nil
}

func registerHandlers(b *bot.Bot, report formatter.Formatter, logger *zap.Logger) {
	api := b.GetAPI()
	cfg := b.GetConfig()

	b.RegisterHandler(handlers.NewDocumentHandler(api, b.GetSummaryUsecase(), b, report, cfg.MaxFileSize, logger))
	b.RegisterHandler(handlers.NewTextHandler(api, logger))
}
