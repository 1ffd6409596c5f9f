package handlers

import (
	"context"
	"time"

	pkgRetry "github.com/futig/pdf-digest/internal/pkg/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// criticalSendRetry is used for messages carrying results the user waited for
var criticalSendRetry = pkgRetry.RetryConfig{
	Attempts: 3,
	Delay:    time.Second,
	MaxDelay: 3 * time.Second,
	Timeout:  30 * time.Second,
}

// sendCriticalMessage sends a message that must be delivered, such as a summary
func sendCriticalMessage(ctx context.Context, bot BotAPI, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	attempt := 0
	err := criticalSendRetry.Do(ctx, func() error {
		attempt++
		_, err := bot.Send(msg)
		if err != nil {
			ctxzap.Warn(ctx, "failed to send message, retrying",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int64("chat_id", chatID),
			)
		}
		return err
	}, nil)
	if err != nil {
		ctxzap.Error(ctx, "failed to send message after all retries",
			zap.Error(err),
			zap.Uint("max_retries", criticalSendRetry.Attempts),
			zap.Int64("chat_id", chatID),
		)
		return err
	}

	if attempt > 1 {
		ctxzap.Info(ctx, "message sent after retry",
			zap.Int("attempt", attempt),
			zap.Int64("chat_id", chatID),
		)
	}

	return nil
}
