package handlers

import (
	"context"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the part of *tgbotapi.BotAPI the handlers talk to
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SummaryUsecase defines the summary operations used by the bot
type SummaryUsecase interface {
	SessionFor(id string) *session.Session
	Summarize(ctx context.Context, sessionID string, upload *entity.Upload) (*entity.SummaryResult, error)
	ClearChat(ctx context.Context, sessionID string) (*session.Session, error)
}

// FileDownloader fetches the content of a file sent to the bot
type FileDownloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}
