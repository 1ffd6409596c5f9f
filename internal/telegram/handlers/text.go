package handlers

import (
	"context"

	"github.com/futig/pdf-digest/internal/telegram/render"
	"go.uber.org/zap"
)

// TextHandler answers plain text with a hint to send a PDF
type TextHandler struct {
	BaseHandler
}

func NewTextHandler(bot BotAPI, logger *zap.Logger) *TextHandler {
	return &TextHandler{
		BaseHandler: BaseHandler{
			kind:          HandlerKindText,
			messageSender: NewMessageSender(bot, logger),
		},
	}
}

func (h *TextHandler) Handle(ctx context.Context, msg *Message) error {
	h.sendMessage(msg.ChatID, render.MsgSendPDF, nil)
	return nil
}
