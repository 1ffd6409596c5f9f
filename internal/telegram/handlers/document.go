package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/pkg/formatter"
	"github.com/futig/pdf-digest/internal/pkg/logger"
	"github.com/futig/pdf-digest/internal/telegram/render"
	"github.com/futig/pdf-digest/internal/usecase/summary"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// DocumentHandler summarizes PDFs sent to the bot
type DocumentHandler struct {
	BaseHandler
	bot         BotAPI
	usecase     SummaryUsecase
	downloader  FileDownloader
	report      formatter.Formatter
	maxFileSize int64
	logger      *zap.Logger
}

// NewDocumentHandler creates a document handler. A nil report formatter
// disables the report file sent after the summary.
func NewDocumentHandler(
	bot BotAPI,
	usecase SummaryUsecase,
	downloader FileDownloader,
	report formatter.Formatter,
	maxFileSize int64,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: BaseHandler{
			kind:          HandlerKindDocument,
			messageSender: NewMessageSender(bot, logger),
		},
		bot:         bot,
		usecase:     usecase,
		downloader:  downloader,
		report:      report,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (h *DocumentHandler) Handle(ctx context.Context, msg *Message) error {
	doc := msg.Document
	if doc == nil {
		return errors.New("message has no document")
	}

	sessionID := SessionIDForChat(msg.ChatID)
	ctx = logger.WithAction(ctx, "SummarizeDocument")
	ctx = logger.AddFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("filename", doc.FileName),
	)

	if !strings.EqualFold(filepath.Ext(doc.FileName), ".pdf") {
		h.sendMessage(msg.ChatID, render.ErrInvalidFile, nil)
		return nil
	}

	if h.maxFileSize > 0 && int64(doc.FileSize) > h.maxFileSize {
		h.sendMessage(msg.ChatID, render.RenderFileTooLarge(h.maxFileSize), nil)
		return nil
	}

	s := h.usecase.SessionFor(sessionID)
	if _, ok := s.Cache().Lookup(s.ID, doc.FileName); ok {
		h.sendMessage(msg.ChatID, render.MsgCached, nil)
	} else {
		h.sendMessage(msg.ChatID, render.MsgIndexing, nil)
	}

	progress := NewProgressNotifier(h.bot, msg.ChatID, h.logger)
	progress.Start(ctx)
	defer progress.Stop()

	content, err := h.downloader.Download(ctx, doc.FileID)
	if err != nil {
		progress.Stop()
		h.HandleError(ctx, msg.ChatID, fmt.Errorf("download: %w", err))
		return nil
	}

	progress.SetStage(StageSummarizing)
	result, err := h.usecase.Summarize(ctx, s.ID, &entity.Upload{
		Filename:    doc.FileName,
		ContentType: doc.MimeType,
		Content:     content,
	})
	progress.Stop()

	if result == nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}
	if err != nil {
		ctxzap.Warn(ctx, "summary is incomplete", zap.Error(err))
	}

	for _, text := range render.RenderSummary(result) {
		if err := sendCriticalMessage(ctx, h.bot, msg.ChatID, text); err != nil {
			return fmt.Errorf("send summary: %w", err)
		}
	}

	h.sendReport(ctx, msg.ChatID, result)

	ctxzap.Info(ctx, "summary delivered", zap.Bool("cached", result.Cached))
	return nil
}

func (h *DocumentHandler) sendReport(ctx context.Context, chatID int64, result *entity.SummaryResult) {
	if h.report == nil {
		return
	}

	body, err := h.report.Format(summary.Report(result))
	if err != nil {
		ctxzap.Error(ctx, "failed to format report", zap.Error(err))
		return
	}

	name := summary.ReportFilename(result.Filename, h.report.FileExtension())
	if err := h.messageSender.SendDocument(chatID, name, body); err != nil {
		ctxzap.Warn(ctx, "report not delivered", zap.Error(err))
	}
}
