package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	defaultProgressInterval = 30 * time.Second
	// Telegram drops the typing status after 5s
	defaultTypingInterval = 4 * time.Second
)

// Stages reported while a document is being processed.
const (
	StageDownloading = "Downloading the document"
	StageSummarizing = "Reading and summarizing the document"
)

// ProgressNotifier keeps the chat showing "typing" while a document moves
// through its stages and posts the current stage with the elapsed time every
// progress interval.
type ProgressNotifier struct {
	bot    BotAPI
	chatID int64
	logger *zap.Logger

	progressInterval time.Duration
	typingInterval   time.Duration

	mu      sync.Mutex
	stage   string
	started time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewProgressNotifier(bot BotAPI, chatID int64, logger *zap.Logger) *ProgressNotifier {
	return &ProgressNotifier{
		bot:              bot,
		chatID:           chatID,
		logger:           logger,
		progressInterval: defaultProgressInterval,
		typingInterval:   defaultTypingInterval,
		stage:            StageDownloading,
		done:             make(chan struct{}),
	}
}

// SetStage switches the stage named in later progress messages.
func (pn *ProgressNotifier) SetStage(stage string) {
	pn.mu.Lock()
	pn.stage = stage
	pn.mu.Unlock()
}

// Start sends a typing action right away and keeps notifying until Stop or
// ctx is done.
func (pn *ProgressNotifier) Start(ctx context.Context) {
	pn.mu.Lock()
	pn.started = time.Now()
	pn.mu.Unlock()

	pn.sendTyping()

	pn.wg.Add(1)
	go func() {
		defer pn.wg.Done()

		progress := time.NewTicker(pn.progressInterval)
		typing := time.NewTicker(pn.typingInterval)
		defer progress.Stop()
		defer typing.Stop()

		for {
			select {
			case <-typing.C:
				pn.sendTyping()
			case <-progress.C:
				pn.sendProgress()
			case <-pn.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends notifications. No message is sent once it returns.
func (pn *ProgressNotifier) Stop() {
	pn.stopOnce.Do(func() {
		close(pn.done)
	})
	pn.wg.Wait()
}

func (pn *ProgressNotifier) sendTyping() {
	if _, err := pn.bot.Request(tgbotapi.NewChatAction(pn.chatID, tgbotapi.ChatTyping)); err != nil {
		pn.logger.Debug("typing action not sent", zap.Error(err), zap.Int64("chat_id", pn.chatID))
	}
}

func (pn *ProgressNotifier) sendProgress() {
	pn.mu.Lock()
	text := fmt.Sprintf("⏳ %s... (%s)", pn.stage, time.Since(pn.started).Round(time.Second))
	pn.mu.Unlock()

	if _, err := pn.bot.Send(tgbotapi.NewMessage(pn.chatID, text)); err != nil {
		pn.logger.Warn("progress message not sent", zap.Error(err), zap.Int64("chat_id", pn.chatID))
	}
}
