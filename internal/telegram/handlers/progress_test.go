package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFastNotifier(bot BotAPI) *ProgressNotifier {
	pn := NewProgressNotifier(bot, 1, zap.NewNop())
	pn.progressInterval = 10 * time.Millisecond
	pn.typingInterval = 5 * time.Millisecond
	return pn
}

func hasStage(texts []string, stage string) bool {
	for _, text := range texts {
		if strings.Contains(text, stage) {
			return true
		}
	}
	return false
}

func TestProgressNotifier_ReportsCurrentStage(t *testing.T) {
	bot := &fakeBot{}
	pn := newFastNotifier(bot)

	pn.Start(context.Background())
	assert.GreaterOrEqual(t, bot.actions.Load(), int32(1))

	require.Eventually(t, func() bool {
		return hasStage(bot.sentTexts(), StageDownloading)
	}, time.Second, 5*time.Millisecond)

	pn.SetStage(StageSummarizing)
	require.Eventually(t, func() bool {
		return hasStage(bot.sentTexts(), StageSummarizing)
	}, time.Second, 5*time.Millisecond)

	pn.Stop()
	sent := len(bot.sentTexts())
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, bot.sentTexts(), sent)
	assert.Greater(t, bot.actions.Load(), int32(1))
}

func TestProgressNotifier_StopIsIdempotent(t *testing.T) {
	pn := newFastNotifier(&fakeBot{})
	pn.Start(context.Background())

	pn.Stop()
	pn.Stop()
}

func TestProgressNotifier_StopsWithContext(t *testing.T) {
	bot := &fakeBot{}
	pn := newFastNotifier(bot)

	ctx, cancel := context.WithCancel(context.Background())
	pn.Start(ctx)
	cancel()

	pn.Stop()
	sent := len(bot.sentTexts())
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, bot.sentTexts(), sent)
}
