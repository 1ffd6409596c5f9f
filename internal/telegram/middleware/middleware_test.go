package middleware

import (
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.texts = append(s.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func update(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
		},
	}
}

func TestRateLimiter(t *testing.T) {
	sender := &fakeSender{}
	rl := NewRateLimiterMiddleware(1, 2, zap.NewNop(), sender)

	handled := 0
	next := func(tgbotapi.Update) { handled++ }

	for range 4 {
		rl.Handle(update(1, "hi"), next)
	}
	assert.Equal(t, 2, handled)
	assert.Len(t, sender.texts, 1, "one warning per interval")

	// other users have their own bucket
	rl.Handle(update(2, "hi"), next)
	assert.Equal(t, 3, handled)
}

func TestRecovery(t *testing.T) {
	sender := &fakeSender{}
	m := NewRecoveryMiddleware(zap.NewNop(), sender)

	assert.NotPanics(t, func() {
		m.Handle(update(9, "boom"), func(tgbotapi.Update) { panic("handler bug") })
	})
	assert.Len(t, sender.texts, 1)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLoggingMiddleware(zap.New(core))

	called := false
	u := update(3, "")
	u.Message.Document = &tgbotapi.Document{FileName: "a.pdf"}
	m.Handle(u, func(tgbotapi.Update) { called = true })

	assert.True(t, called)
	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "document", entries[0].ContextMap()["type"])
}
