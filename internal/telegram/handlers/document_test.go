package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/pkg/formatter"
	"github.com/futig/pdf-digest/internal/session"
	"github.com/futig/pdf-digest/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBot struct {
	mu      sync.Mutex
	texts   []string
	docs    []string
	actions atomic.Int32
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		b.texts = append(b.texts, m.Text)
	case tgbotapi.DocumentConfig:
		if f, ok := m.File.(tgbotapi.FileBytes); ok {
			b.docs = append(b.docs, f.Name)
		}
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if _, ok := c.(tgbotapi.ChatActionConfig); ok {
		b.actions.Add(1)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) sentTexts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.texts...)
}

type fakeDownloader struct {
	content []byte
	err     error
	calls   int
}

func (d *fakeDownloader) Download(ctx context.Context, fileID string) ([]byte, error) {
	d.calls++
	return d.content, d.err
}

type fakeUsecase struct {
	sessions *session.Manager
	result   *entity.SummaryResult
	err      error
	uploads  []*entity.Upload
	ids      []string
}

func (u *fakeUsecase) SessionFor(id string) *session.Session {
	return u.sessions.GetOrCreate(id)
}

func (u *fakeUsecase) Summarize(ctx context.Context, sessionID string, upload *entity.Upload) (*entity.SummaryResult, error) {
	u.ids = append(u.ids, sessionID)
	u.uploads = append(u.uploads, upload)
	return u.result, u.err
}

func (u *fakeUsecase) ClearChat(ctx context.Context, sessionID string) (*session.Session, error) {
	return u.sessions.Get(sessionID)
}

type stubEngine struct{}

func (stubEngine) Query(ctx context.Context, query string) (*entity.QueryResponse, error) {
	return &entity.QueryResponse{Response: "ok"}, nil
}

func (stubEngine) Documents() []entity.DocumentMetadata { return nil }

func newFakeUsecase(t *testing.T) *fakeUsecase {
	t.Helper()
	m := session.NewManager(config.SessionConfig{IdleTTL: time.Hour, CleanupInterval: time.Hour}, zap.NewNop())
	t.Cleanup(m.Close)
	return &fakeUsecase{sessions: m}
}

func okResult(filename string) *entity.SummaryResult {
	return &entity.SummaryResult{
		Filename: filename,
		Summary: entity.QueryResult{
			Kind:     entity.QuerySummary,
			Response: &entity.QueryResponse{Response: "The plan in short."},
		},
		Highlights: entity.QueryResult{
			Kind:     entity.QueryHighlights,
			Response: &entity.QueryResponse{Response: "Revenue grew 12 percent."},
		},
	}
}

func pdfMessage(chatID int64, name string, size int) *Message {
	return &Message{
		ChatID: chatID,
		UserID: chatID,
		Document: &tgbotapi.Document{
			FileID:   "file-1",
			FileName: name,
			MimeType: "application/pdf",
			FileSize: size,
		},
	}
}

func TestDocumentHandler_Summarizes(t *testing.T) {
	bot := &fakeBot{}
	uc := newFakeUsecase(t)
	uc.result = okResult("plan.pdf")
	dl := &fakeDownloader{content: []byte("%PDF-1.4 body")}

	h := NewDocumentHandler(bot, uc, dl, formatter.NewMarkdownFormatter(), 1<<20, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), pdfMessage(42, "plan.pdf", 100)))

	require.Len(t, uc.uploads, 1)
	assert.Equal(t, "plan.pdf", uc.uploads[0].Filename)
	assert.Equal(t, dl.content, uc.uploads[0].Content)
	assert.Equal(t, SessionIDForChat(42), uc.ids[0])

	texts := bot.sentTexts()
	require.GreaterOrEqual(t, len(texts), 3)
	assert.Equal(t, render.MsgIndexing, texts[0])
	assert.Contains(t, texts, "📝 Summary of plan.pdf\n\nThe plan in short.")
	assert.Contains(t, texts, "📌 Key points of plan.pdf\n\nRevenue grew 12 percent.")
	assert.Equal(t, []string{"plan-summary.md"}, bot.docs)
}

func TestDocumentHandler_CachedDocument(t *testing.T) {
	bot := &fakeBot{}
	uc := newFakeUsecase(t)
	uc.result = okResult("plan.pdf")

	s := uc.SessionFor(SessionIDForChat(7))
	s.Cache().Store(s.ID, "plan.pdf", stubEngine{})

	h := NewDocumentHandler(bot, uc, &fakeDownloader{content: []byte("%PDF-")}, nil, 0, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), pdfMessage(7, "plan.pdf", 10)))

	texts := bot.sentTexts()
	require.NotEmpty(t, texts)
	assert.Equal(t, render.MsgCached, texts[0])
	assert.Empty(t, bot.docs)
}

func TestDocumentHandler_LookupUsesUploadedName(t *testing.T) {
	bot := &fakeBot{}
	uc := newFakeUsecase(t)
	uc.result = okResult("my_report.pdf")

	s := uc.SessionFor(SessionIDForChat(8))
	s.Cache().Store(s.ID, "my report.pdf", stubEngine{})

	h := NewDocumentHandler(bot, uc, &fakeDownloader{content: []byte("%PDF-")}, nil, 0, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), pdfMessage(8, "my_report.pdf", 10)))

	texts := bot.sentTexts()
	require.NotEmpty(t, texts)
	assert.Equal(t, render.MsgIndexing, texts[0])
	assert.Equal(t, "my_report.pdf", uc.uploads[0].Filename)
}

func TestDocumentHandler_RejectsBeforeDownload(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{"not a pdf", pdfMessage(1, "notes.txt", 10), render.ErrInvalidFile},
		{"too large", pdfMessage(1, "big.pdf", 2<<20), render.RenderFileTooLarge(1 << 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeBot{}
			uc := newFakeUsecase(t)
			dl := &fakeDownloader{}

			h := NewDocumentHandler(bot, uc, dl, nil, 1<<20, zap.NewNop())
			require.NoError(t, h.Handle(context.Background(), tt.msg))

			assert.Equal(t, []string{tt.want}, bot.sentTexts())
			assert.Zero(t, dl.calls)
			assert.Empty(t, uc.uploads)
		})
	}
}

func TestDocumentHandler_Errors(t *testing.T) {
	tests := []struct {
		name        string
		downloadErr error
		summaryErr  error
		want        string
	}{
		{"download fails", errors.New("connection reset"), nil, render.ErrGeneric},
		{"no text", nil, fmt.Errorf("ingest: %w", entity.ErrNoDocuments), render.ErrNoText},
		{"timeout", nil, context.DeadlineExceeded, render.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeBot{}
			uc := newFakeUsecase(t)
			uc.err = tt.summaryErr

			h := NewDocumentHandler(bot, uc, &fakeDownloader{content: []byte("%PDF-"), err: tt.downloadErr}, nil, 0, zap.NewNop())
			require.NoError(t, h.Handle(context.Background(), pdfMessage(3, "a.pdf", 10)))

			texts := bot.sentTexts()
			require.NotEmpty(t, texts)
			assert.Equal(t, tt.want, texts[len(texts)-1])
		})
	}
}

func TestDocumentHandler_PartialResult(t *testing.T) {
	bot := &fakeBot{}
	uc := newFakeUsecase(t)
	uc.result = okResult("plan.pdf")
	uc.result.Highlights = entity.QueryResult{Kind: entity.QueryHighlights, Err: errors.New("model overloaded")}
	uc.err = fmt.Errorf("%w: model overloaded", entity.ErrQueryFailed)

	h := NewDocumentHandler(bot, uc, &fakeDownloader{content: []byte("%PDF-")}, nil, 0, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), pdfMessage(5, "plan.pdf", 10)))

	texts := bot.sentTexts()
	assert.Contains(t, texts, "📝 Summary of plan.pdf\n\nThe plan in short.")
	assert.Contains(t, texts[len(texts)-1], "model overloaded")
}

func TestSessionIDForChat(t *testing.T) {
	assert.Equal(t, SessionIDForChat(100), SessionIDForChat(100))
	assert.NotEqual(t, SessionIDForChat(100), SessionIDForChat(101))
	assert.Len(t, SessionIDForChat(100), 36)
}

func TestClassifyHandlerError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		severity ErrorSeverity
	}{
		{"rejected upload", entity.ErrInvalidExtension, SeverityWarning},
		{"missing credential", entity.ErrMissingCredential, SeverityCritical},
		{"timeout", context.DeadlineExceeded, SeverityError},
		{"upstream", entity.ErrLLMFailed, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyHandlerError(tt.err)
			assert.Equal(t, tt.severity, got.Severity)
			assert.NotEmpty(t, got.UserMessage)
		})
	}
}

func TestTextHandler(t *testing.T) {
	bot := &fakeBot{}
	h := NewTextHandler(bot, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), &Message{ChatID: 1, Text: "hi"}))
	assert.Equal(t, []string{render.MsgSendPDF}, bot.sentTexts())
	assert.True(t, IsValidKind(h.Kind()))
}
