package session

import (
	"context"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/session"
)

type SummaryUsecase interface {
	CreateSession(ctx context.Context) *session.Session
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
	ClearChat(ctx context.Context, sessionID string) (*session.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Summarize(ctx context.Context, sessionID string, upload *entity.Upload) (*entity.SummaryResult, error)
}
