package summary

import (
	"context"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/session"
)

type Ingestor interface {
	Ingest(ctx context.Context, dir string) ([]entity.Document, error)
}

type EngineBuilder interface {
	Build(ctx context.Context, docs []entity.Document) (session.Engine, error)
}

type SessionManager interface {
	Create() *session.Session
	GetOrCreate(id string) *session.Session
	Get(id string) (*session.Session, error)
	Delete(id string) error
}
