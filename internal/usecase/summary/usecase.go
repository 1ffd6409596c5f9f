package summary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/pkg/logger"
	"github.com/futig/pdf-digest/internal/pkg/validator"
	"github.com/futig/pdf-digest/internal/session"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const tempDirPattern = "pdf-digest-*"

// SummaryUsecase indexes uploaded PDFs per session and answers the fixed queries
type SummaryUsecase struct {
	sessions  SessionManager
	validator *validator.Validator
	ingestor  Ingestor
	builder   EngineBuilder
	logger    *zap.Logger
}

// NewUsecase creates a new summary use case
func NewUsecase(
	sessions SessionManager,
	validator *validator.Validator,
	ingestor Ingestor,
	builder EngineBuilder,
	logger *zap.Logger,
) *SummaryUsecase {
	return &SummaryUsecase{
		sessions:  sessions,
		validator: validator,
		ingestor:  ingestor,
		builder:   builder,
		logger:    logger,
	}
}

func (uc *SummaryUsecase) CreateSession(ctx context.Context) *session.Session {
	s := uc.sessions.Create()
	ctxzap.Info(ctx, "session created", zap.String("session_id", s.ID))
	return s
}

// SessionFor returns the session bound to an external identity, such as a chat.
func (uc *SummaryUsecase) SessionFor(id string) *session.Session {
	return uc.sessions.GetOrCreate(id)
}

func (uc *SummaryUsecase) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return uc.sessions.Get(sessionID)
}

// ClearChat resets the conversation of a session. Indexed documents stay cached.
func (uc *SummaryUsecase) ClearChat(ctx context.Context, sessionID string) (*session.Session, error) {
	s, err := uc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.ClearChat()
	ctxzap.Info(ctx, "chat cleared",
		zap.String("session_id", s.ID),
		zap.Int("cached_documents", s.Cache().Len()),
	)

	return s, nil
}

// DeleteSession releases the session together with its cached engines.
func (uc *SummaryUsecase) DeleteSession(ctx context.Context, sessionID string) error {
	if err := uc.sessions.Delete(sessionID); err != nil {
		return err
	}

	ctxzap.Info(ctx, "session deleted", zap.String("session_id", sessionID))
	return nil
}

// Summarize indexes the upload on first sight within the session and runs both
// fixed queries against the engine. The result is returned even when a query
// fails; the error then wraps entity.ErrQueryFailed.
func (uc *SummaryUsecase) Summarize(ctx context.Context, sessionID string, upload *entity.Upload) (*entity.SummaryResult, error) {
	ctx = logger.WithAction(ctx, "summarize")

	s, err := uc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if err := uc.validator.ValidateUpload(upload); err != nil {
		return nil, err
	}

	// engines are keyed by the name as uploaded; the sanitized name only
	// names the file on disk
	filename := upload.Filename
	diskName := validator.SanitizeFilename(filename)
	if diskName == "" {
		return nil, fmt.Errorf("%w: bad filename %q", entity.ErrInvalidFile, filename)
	}

	ctx = logger.AddFields(ctx, zap.String("session_id", s.ID), zap.String("filename", filename))

	engine, cached, err := s.Cache().GetOrBuild(ctx, s.ID, filename, func(buildCtx context.Context) (session.Engine, error) {
		return uc.buildEngine(buildCtx, diskName, upload.Content)
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to index document", zap.Error(err))
		return nil, fmt.Errorf("index document: %w", err)
	}

	ctxzap.Info(ctx, "document ready", zap.Bool("cached", cached))
	s.AddMessage(session.RoleUser, filename)

	result := &entity.SummaryResult{
		SessionID: s.ID,
		Filename:  filename,
		Cached:    cached,
		Preview:   Preview(upload.Content),
	}
	result.Summary, result.Highlights = uc.runFixedQueries(ctx, engine)

	for _, r := range []entity.QueryResult{result.Summary, result.Highlights} {
		if !r.Failed() {
			s.AddMessage(session.RoleAssistant, r.Response.Response)
		}
	}
	s.SetLastResult(result)

	if err := errors.Join(result.Summary.Err, result.Highlights.Err); err != nil {
		return result, fmt.Errorf("%w: %w", entity.ErrQueryFailed, err)
	}

	return result, nil
}

// buildEngine writes the upload into a fresh temporary directory, ingests it
// and builds the engine. The directory is removed once the build returns.
func (uc *SummaryUsecase) buildEngine(ctx context.Context, filename string, content []byte) (session.Engine, error) {
	dir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			ctxzap.Warn(ctx, "failed to remove temp dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrUploadNotFound, err)
	}

	docs, err := uc.ingestor.Ingest(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	engine, err := uc.builder.Build(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return engine, nil
}

// runFixedQueries asks both fixed queries concurrently. Each query succeeds or
// fails on its own.
func (uc *SummaryUsecase) runFixedQueries(ctx context.Context, engine session.Engine) (summary, highlights entity.QueryResult) {
	queries := FixedQueries()
	results := make([]entity.QueryResult, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Go(func() {
			results[i] = uc.runQuery(ctx, engine, q)
		})
	}
	wg.Wait()

	return results[0], results[1]
}

func (uc *SummaryUsecase) runQuery(ctx context.Context, engine session.Engine, q FixedQuery) entity.QueryResult {
	result := entity.QueryResult{Kind: q.Kind, Query: q.Text}

	resp, err := engine.Query(ctx, q.Text)
	switch {
	case err != nil:
		ctxzap.Error(ctx, "query failed", zap.String("query", string(q.Kind)), zap.Error(err))
		result.Err = err
	case resp == nil || resp.Response == "":
		result.Err = entity.ErrEmptyResponse
	default:
		result.Response = resp
	}

	return result
}
