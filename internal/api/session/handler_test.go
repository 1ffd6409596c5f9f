package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/pkg/formatter"
	"github.com/futig/pdf-digest/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsecase struct {
	manager *session.Manager
	result  *entity.SummaryResult
	err     error
	uploads []*entity.Upload
}

func (f *fakeUsecase) CreateSession(context.Context) *session.Session {
	return f.manager.Create()
}

func (f *fakeUsecase) GetSession(_ context.Context, id string) (*session.Session, error) {
	return f.manager.Get(id)
}

func (f *fakeUsecase) ClearChat(_ context.Context, id string) (*session.Session, error) {
	s, err := f.manager.Get(id)
	if err != nil {
		return nil, err
	}
	s.ClearChat()
	return s, nil
}

func (f *fakeUsecase) DeleteSession(_ context.Context, id string) error {
	return f.manager.Delete(id)
}

func (f *fakeUsecase) Summarize(_ context.Context, id string, upload *entity.Upload) (*entity.SummaryResult, error) {
	f.uploads = append(f.uploads, upload)
	if _, err := f.manager.Get(id); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func okResult(sessionID string) *entity.SummaryResult {
	return &entity.SummaryResult{
		SessionID: sessionID,
		Filename:  "report.pdf",
		Summary: entity.QueryResult{
			Kind:     entity.QuerySummary,
			Query:    "summary query",
			Response: &entity.QueryResponse{Response: "The report covers Q3."},
		},
		Highlights: entity.QueryResult{
			Kind:     entity.QueryHighlights,
			Query:    "highlights query",
			Response: &entity.QueryResponse{Response: "- Revenue up 12%"},
		},
		Preview: `<iframe src="data:application/pdf;base64,JVBERi0="></iframe>`,
	}
}

func newTestRouter(t *testing.T, maxUpload int64) (http.Handler, *fakeUsecase) {
	t.Helper()

	manager := session.NewManager(config.SessionConfig{IdleTTL: time.Hour, CleanupInterval: time.Minute}, zap.NewNop())
	t.Cleanup(manager.Close)

	uc := &fakeUsecase{manager: manager}
	h := NewHandler(uc, formatter.NewFactory(), config.FileUploadConfig{MaxFileSize: maxUpload, MaxUploadSize: maxUpload})

	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r, uc
}

func multipartBody(t *testing.T, filename string, content []byte, format string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if format != "" {
		require.NoError(t, mw.WriteField("format", format))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, router http.Handler, sessionID, filename, format string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, filename, []byte("%PDF-1.4 test"), format)
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp entity.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) entity.ErrorResponse {
	t.Helper()

	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandler_SessionLifecycle(t *testing.T) {
	router, uc := newTestRouter(t, 1<<20)
	id := createSession(t, router)

	s, err := uc.manager.Get(id)
	require.NoError(t, err)
	s.Cache().Store(id, "report.pdf", nil)
	s.AddMessage(session.RoleUser, "report.pdf")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var dto entity.SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, id, dto.ID)
	assert.Equal(t, []string{"report.pdf"}, dto.Documents)
	assert.Equal(t, 1, dto.MessageCount)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared entity.ClearSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Equal(t, 1, cleared.Documents)
	assert.Empty(t, s.Messages())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session not found", decodeError(t, rec).Message)
}

func TestHandler_UploadDocument_JSON(t *testing.T) {
	router, uc := newTestRouter(t, 1<<20)
	id := createSession(t, router)
	uc.result = okResult(id)

	rec := upload(t, router, id, "report.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The report covers Q3.", resp.Summary.Response)
	assert.Equal(t, "- Revenue up 12%", resp.Highlights.Response)
	assert.Empty(t, resp.Summary.Error)
	assert.Contains(t, resp.Preview, "data:application/pdf;base64,")

	require.Len(t, uc.uploads, 1)
	assert.Equal(t, "report.pdf", uc.uploads[0].Filename)
	assert.Equal(t, []byte("%PDF-1.4 test"), uc.uploads[0].Content)
}

func TestHandler_UploadDocument_Markdown(t *testing.T) {
	router, uc := newTestRouter(t, 1<<20)
	id := createSession(t, router)
	uc.result = okResult(id)

	rec := upload(t, router, id, "report.pdf", "markdown")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report-summary.md"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "## Summary\n\nThe report covers Q3.")
}

func TestHandler_UploadDocument_ReportNameKeepsUploadStem(t *testing.T) {
	router, uc := newTestRouter(t, 1<<20)
	id := createSession(t, router)
	uc.result = okResult(id)
	uc.result.Filename = "Q3 Report.PDF"

	rec := upload(t, router, id, "Q3 Report.PDF", "markdown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Q3_Report-summary.md"`, rec.Header().Get("Content-Disposition"))
}

func TestHandler_UploadDocument_PartialFailure(t *testing.T) {
	router, uc := newTestRouter(t, 1<<20)
	id := createSession(t, router)

	result := okResult(id)
	result.Highlights = entity.QueryResult{Kind: entity.QueryHighlights, Query: "highlights query", Err: errors.New("rate limited")}
	uc.result = result
	uc.err = fmt.Errorf("%w: rate limited", entity.ErrQueryFailed)

	rec := upload(t, router, id, "report.pdf", "json")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The report covers Q3.", resp.Summary.Response)
	assert.Equal(t, "rate limited", resp.Highlights.Error)

	result.Summary = entity.QueryResult{Kind: entity.QuerySummary, Err: errors.New("rate limited")}
	rec = upload(t, router, id, "report.pdf", "json")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandler_UploadDocument_Errors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing credential",
			err:         fmt.Errorf("index document: %w", entity.ErrMissingCredential),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: config.MissingCredentialMessage,
		},
		{
			name:        "upload missing",
			err:         fmt.Errorf("index document: %w", entity.ErrUploadNotFound),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: uploadNotFoundMessage,
		},
		{
			name:       "invalid file",
			err:        fmt.Errorf("%w: not a PDF", entity.ErrInvalidFile),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "parser failure",
			err:        fmt.Errorf("index document: %w: job failed", entity.ErrParserFailed),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "no text",
			err:        entity.ErrNoDocuments,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, uc := newTestRouter(t, 1<<20)
			id := createSession(t, router)
			uc.err = tt.err

			rec := upload(t, router, id, "report.pdf", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decodeError(t, rec).Message)
			}
		})
	}
}

func TestHandler_UploadDocument_BadRequests(t *testing.T) {
	router, _ := newTestRouter(t, 1<<20)
	id := createSession(t, router)

	rec := upload(t, router, id, "report.pdf", "xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, router, id, "", "json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, router, "unknown", "report.pdf", "json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UploadDocument_TooLarge(t *testing.T) {
	router, _ := newTestRouter(t, 64)
	id := createSession(t, router)

	body, contentType := multipartBody(t, "report.pdf", bytes.Repeat([]byte("x"), 1024), "")
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
