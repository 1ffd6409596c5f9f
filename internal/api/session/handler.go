package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/pkg/formatter"
	"github.com/futig/pdf-digest/internal/pkg/logger"
	"github.com/futig/pdf-digest/internal/pkg/response"
	"github.com/futig/pdf-digest/internal/usecase/summary"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	uploadFormField = "file"
	formatFormField = "format"

	uploadNotFoundMessage = "Could not find the file you uploaded, please check again..."
)

type Handler struct {
	usecase       SummaryUsecase
	formatters    *formatter.Factory
	maxUploadSize int64
}

func NewHandler(
	usecase SummaryUsecase,
	formatters *formatter.Factory,
	uploadCfg config.FileUploadConfig,
) *Handler {
	return &Handler{
		usecase:       usecase,
		formatters:    formatters,
		maxUploadSize: uploadCfg.MaxUploadSize,
	}
}

// CreateSession handles POST /sessions - Start new session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateSession")

	s := h.usecase.CreateSession(ctx)

	response.Created(w, entity.CreateSessionResponse{
		SessionID: s.ID,
		CreatedAt: s.CreatedAt,
	})
}

// GetSession handles GET /sessions/{session_id} - Session info and cached documents
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "GetSession"),
	)

	s, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, toSessionDTO(s))
}

// ClearChat handles POST /sessions/{session_id}/clear - Reset conversation state
func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "ClearChat"),
	)

	s, err := h.usecase.ClearChat(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.ClearSessionResponse{
		Status:    "cleared",
		Documents: s.Cache().Len(),
	})
}

// DeleteSession handles DELETE /sessions/{session_id} - Release session and its cache
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "DeleteSession"),
	)

	if err := h.usecase.DeleteSession(ctx, sessionID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.DeleteSessionResponse{Status: "deleted"})
}

// UploadDocument handles POST /sessions/{session_id}/documents - Summarize a PDF
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "UploadDocument"),
	)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(ctx, w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", maxErr.Limit), err)
			return
		}
		h.respondError(ctx, w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	format := entity.FormatJSON
	if v := strings.TrimSpace(r.FormValue(formatFormField)); v != "" {
		format = entity.ResultFormat(strings.ToLower(v))
	}
	if !format.IsValid() {
		h.respondError(ctx, w, http.StatusBadRequest, "format must be one of: json, markdown, docx, pdf",
			fmt.Errorf("%w: %s", entity.ErrInvalidFormat, format))
		return
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "a PDF must be sent in the 'file' field", err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read uploaded file", err)
		return
	}

	ctxzap.Info(ctx, "document uploaded",
		zap.String("filename", header.Filename),
		zap.Int("size", len(content)),
		zap.String("format", string(format)),
	)

	result, err := h.usecase.Summarize(ctx, sessionID, &entity.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})

	status := http.StatusOK
	if err != nil {
		if result == nil || !errors.Is(err, entity.ErrQueryFailed) {
			h.handleUsecaseError(ctx, w, err)
			return
		}
		ctxzap.Warn(ctx, "summary is incomplete", zap.Error(err))
		if result.Summary.Failed() && result.Highlights.Failed() {
			status = http.StatusBadGateway
		}
	}

	h.respondResult(ctx, w, status, format, result)
}

func (h *Handler) respondResult(ctx context.Context, w http.ResponseWriter, status int, format entity.ResultFormat, result *entity.SummaryResult) {
	if format == entity.FormatJSON {
		response.JSON(w, status, toSummaryResponse(result))
		return
	}

	fmtr, err := h.formatters.Create(format)
	if err != nil {
		h.respondError(ctx, w, http.StatusNotImplemented, "format not implemented", err)
		return
	}

	body, err := fmtr.Format(summary.Report(result))
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to format result", err)
		return
	}

	response.Attachment(w, status, fmtr.ContentType(), summary.ReportFilename(result.Filename, fmtr.FileExtension()), body)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, entity.ErrMissingCredential):
		h.respondError(ctx, w, http.StatusInternalServerError, config.MissingCredentialMessage, err)
	case errors.Is(err, entity.ErrInvalidExtension) || errors.Is(err, entity.ErrFileTooLarge) || errors.Is(err, entity.ErrInvalidFile):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file: "+err.Error(), err)
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrInvalidFormat) || errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter: "+err.Error(), err)
	case errors.Is(err, entity.ErrUploadNotFound):
		h.respondError(ctx, w, http.StatusInternalServerError, uploadNotFoundMessage, err)
	case errors.Is(err, entity.ErrNoDocuments):
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "no text could be extracted from the document", err)
	case errors.Is(err, entity.ErrParserFailed) || errors.Is(err, entity.ErrEmbeddingFailed) ||
		errors.Is(err, entity.ErrLLMFailed) || errors.Is(err, entity.ErrEmptyResponse) || errors.Is(err, entity.ErrQueryFailed):
		h.respondError(ctx, w, http.StatusBadGateway, "An error occurred: "+err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(ctx, w, http.StatusGatewayTimeout, "request timed out", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
