package handlers

import (
	"context"
	"errors"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
	SeverityCritical
)

// String returns string representation of error severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

// classifyHandlerError analyzes an error and returns a HandlerError with appropriate severity and messages
func classifyHandlerError(err error) *HandlerError {
	if err == nil {
		return &HandlerError{
			UserMessage: render.ErrGeneric,
			LogMessage:  "unknown error",
			Severity:    SeverityWarning,
		}
	}

	handlerErr := &HandlerError{
		Err:         err,
		UserMessage: render.ClassifyError(err),
	}

	switch {
	case errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrInvalidFile),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrNoDocuments),
		errors.Is(err, entity.ErrSessionNotFound):
		handlerErr.LogMessage = "rejected upload"
		handlerErr.Severity = SeverityWarning
	case errors.Is(err, entity.ErrMissingCredential):
		handlerErr.LogMessage = "parsing credential is not configured"
		handlerErr.Severity = SeverityCritical
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		handlerErr.LogMessage = "operation timed out"
		handlerErr.Severity = SeverityError
	default:
		handlerErr.LogMessage = "handler error"
		handlerErr.Severity = SeverityError
	}

	return handlerErr
}

// HandleError provides centralized error handling for all handlers
// It logs the error with appropriate severity and sends a user-friendly message
func (h *BaseHandler) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	handlerErr := classifyHandlerError(err)

	fields := []zap.Field{
		zap.Error(handlerErr.Err),
		zap.Int64("chat_id", chatID),
		zap.String("severity", handlerErr.Severity.String()),
	}

	switch handlerErr.Severity {
	case SeverityCritical, SeverityError:
		ctxzap.Error(ctx, handlerErr.LogMessage, fields...)
	case SeverityWarning:
		ctxzap.Warn(ctx, handlerErr.LogMessage, fields...)
	}

	h.sendMessage(chatID, handlerErr.UserMessage, nil)
}
