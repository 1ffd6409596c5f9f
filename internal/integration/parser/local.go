package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// LocalParser extracts text in-process, without the hosted parsing service.
// pdfcpu validates the file and reports its structure; the text layer is read
// page by page.
type LocalParser struct {
	logger *zap.Logger
}

func NewLocalParser(logger *zap.Logger) *LocalParser {
	return &LocalParser{
		logger: logger,
	}
}

// ParseFile returns the plain text of every page, separated by page markers.
func (p *LocalParser) ParseFile(ctx context.Context, path string) (string, error) {
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("file", filepath.Base(path))))

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read PDF context: %w", entity.ErrParserFailed, err)
	}

	if pdfCtx.Encrypt != nil {
		return "", fmt.Errorf("%w: encrypted PDFs are not supported", entity.ErrParserFailed)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrUploadNotFound, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", fmt.Errorf("%w: open PDF reader: %w", entity.ErrParserFailed, err)
	}

	var text strings.Builder
	pageCount := reader.NumPage()
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			ctxzap.Warn(ctx, "failed to extract page text", zap.Int("page", pageNum), zap.Error(err))
			continue
		}

		if strings.TrimSpace(pageText) == "" {
			continue
		}

		if text.Len() > 0 {
			fmt.Fprintf(&text, "\n\n--- Page %d ---\n\n", pageNum)
		}
		text.WriteString(pageText)
	}

	ctxzap.Info(ctx, "document parsed locally",
		zap.Int("page_count", pdfCtx.PageCount),
		zap.Int("text_length", text.Len()),
	)

	return text.String(), nil
}
