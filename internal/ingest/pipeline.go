package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const pdfExtension = ".pdf"

// Parser turns one file into text.
type Parser interface {
	ParseFile(ctx context.Context, path string) (string, error)
}

// Pipeline converts the PDF files of a directory into Documents.
type Pipeline struct {
	parser             Parser
	credential         string
	requiresCredential bool
	logger             *zap.Logger
}

func NewPipeline(parser Parser, cfg config.ParserConfig, enableMocks bool, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		parser:             parser,
		credential:         cfg.APIKey,
		requiresCredential: !enableMocks && cfg.Mode == config.ParserModeLlamaParse,
		logger:             logger,
	}
}

// Ingest parses every PDF under dir in lexical order. The parsing credential is
// checked before any file is touched.
func (p *Pipeline) Ingest(ctx context.Context, dir string) ([]entity.Document, error) {
	ctx = logger.WithAction(ctx, "ingest")

	if p.requiresCredential && p.credential == "" {
		return nil, fmt.Errorf("%w: %s", entity.ErrMissingCredential, config.MissingCredentialMessage)
	}

	paths, err := findPDFs(dir)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no %s files in upload directory", entity.ErrNoDocuments, pdfExtension)
	}

	docs := make([]entity.Document, 0, len(paths))
	for _, path := range paths {
		meta, err := ExtractMetadata(path)
		if err != nil {
			return nil, err
		}

		text, err := p.parser.ParseFile(ctx, path)
		if err != nil {
			return nil, err
		}

		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: no text extracted from %s", entity.ErrParserFailed, meta.FileName)
		}

		docs = append(docs, entity.Document{
			ID:       uuid.NewString(),
			Metadata: meta,
			Text:     text,
		})
	}

	ctxzap.Info(ctx, "documents ingested", zap.Int("count", len(docs)))

	return docs, nil
}

// findPDFs lists PDF files under dir. WalkDir visits entries in lexical order.
func findPDFs(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), pdfExtension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrUploadNotFound, err)
	}

	return paths, nil
}
