package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeParser struct {
	calls []string
	text  string
	err   error
}

func (f *fakeParser) ParseFile(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, filepath.Base(path))
	if f.err != nil {
		return "", f.err
	}
	return f.text + " " + filepath.Base(path), nil
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
}

func llamaParseConfig(key string) config.ParserConfig {
	return config.ParserConfig{Mode: config.ParserModeLlamaParse, APIKey: key}
}

func TestPipeline_Ingest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf")
	writeFile(t, dir, "a.PDF")
	writeFile(t, dir, "notes.txt")
	writeFile(t, dir, "nested/c.pdf")

	parser := &fakeParser{text: "parsed"}
	p := NewPipeline(parser, llamaParseConfig("key"), false, zap.NewNop())

	docs, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, []string{"a.PDF", "b.pdf", "c.pdf"}, parser.calls)
	assert.Equal(t, "a", docs[0].Metadata.Title)
	assert.Equal(t, "PDF", docs[0].Metadata.FileType)
	assert.Equal(t, "parsed a.PDF", docs[0].Text)
	assert.NotEmpty(t, docs[0].ID)
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
}

func TestPipeline_Ingest_MissingCredential(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report.pdf")

	parser := &fakeParser{text: "parsed"}
	p := NewPipeline(parser, llamaParseConfig(""), false, zap.NewNop())

	_, err := p.Ingest(context.Background(), dir)
	require.ErrorIs(t, err, entity.ErrMissingCredential)
	assert.Contains(t, err.Error(), config.CredentialEnv)
	assert.Empty(t, parser.calls)
}

func TestPipeline_Ingest_CredentialNotRequired(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.ParserConfig
		enableMocks bool
	}{
		{name: "mocks enabled", cfg: llamaParseConfig(""), enableMocks: true},
		{name: "local parser", cfg: config.ParserConfig{Mode: config.ParserModeLocal}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "report.pdf")

			p := NewPipeline(&fakeParser{text: "parsed"}, tt.cfg, tt.enableMocks, zap.NewNop())

			docs, err := p.Ingest(context.Background(), dir)
			require.NoError(t, err)
			assert.Len(t, docs, 1)
		})
	}
}

func TestPipeline_Ingest_NoDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt")

	p := NewPipeline(&fakeParser{text: "parsed"}, llamaParseConfig("key"), false, zap.NewNop())

	_, err := p.Ingest(context.Background(), dir)
	require.ErrorIs(t, err, entity.ErrNoDocuments)
}

func TestPipeline_Ingest_MissingDirectory(t *testing.T) {
	p := NewPipeline(&fakeParser{text: "parsed"}, llamaParseConfig("key"), false, zap.NewNop())

	_, err := p.Ingest(context.Background(), filepath.Join(t.TempDir(), "gone"))
	require.ErrorIs(t, err, entity.ErrUploadNotFound)
}

func TestPipeline_Ingest_ParserError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report.pdf")

	parseErr := errors.New("service unavailable")
	p := NewPipeline(&fakeParser{err: parseErr}, llamaParseConfig("key"), false, zap.NewNop())

	_, err := p.Ingest(context.Background(), dir)
	require.ErrorIs(t, err, parseErr)
}

func TestPipeline_Ingest_EmptyText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report.pdf")

	p := NewPipeline(emptyParser{}, llamaParseConfig("key"), false, zap.NewNop())

	_, err := p.Ingest(context.Background(), dir)
	require.ErrorIs(t, err, entity.ErrParserFailed)
}

type emptyParser struct{}

func (emptyParser) ParseFile(context.Context, string) (string, error) {
	return "  \n", nil
}
