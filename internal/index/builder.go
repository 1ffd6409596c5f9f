package index

import (
	"context"
	"fmt"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Builder constructs document summary indexes and wraps them as query engines.
type Builder struct {
	embedder    Embedder
	chunker     *SentenceChunker
	synthesizer *TreeSummarizer
	cfg         config.IndexConfig
	logger      *zap.Logger
}

func NewBuilder(embedder Embedder, llm LLM, cfg config.IndexConfig, logger *zap.Logger) *Builder {
	return &Builder{
		embedder:    embedder,
		chunker:     NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences),
		synthesizer: NewTreeSummarizer(llm, cfg.PromptBudget, cfg.MaxConcurrency),
		cfg:         cfg,
		logger:      logger,
	}
}

// Build chunks and embeds every document, summarizes each one with tree
// synthesis and embeds the summaries. Any provider failure fails the build.
func (b *Builder) Build(ctx context.Context, docs []entity.Document) (*QueryEngine, error) {
	ctx = logger.WithAction(ctx, "build_index")

	if len(docs) == 0 {
		return nil, entity.ErrNoDocuments
	}

	entries := make([]*docEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := b.buildEntry(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", doc.Metadata.FileName, err)
		}
		entries = append(entries, entry)
	}

	summaries := make([]string, len(entries))
	for i, e := range entries {
		summaries[i] = e.summary
	}

	vectors, err := b.embedder.Embed(ctx, summaries)
	if err != nil {
		return nil, fmt.Errorf("embed summaries: %w", err)
	}
	if len(vectors) != len(entries) {
		return nil, fmt.Errorf("%w: got %d summary vectors for %d documents", entity.ErrEmbeddingFailed, len(vectors), len(entries))
	}
	for i, e := range entries {
		e.summaryVector = vectors[i]
	}

	ctxzap.Info(ctx, "index built", zap.Int("documents", len(entries)))

	return newQueryEngine(entries, b.embedder, b.synthesizer, b.cfg), nil
}

func (b *Builder) buildEntry(ctx context.Context, doc entity.Document) (*docEntry, error) {
	chunks := b.chunker.Chunk(doc)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document has no text", entity.ErrNoDocuments)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", entity.ErrEmbeddingFailed, len(vectors), len(chunks))
	}

	summary, err := b.synthesizer.Summarize(ctx, summaryQuery, texts)
	if err != nil {
		return nil, fmt.Errorf("summarize document: %w", err)
	}

	ctxzap.Debug(ctx, "document indexed",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)),
	)

	entry := &docEntry{
		id:       doc.ID,
		metadata: doc.Metadata,
		summary:  summary,
		chunks:   make([]chunkEntry, len(chunks)),
	}
	for i := range chunks {
		entry.chunks[i] = chunkEntry{chunk: chunks[i], vector: vectors[i]}
	}

	return entry, nil
}
