package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type chunkEntry struct {
	chunk  entity.Chunk
	vector []float32
}

type docEntry struct {
	id            string
	metadata      entity.DocumentMetadata
	summary       string
	summaryVector []float32
	chunks        []chunkEntry
}

// QueryEngine answers queries over a built index. It is read-only after
// construction and safe for concurrent use.
type QueryEngine struct {
	docs        []*docEntry
	embedder    Embedder
	synthesizer *TreeSummarizer
	topDocs     int
	topChunks   int
}

func newQueryEngine(docs []*docEntry, embedder Embedder, synthesizer *TreeSummarizer, cfg config.IndexConfig) *QueryEngine {
	return &QueryEngine{
		docs:        docs,
		embedder:    embedder,
		synthesizer: synthesizer,
		topDocs:     cfg.TopDocuments,
		topChunks:   cfg.TopChunks,
	}
}

// Documents returns metadata of the indexed documents in ingestion order.
func (e *QueryEngine) Documents() []entity.DocumentMetadata {
	out := make([]entity.DocumentMetadata, len(e.docs))
	for i, d := range e.docs {
		out[i] = d.metadata
	}
	return out
}

type scoredChunk struct {
	doc   *docEntry
	entry chunkEntry
	rank  int
	score float64
}

// Query selects the documents whose summaries best match the query, then
// synthesizes an answer from their chunks.
func (e *QueryEngine) Query(ctx context.Context, query string) (*entity.QueryResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", entity.ErrInvalidParameter)
	}

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for the query", entity.ErrEmbeddingFailed, len(vectors))
	}

	selected := e.retrieve(vectors[0])

	texts := make([]string, len(selected))
	sources := make([]entity.SourceNode, len(selected))
	for i, c := range selected {
		texts[i] = c.entry.chunk.Text
		sources[i] = entity.SourceNode{
			DocumentID:    c.doc.id,
			DocumentTitle: c.doc.metadata.Title,
			ChunkIndex:    c.entry.chunk.Index,
			Score:         c.score,
		}
	}

	ctxzap.Debug(ctx, "chunks retrieved", zap.Int("count", len(selected)))

	answer, err := e.synthesizer.Summarize(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	return &entity.QueryResponse{
		Response: answer,
		Sources:  sources,
	}, nil
}

// retrieve returns the chunks of the best matching documents, capped at
// topChunks by score and ordered as they appear in the documents.
func (e *QueryEngine) retrieve(query []float32) []scoredChunk {
	docScores := make([]float64, len(e.docs))
	for i, d := range e.docs {
		docScores[i] = dot(d.summaryVector, query)
	}

	order := rankDesc(docScores)
	if e.topDocs > 0 && len(order) > e.topDocs {
		order = order[:e.topDocs]
	}

	var chunks []scoredChunk
	for rank, i := range order {
		for _, c := range e.docs[i].chunks {
			chunks = append(chunks, scoredChunk{
				doc:   e.docs[i],
				entry: c,
				rank:  rank,
				score: dot(c.vector, query),
			})
		}
	}

	if e.topChunks > 0 && len(chunks) > e.topChunks {
		sort.SliceStable(chunks, func(a, b int) bool {
			return chunks[a].score > chunks[b].score
		})
		chunks = chunks[:e.topChunks]
	}

	sort.SliceStable(chunks, func(a, b int) bool {
		if chunks[a].rank != chunks[b].rank {
			return chunks[a].rank < chunks[b].rank
		}
		return chunks[a].entry.chunk.Index < chunks[b].entry.chunk.Index
	})

	return chunks
}
