package entity

import "time"

// DocumentMetadata describes the file a Document was parsed from.
type DocumentMetadata struct {
	Title            string    `json:"title"`
	FilePath         string    `json:"file_path"`
	FileName         string    `json:"file_name"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	CreationDate     time.Time `json:"creation_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
	LastAccessedDate time.Time `json:"last_accessed_date"`
}

// Document is one unit of parsed content. It is not modified after ingestion.
type Document struct {
	ID       string           `json:"id"`
	Metadata DocumentMetadata `json:"metadata"`
	Text     string           `json:"text"`
}

// Chunk is a retrieval unit cut from a Document.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
}

// SourceNode references a chunk that contributed to a response.
type SourceNode struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
	Score         float64 `json:"score"`
}

// QueryResponse is the synthesized answer of a query engine.
type QueryResponse struct {
	Response string       `json:"response"`
	Sources  []SourceNode `json:"sources,omitempty"`
}

type QueryKind string

const (
	QuerySummary    QueryKind = "summary"
	QueryHighlights QueryKind = "highlights"
)

// QueryResult is the outcome of one fixed query. Err is set when the query failed.
type QueryResult struct {
	Kind     QueryKind
	Query    string
	Response *QueryResponse
	Err      error
}

// Failed reports whether the query produced no usable response.
func (r *QueryResult) Failed() bool {
	return r == nil || r.Err != nil || r.Response == nil
}

// SummaryResult is everything rendered for one upload.
type SummaryResult struct {
	SessionID  string
	Filename   string
	Cached     bool
	Summary    QueryResult
	Highlights QueryResult
	Preview    string
}

// Upload is a single uploaded file.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}
