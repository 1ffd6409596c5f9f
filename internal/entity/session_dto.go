package entity

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionDTO struct {
	ID           string    `json:"session_id"`
	Documents    []string  `json:"documents"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type ClearSessionResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"cached_documents"`
}

type DeleteSessionResponse struct {
	Status string `json:"status"`
}

type QueryResultDTO struct {
	Query    string       `json:"query"`
	Response string       `json:"response,omitempty"`
	Sources  []SourceNode `json:"sources,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type SummaryResponse struct {
	SessionID  string         `json:"session_id"`
	Filename   string         `json:"filename"`
	Cached     bool           `json:"cached"`
	Summary    QueryResultDTO `json:"summary"`
	Highlights QueryResultDTO `json:"highlights"`
	Preview    string         `json:"preview_html"`
}
