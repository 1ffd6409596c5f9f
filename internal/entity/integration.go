package entity

// Parsing job states reported by the parsing service.
const (
	ParseJobPending  = "PENDING"
	ParseJobSuccess  = "SUCCESS"
	ParseJobError    = "ERROR"
	ParseJobCanceled = "CANCELED"
)

type ParseJob struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type ParseResult struct {
	Markdown string `json:"markdown"`
}

type EmbeddingRequest struct {
	Inputs  []string       `json:"inputs"`
	Options map[string]any `json:"options,omitempty"`
}
