package entity

import "errors"

// Domain errors
var (
	// Configuration errors
	ErrMissingCredential = errors.New("missing credential")

	// Upload errors
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid file extension")
	ErrUploadNotFound   = errors.New("could not find the uploaded file")
	ErrNoDocuments      = errors.New("no documents parsed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Upstream errors
	ErrParserFailed    = errors.New("document parsing failed")
	ErrEmbeddingFailed = errors.New("embedding failed")
	ErrLLMFailed       = errors.New("language model call failed")
	ErrEmptyResponse   = errors.New("empty response")
	ErrQueryFailed     = errors.New("query failed")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
