package session

import (
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/session"
)

// toSessionDTO converts a live session to SessionDTO
func toSessionDTO(s *session.Session) *entity.SessionDTO {
	return &entity.SessionDTO{
		ID:           s.ID,
		Documents:    s.Cache().Filenames(),
		MessageCount: len(s.Messages()),
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt(),
	}
}

func toSummaryResponse(result *entity.SummaryResult) *entity.SummaryResponse {
	return &entity.SummaryResponse{
		SessionID:  result.SessionID,
		Filename:   result.Filename,
		Cached:     result.Cached,
		Summary:    toQueryResultDTO(result.Summary),
		Highlights: toQueryResultDTO(result.Highlights),
		Preview:    result.Preview,
	}
}

func toQueryResultDTO(r entity.QueryResult) entity.QueryResultDTO {
	dto := entity.QueryResultDTO{Query: r.Query}
	switch {
	case r.Err != nil:
		dto.Error = r.Err.Error()
	case r.Response != nil:
		dto.Response = r.Response.Response
		dto.Sources = r.Response.Sources
	}
	return dto
}
