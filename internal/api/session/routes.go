package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{session_id}", h.GetSession)
		r.Delete("/{session_id}", h.DeleteSession)
		r.Post("/{session_id}/documents", h.UploadDocument)
		r.Post("/{session_id}/clear", h.ClearChat)
	})
}
