// internal/httpserver/routes_chat.go
//
// Polling chat under /api/chat. Reading is public; writing needs an account.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/epiwordle/internal/chat"
)

func (s *Server) mountChat(r chi.Router) {
	r.Get("/messages", s.handleMessages)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/send", s.handleSend)
		r.Post("/clear", s.handleClear)
		r.Delete("/delete/{id}", s.handleDeleteMessage)
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Chat.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	u, _ := currentUser(r)
	msg, err := s.deps.Chat.Send(r.Context(), u.Username, body.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": msg})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	if err := s.deps.Chat.Clear(r.Context(), u.Username); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)
	if err := s.deps.Chat.Delete(r.Context(), chi.URLParam(r, "id"), u.Username); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
