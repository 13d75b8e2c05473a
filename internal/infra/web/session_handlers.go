package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.List(r.Context())
	writeData(w, "", map[string]any{
		"total":    len(sessions),
		"sessions": sessions,
	})
}

type connectRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" && r.ContentLength > 0 {
		var req connectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		sessionID = req.SessionID
	}
	caller, _ := CallerFromContext(r.Context())
	info, err := s.sessions.Connect(r.Context(), caller.Username, sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "Session connected", info)
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessions.Status(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "", info)
}

type sessionConfigRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
	Webhooks []model.Webhook   `json:"webhooks,omitempty"`
}

func (s *Server) handleSessionConfig(w http.ResponseWriter, r *http.Request) {
	var req sessionConfigRequest
	if !decodeBody(w, r, &req) {
		return
	}
	info, err := s.sessions.UpdateConfig(r.Context(), chi.URLParam(r, "sessionId"), req.Metadata, req.Webhooks)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "Session config updated", info)
}

type webhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events,omitempty"`
}

func (s *Server) handleAddWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	info, err := s.sessions.AddWebhook(r.Context(), chi.URLParam(r, "sessionId"), req.URL, req.Events)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "Webhook added", info)
}

func (s *Server) handleRemoveWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	info, err := s.sessions.RemoveWebhook(r.Context(), chi.URLParam(r, "sessionId"), req.URL)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "Webhook removed", info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "Session deleted", map[string]any{"sessionId": sessionID})
}
