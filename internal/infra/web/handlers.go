package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farinchan/chatery-whatsapp/internal/usecase"
)

// ===== Auth =====

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	token, err := s.auth.Tokens().Mint(user.Username, user.Role)
	if err != nil {
		s.log.Error().Err(err).Str("username", user.Username).Msg("token mint failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, "Login successful", map[string]any{
		"token":    token,
		"username": user.Username,
		"role":     user.Role,
	})
}

// ===== Chats =====

type sendRequest struct {
	SessionID  string `json:"sessionId"`
	ChatID     string `json:"chatId"`
	Message    string `json:"message"`
	TypingTime *int   `json:"typingTime,omitempty"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	typing := s.typingDelay(req.TypingTime)
	res, err := s.sessions.SendMessage(r.Context(), req.SessionID, req.ChatID, req.Message, typing)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "Message sent successfully", map[string]any{
		"messageId": res.MessageID,
		"chatId":    req.ChatID,
		"timestamp": res.Timestamp.UTC().Format(time.RFC3339),
	})
}

type sendBulkRequest struct {
	SessionID            string   `json:"sessionId"`
	Recipients           []string `json:"recipients"`
	Message              string   `json:"message"`
	DelayBetweenMessages *int     `json:"delayBetweenMessages,omitempty"`
	TypingTime           *int     `json:"typingTime,omitempty"`
}

func (s *Server) handleSendBulk(w http.ResponseWriter, r *http.Request) {
	var req sendBulkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.bulk.Submit(r.Context(), usecase.SubmitBulkParams{
		SessionID:   req.SessionID,
		Recipients:  req.Recipients,
		Message:     req.Message,
		PacingDelay: s.pacingDelay(req.DelayBetweenMessages),
		TypingDelay: s.typingDelay(req.TypingTime),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "Bulk send started", map[string]any{
		"jobId":     res.JobID,
		"total":     res.Total,
		"statusUrl": s.basePath + "/chats/bulk-status/" + res.JobID,
	})
}

func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job, err := s.bulk.Status(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "", job)
}

type bulkJobsRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleBulkJobs(w http.ResponseWriter, r *http.Request) {
	var req bulkJobsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	jobs, err := s.bulk.ListBySession(r.Context(), req.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, "", map[string]any{
		"total": len(jobs),
		"jobs":  jobs,
	})
}

// pacingDelay resolves the request's delay, falling back to the
// configured default when the field is absent. An explicit zero is
// honored as-is.
func (s *Server) pacingDelay(ms *int) time.Duration {
	if ms == nil {
		return time.Duration(s.bulkCfg.DefaultPacingMs) * time.Millisecond
	}
	if *ms < 0 {
		return 0
	}
	return time.Duration(*ms) * time.Millisecond
}

func (s *Server) typingDelay(ms *int) time.Duration {
	if ms == nil {
		return time.Duration(s.bulkCfg.DefaultTypingMs) * time.Millisecond
	}
	if *ms < 0 {
		return 0
	}
	return time.Duration(*ms) * time.Millisecond
}
