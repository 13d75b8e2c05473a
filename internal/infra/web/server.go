package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/farinchan/chatery-whatsapp/internal/config"
	"github.com/farinchan/chatery-whatsapp/internal/infra/logging"
	"github.com/farinchan/chatery-whatsapp/internal/usecase"
)

// Server wires the gateway API onto a chi router.
type Server struct {
	sessions usecase.SessionUseCase
	bulk     usecase.BulkUseCase
	users    usecase.UserUseCase
	auth     *Authenticator
	basePath string
	bulkCfg  config.BulkConfig
	log      *zerolog.Logger
}

func NewServer(
	sessions usecase.SessionUseCase,
	bulk usecase.BulkUseCase,
	users usecase.UserUseCase,
	auth *Authenticator,
	basePath string,
	bulkCfg config.BulkConfig,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "Web").Logger()
	if basePath == "" {
		basePath = "/api/whatsapp"
	}
	return &Server{
		sessions: sessions,
		bulk:     bulk,
		users:    users,
		auth:     auth,
		basePath: basePath,
		bulkCfg:  bulkCfg,
		log:      &srvLog,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.traceID)
	r.Use(s.requestLog)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route(s.basePath, func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions/connect", s.handleConnect)
			r.Post("/sessions/{sessionId}/connect", s.handleConnect)
			r.Get("/sessions/{sessionId}/status", s.handleSessionStatus)
			r.Patch("/sessions/{sessionId}/config", s.handleSessionConfig)
			r.Post("/sessions/{sessionId}/webhooks", s.handleAddWebhook)
			r.Delete("/sessions/{sessionId}/webhooks", s.handleRemoveWebhook)
			r.With(s.auth.RequireAdmin).Delete("/sessions/{sessionId}", s.handleDeleteSession)

			r.Post("/chats/send", s.handleSend)
			r.Post("/chats/send-bulk", s.handleSendBulk)
			r.Get("/chats/bulk-status/{jobId}", s.handleBulkStatus)
			r.Post("/chats/bulk-jobs", s.handleBulkJobs)
		})
	})

	return r
}

func (s *Server) traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logging.With(r.Context(), s.log)
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}
