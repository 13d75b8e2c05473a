package channel

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/adapter"
)

var _ adapter.ChannelManager = (*Manager)(nil)

// Manager keeps the in-process session registry. Creating a session with an
// identifier that already exists returns the existing session, matching the
// reconnect semantics of the gateway.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*SimulatedSession
	latency  time.Duration
	log      *zerolog.Logger
}

func NewManager(latency time.Duration, logger *zerolog.Logger) *Manager {
	mgrLog := logger.With().Str("component", "ChannelManager").Logger()
	return &Manager{
		sessions: make(map[string]*SimulatedSession),
		latency:  latency,
		log:      &mgrLog,
	}
}

func (m *Manager) CreateSession(_ context.Context, username, sessionID string) (adapter.ChannelSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if s, ok := m.sessions[sessionID]; ok {
		return s, nil
	}
	s := NewSimulatedSession(sessionID, username, m.latency)
	m.sessions[sessionID] = s
	m.log.Info().Str("session_id", sessionID).Str("username", username).Msg("session created")
	return s, nil
}

func (m *Manager) GetSession(sessionID string) (adapter.ChannelSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return s, true
}

func (m *Manager) ListSessions() []adapter.ChannelSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.ChannelSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.disconnect()
	delete(m.sessions, sessionID)
	m.log.Info().Str("session_id", sessionID).Msg("session deleted")
	return nil
}
