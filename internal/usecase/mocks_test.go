// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// mockSession is a scriptable channel session used by unit tests.
type mockSession struct {
	mu        sync.Mutex
	info      model.SessionInfo
	connected bool
	SendFunc  func(ctx context.Context, recipient, message string, typing time.Duration) (*adapter.SendResult, error)
	sends     []string // recipients in call order
}

func newMockSession(id string) *mockSession {
	return &mockSession{
		info: model.SessionInfo{
			SessionID:   id,
			Status:      model.SessionConnected,
			IsConnected: true,
			Metadata:    map[string]string{},
			CreatedAt:   time.Now(),
		},
		connected: true,
	}
}

func (m *mockSession) Send(ctx context.Context, recipient, message string, typing time.Duration) (*adapter.SendResult, error) {
	m.mu.Lock()
	m.sends = append(m.sends, recipient)
	fn := m.SendFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, recipient, message, typing)
	}
	return &adapter.SendResult{MessageID: "msg-" + recipient, Timestamp: time.Now()}, nil
}

func (m *mockSession) sentRecipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sends...)
}

func (m *mockSession) Info() model.SessionInfo { return m.info }
func (m *mockSession) Connected() bool         { return m.connected }

func (m *mockSession) UpdateConfig(metadata map[string]string, webhooks []model.Webhook) model.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if metadata != nil {
		m.info.Metadata = metadata
	}
	if webhooks != nil {
		m.info.Webhooks = webhooks
	}
	return m.info
}

func (m *mockSession) AddWebhook(url string, events []string) model.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info.Webhooks = append(m.info.Webhooks, model.Webhook{URL: url, Events: events})
	return m.info
}

func (m *mockSession) RemoveWebhook(url string) model.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.info.Webhooks[:0]
	for _, w := range m.info.Webhooks {
		if w.URL != url {
			kept = append(kept, w)
		}
	}
	m.info.Webhooks = kept
	return m.info
}

// mockManager is an in-memory channel manager.
type mockManager struct {
	mu       sync.Mutex
	sessions map[string]adapter.ChannelSession
}

func newMockManager(sessions ...*mockSession) *mockManager {
	m := &mockManager{sessions: make(map[string]adapter.ChannelSession)}
	for _, s := range sessions {
		m.sessions[s.info.SessionID] = s
	}
	return m
}

func (m *mockManager) CreateSession(_ context.Context, username, sessionID string) (adapter.ChannelSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", len(m.sessions)+1)
	}
	s := newMockSession(sessionID)
	s.info.Username = username
	m.sessions[sessionID] = s
	return s, nil
}

func (m *mockManager) GetSession(sessionID string) (adapter.ChannelSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

func (m *mockManager) ListSessions() []adapter.ChannelSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.ChannelSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *mockManager) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

// mockNotifier records webhook events.
type mockNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *mockNotifier) Notify(_ model.SessionInfo, event string, _ any) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *mockNotifier) recorded() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

// memUserRepo is a small in-memory user repository for auth tests.
type memUserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User // by username
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (m *memUserRepo) FindByAPIKey(_ context.Context, apiKey string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.APIKey == apiKey {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) Save(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.Username] = &cp
	return nil
}
