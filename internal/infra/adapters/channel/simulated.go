// Package channel provides the built-in channel session implementations.
//
// The simulated adapter stands in for a real device link: it acknowledges
// sends after a configurable latency and is used in dev mode and in tests.
package channel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/adapter"
)

var _ adapter.ChannelSession = (*SimulatedSession)(nil)

// SimulatedSession acknowledges every send except recipients with the "fail"
// prefix, which report a simulated delivery failure. Typing and latency are
// honored so pacing behavior can be exercised end to end.
type SimulatedSession struct {
	mu      sync.Mutex
	info    model.SessionInfo
	latency time.Duration
}

func NewSimulatedSession(sessionID, username string, latency time.Duration) *SimulatedSession {
	return &SimulatedSession{
		info: model.SessionInfo{
			SessionID:   sessionID,
			Status:      model.SessionConnected,
			IsConnected: true,
			Username:    username,
			Metadata:    map[string]string{},
			Webhooks:    []model.Webhook{},
			CreatedAt:   time.Now(),
		},
		latency: latency,
	}
}

func (s *SimulatedSession) Send(ctx context.Context, recipient, message string, typing time.Duration) (*adapter.SendResult, error) {
	if !s.Connected() {
		return nil, domain.ErrSessionNotConnected
	}
	if recipient == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrInvalidArgument)
	}

	if typing > 0 {
		if err := sleepCtx(ctx, typing); err != nil {
			return nil, err
		}
	}
	if s.latency > 0 {
		if err := sleepCtx(ctx, s.latency); err != nil {
			return nil, err
		}
	}

	if strings.HasPrefix(recipient, "fail") {
		return nil, fmt.Errorf("number %s is not registered on the channel", recipient)
	}

	return &adapter.SendResult{
		MessageID: uuid.NewString(),
		Timestamp: time.Now(),
	}, nil
}

func (s *SimulatedSession) Info() model.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyInfo(s.info)
}

func (s *SimulatedSession) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.IsConnected
}

func (s *SimulatedSession) UpdateConfig(metadata map[string]string, webhooks []model.Webhook) model.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if metadata != nil {
		s.info.Metadata = metadata
	}
	if webhooks != nil {
		s.info.Webhooks = webhooks
	}
	return copyInfo(s.info)
}

func (s *SimulatedSession) AddWebhook(url string, events []string) model.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.info.Webhooks {
		if w.URL == url {
			s.info.Webhooks[i].Events = events
			return copyInfo(s.info)
		}
	}
	s.info.Webhooks = append(s.info.Webhooks, model.Webhook{URL: url, Events: events})
	return copyInfo(s.info)
}

func (s *SimulatedSession) RemoveWebhook(url string) model.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.info.Webhooks[:0]
	for _, w := range s.info.Webhooks {
		if w.URL != url {
			kept = append(kept, w)
		}
	}
	s.info.Webhooks = kept
	return copyInfo(s.info)
}

func (s *SimulatedSession) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.IsConnected = false
	s.info.Status = model.SessionDisconnected
}

func copyInfo(info model.SessionInfo) model.SessionInfo {
	cp := info
	cp.Metadata = make(map[string]string, len(info.Metadata))
	for k, v := range info.Metadata {
		cp.Metadata[k] = v
	}
	cp.Webhooks = append([]model.Webhook(nil), info.Webhooks...)
	return cp
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	tmr := time.NewTimer(d)
	defer tmr.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}
