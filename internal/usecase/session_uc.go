// File: internal/usecase/session_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionUseCase exposes the channel session registry and single sends.
type SessionUseCase interface {
	List(ctx context.Context) []model.SessionInfo
	Connect(ctx context.Context, username, sessionID string) (model.SessionInfo, error)
	Status(ctx context.Context, sessionID string) (model.SessionInfo, error)
	UpdateConfig(ctx context.Context, sessionID string, metadata map[string]string, webhooks []model.Webhook) (model.SessionInfo, error)
	AddWebhook(ctx context.Context, sessionID, url string, events []string) (model.SessionInfo, error)
	RemoveWebhook(ctx context.Context, sessionID, url string) (model.SessionInfo, error)
	Delete(ctx context.Context, sessionID string) error
	SendMessage(ctx context.Context, sessionID, chatID, message string, typing time.Duration) (*adapter.SendResult, error)
}

type sessionUC struct {
	channels adapter.ChannelManager
	events   EventNotifier
	log      *zerolog.Logger
}

func NewSessionUseCase(channels adapter.ChannelManager, events EventNotifier, logger *zerolog.Logger) *sessionUC {
	ucLog := logger.With().Str("component", "SessionUC").Logger()
	return &sessionUC{channels: channels, events: events, log: &ucLog}
}

func (uc *sessionUC) List(_ context.Context) []model.SessionInfo {
	sessions := uc.channels.ListSessions()
	out := make([]model.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}

func (uc *sessionUC) Connect(ctx context.Context, username, sessionID string) (model.SessionInfo, error) {
	s, err := uc.channels.CreateSession(ctx, username, sessionID)
	if err != nil {
		return model.SessionInfo{}, err
	}
	info := s.Info()
	uc.log.Info().Str("session_id", info.SessionID).Str("username", username).Msg("session connect requested")
	return info, nil
}

func (uc *sessionUC) Status(_ context.Context, sessionID string) (model.SessionInfo, error) {
	s, ok := uc.channels.GetSession(sessionID)
	if !ok {
		return model.SessionInfo{}, domain.ErrSessionNotFound
	}
	return s.Info(), nil
}

func (uc *sessionUC) UpdateConfig(_ context.Context, sessionID string, metadata map[string]string, webhooks []model.Webhook) (model.SessionInfo, error) {
	s, ok := uc.channels.GetSession(sessionID)
	if !ok {
		return model.SessionInfo{}, domain.ErrSessionNotFound
	}
	return s.UpdateConfig(metadata, webhooks), nil
}

func (uc *sessionUC) AddWebhook(_ context.Context, sessionID, url string, events []string) (model.SessionInfo, error) {
	if url == "" {
		return model.SessionInfo{}, domain.ErrInvalidArgument
	}
	s, ok := uc.channels.GetSession(sessionID)
	if !ok {
		return model.SessionInfo{}, domain.ErrSessionNotFound
	}
	if len(events) == 0 {
		events = []string{"all"}
	}
	return s.AddWebhook(url, events), nil
}

func (uc *sessionUC) RemoveWebhook(_ context.Context, sessionID, url string) (model.SessionInfo, error) {
	if url == "" {
		return model.SessionInfo{}, domain.ErrInvalidArgument
	}
	s, ok := uc.channels.GetSession(sessionID)
	if !ok {
		return model.SessionInfo{}, domain.ErrSessionNotFound
	}
	return s.RemoveWebhook(url), nil
}

func (uc *sessionUC) Delete(ctx context.Context, sessionID string) error {
	return uc.channels.DeleteSession(ctx, sessionID)
}

// SendMessage delivers one message on a connected session.
func (uc *sessionUC) SendMessage(ctx context.Context, sessionID, chatID, message string, typing time.Duration) (*adapter.SendResult, error) {
	if chatID == "" || message == "" {
		return nil, domain.ErrInvalidArgument
	}
	s, ok := uc.channels.GetSession(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !s.Connected() {
		return nil, domain.ErrSessionNotConnected
	}

	res, err := s.Send(ctx, chatID, message, typing)
	if err != nil {
		return nil, err
	}
	if uc.events != nil {
		uc.events.Notify(s.Info(), "message.sent", map[string]any{
			"chatId":    chatID,
			"messageId": res.MessageID,
			"timestamp": res.Timestamp,
		})
	}
	return res, nil
}
