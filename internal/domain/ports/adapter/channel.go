package adapter

import (
	"context"
	"time"

	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
)

// SendResult carries the channel's acknowledgement for one delivered message.
type SendResult struct {
	MessageID string
	Timestamp time.Time
}

// ChannelSession is the send capability of one connected channel session.
// Send blocks until the channel acknowledges or faults; typing simulates the
// composing indicator before delivery when greater than zero.
type ChannelSession interface {
	Send(ctx context.Context, recipient, message string, typing time.Duration) (*SendResult, error)
	Info() model.SessionInfo
	Connected() bool
	UpdateConfig(metadata map[string]string, webhooks []model.Webhook) model.SessionInfo
	AddWebhook(url string, events []string) model.SessionInfo
	RemoveWebhook(url string) model.SessionInfo
}

// ChannelManager owns the registry of channel sessions.
type ChannelManager interface {
	CreateSession(ctx context.Context, username, sessionID string) (ChannelSession, error)
	GetSession(sessionID string) (ChannelSession, bool)
	ListSessions() []ChannelSession
	DeleteSession(ctx context.Context, sessionID string) error
}
