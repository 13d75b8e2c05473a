package model

import "time"

type ConnectionStatus string

const (
	SessionInitializing ConnectionStatus = "initializing"
	SessionWaitingQR    ConnectionStatus = "waiting_qr"
	SessionConnected    ConnectionStatus = "connected"
	SessionDisconnected ConnectionStatus = "disconnected"
)

// Webhook is one outbound notification target registered on a session.
type Webhook struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

// SessionInfo is the externally visible state of one channel session.
type SessionInfo struct {
	SessionID   string            `json:"sessionId"`
	Status      ConnectionStatus  `json:"status"`
	IsConnected bool              `json:"isConnected"`
	PhoneNumber string            `json:"phoneNumber,omitempty"`
	Name        string            `json:"name,omitempty"`
	Username    string            `json:"username,omitempty"`
	Metadata    map[string]string `json:"metadata"`
	Webhooks    []Webhook         `json:"webhooks"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// WantsEvent reports whether the webhook subscribes to the given event kind.
// An empty list or the literal "all" subscribes to everything.
func (w Webhook) WantsEvent(event string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == "all" || e == event {
			return true
		}
	}
	return false
}
