// Package webhook delivers session event notifications as JSON POSTs.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/infra/worker"
)

// Event is the envelope posted to subscribed webhook URLs.
type Event struct {
	Event     string    `json:"event"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Dispatcher fans session events out to the session's registered webhooks on
// the shared worker pool. Delivery is best-effort: a failed POST is logged
// and forgotten, and never feeds back into job state.
type Dispatcher struct {
	pool    *worker.Pool
	client  *http.Client
	timeout time.Duration
	log     *zerolog.Logger
}

func NewDispatcher(pool *worker.Pool, logger *zerolog.Logger) *Dispatcher {
	dispLog := logger.With().Str("component", "WebhookDispatcher").Logger()
	return &Dispatcher{
		pool:    pool,
		client:  &http.Client{Timeout: 10 * time.Second},
		timeout: 10 * time.Second,
		log:     &dispLog,
	}
}

func (d *Dispatcher) Notify(session model.SessionInfo, event string, payload any) {
	if len(session.Webhooks) == 0 {
		return
	}

	ev := Event{
		Event:     event,
		SessionID: session.SessionID,
		Timestamp: time.Now(),
		Data:      payload,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		d.log.Error().Err(err).Str("event", event).Msg("marshal webhook event")
		return
	}

	for _, hook := range session.Webhooks {
		if !hook.WantsEvent(event) {
			continue
		}
		url := hook.URL
		task := func(ctx context.Context) error {
			return d.post(ctx, url, body)
		}
		if err := d.pool.Submit(task); err != nil {
			d.log.Warn().Err(err).Str("url", url).Str("event", event).Msg("webhook delivery dropped")
		}
	}
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: status %d", url, resp.StatusCode)
	}
	return nil
}
