// File: internal/usecase/bulk_uc.go
package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/adapter"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/repository"
	"github.com/farinchan/chatery-whatsapp/internal/infra/logging"
	"github.com/farinchan/chatery-whatsapp/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ BulkUseCase = (*bulkUC)(nil)

// BulkUseCase accepts bulk send submissions, returns immediately with a job
// identifier and drives the sends in the background, one recipient at a time.
type BulkUseCase interface {
	Submit(ctx context.Context, p SubmitBulkParams) (*SubmitBulkResult, error)
	Status(ctx context.Context, jobID string) (*model.BulkJob, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.BulkJob, error)
}

type SubmitBulkParams struct {
	SessionID   string
	Recipients  []string
	Message     string
	PacingDelay time.Duration
	TypingDelay time.Duration
}

type SubmitBulkResult struct {
	JobID string
	Total int
}

// EventNotifier publishes job lifecycle events to the session's webhooks.
// Implementations are best-effort and must never block the caller for long.
type EventNotifier interface {
	Notify(session model.SessionInfo, event string, payload any)
}

type BulkOptions struct {
	MaxRecipients     int
	ListLimit         int
	MaxActiveJobs     int     // per session
	SessionRatePerSec float64 // 0 disables the shared limiter
}

type bulkUC struct {
	store    repository.BulkJobStore
	channels adapter.ChannelManager
	events   EventNotifier
	opts     BulkOptions
	log      *zerolog.Logger

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewBulkUseCase(
	store repository.BulkJobStore,
	channels adapter.ChannelManager,
	events EventNotifier,
	opts BulkOptions,
	logger *zerolog.Logger,
) *bulkUC {
	if opts.MaxRecipients <= 0 {
		opts.MaxRecipients = 100
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = 50
	}
	if opts.MaxActiveJobs <= 0 {
		opts.MaxActiveJobs = 5
	}
	ucLog := logger.With().Str("component", "BulkUC").Logger()
	return &bulkUC{
		store:    store,
		channels: channels,
		events:   events,
		opts:     opts,
		log:      &ucLog,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Submit validates the request, creates the job record and hands the
// recipient list to a background runner. It returns before any send happens.
func (uc *bulkUC) Submit(ctx context.Context, p SubmitBulkParams) (*SubmitBulkResult, error) {
	defer logging.TraceDuration(uc.log, "BulkUC.Submit")()
	if len(p.Recipients) == 0 {
		return nil, fmt.Errorf("%w: recipients are required", domain.ErrInvalidArgument)
	}
	if p.Message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidArgument)
	}
	if len(p.Recipients) > uc.opts.MaxRecipients {
		return nil, fmt.Errorf("%w: maximum %d recipients per request", domain.ErrTooManyRecipients, uc.opts.MaxRecipients)
	}

	session, ok := uc.channels.GetSession(p.SessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !session.Connected() {
		return nil, domain.ErrSessionNotConnected
	}
	if uc.store.CountActiveBySession(p.SessionID) >= uc.opts.MaxActiveJobs {
		return nil, fmt.Errorf("%w: limit is %d", domain.ErrTooManyActiveJobs, uc.opts.MaxActiveJobs)
	}

	job := uc.store.Create(p.SessionID, len(p.Recipients))
	metrics.IncBulkJobStarted()
	metrics.SetBulkStoreSize(uc.store.Len())

	// Recipients are copied so the runner never aliases request memory.
	recipients := append([]string(nil), p.Recipients...)
	go uc.run(session, job.ID, recipients, p.Message, p.TypingDelay, p.PacingDelay)

	uc.log.Info().
		Str("job_id", job.ID).
		Str("session_id", p.SessionID).
		Int("total", len(recipients)).
		Dur("pacing", p.PacingDelay).
		Msg("bulk job started")

	return &SubmitBulkResult{JobID: job.ID, Total: len(recipients)}, nil
}

func (uc *bulkUC) Status(_ context.Context, jobID string) (*model.BulkJob, error) {
	return uc.store.Find(jobID)
}

func (uc *bulkUC) ListBySession(_ context.Context, sessionID string) ([]*model.BulkJob, error) {
	return uc.store.ListBySession(sessionID, uc.opts.ListLimit), nil
}

// run is the dispatch runner: one goroutine per job, strictly sequential over
// the recipients so externally imposed rate limits are respected. It is
// detached from the submitting request and carries its own error boundary.
func (uc *bulkUC) run(session adapter.ChannelSession, jobID string, recipients []string, message string, typing, pacing time.Duration) {
	ctx := context.Background()
	start := time.Now()
	log := uc.log.With().Str("job_id", jobID).Logger()
	next := 0

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Any("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("panic in dispatch runner")
			// Whatever was not processed counts as failed; the job still
			// terminates in the completed state.
			uc.store.Update(jobID, func(j *model.BulkJob) {
				for _, rec := range recipients[next:] {
					j.RecordFailed(rec, "internal error in dispatch runner")
				}
				j.Complete()
			})
			uc.finish(session, jobID, start, &log)
		}
	}()

	limiter := uc.sessionLimiter(session.Info().SessionID)

	for i, recipient := range recipients {
		if limiter != nil {
			_ = limiter.Wait(ctx)
		}

		sendStart := time.Now()
		res, err := session.Send(ctx, recipient, message, typing)
		metrics.ObserveSendLatency(time.Since(sendStart))

		if err != nil || res == nil {
			reason := "send failed"
			if err != nil {
				reason = err.Error()
			}
			metrics.IncBulkSend("failed")
			uc.store.Update(jobID, func(j *model.BulkJob) { j.RecordFailed(recipient, reason) })
			log.Debug().Str("recipient", recipient).Str("reason", reason).Msg("bulk send failed")
		} else {
			metrics.IncBulkSend("sent")
			uc.store.Update(jobID, func(j *model.BulkJob) { j.RecordSent(recipient, res.MessageID) })
		}
		next = i + 1

		if i < len(recipients)-1 && pacing > 0 {
			time.Sleep(pacing)
		}
	}

	uc.store.Update(jobID, func(j *model.BulkJob) { j.Complete() })
	uc.finish(session, jobID, start, &log)
}

// finish records completion metrics, prunes the store and notifies webhooks.
func (uc *bulkUC) finish(session adapter.ChannelSession, jobID string, start time.Time, log *zerolog.Logger) {
	metrics.IncBulkJobCompleted()
	uc.store.Prune()
	metrics.SetBulkStoreSize(uc.store.Len())

	job, err := uc.store.Find(jobID)
	if err != nil {
		log.Warn().Msg("bulk job record gone after completion")
		return
	}

	if uc.events != nil {
		uc.events.Notify(session.Info(), "bulk.completed", job)
	}

	ev := log.Info()
	if job.Failed > 0 {
		ev = log.Warn()
	}
	ev.Int("sent", job.Sent).
		Int("failed", job.Failed).
		Int("total", job.Total).
		Dur("took", time.Since(start)).
		Msg("bulk job completed")
}

// sessionLimiter returns the shared outbound limiter for one session, so
// concurrent jobs against the same session cannot multiply its send rate.
func (uc *bulkUC) sessionLimiter(sessionID string) *rate.Limiter {
	if uc.opts.SessionRatePerSec <= 0 {
		return nil
	}
	uc.limMu.Lock()
	defer uc.limMu.Unlock()
	lim, ok := uc.limiters[sessionID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(uc.opts.SessionRatePerSec), 1)
		uc.limiters[sessionID] = lim
	}
	return lim
}
