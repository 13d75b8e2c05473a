package model

import (
	"math"
	"time"

	"github.com/oklog/ulid/v2"
)

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
)

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryDetail records the outcome for a single recipient of a bulk job.
type DeliveryDetail struct {
	Recipient string         `json:"recipient"`
	Status    DeliveryStatus `json:"status"`
	MessageID string         `json:"messageId,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// BulkJob is the record for one bulk-send request. After creation it is
// mutated only by its own dispatch runner, through the store's Update.
type BulkJob struct {
	ID          string           `json:"jobId"`
	SessionID   string           `json:"sessionId"`
	Status      JobStatus        `json:"status"`
	Total       int              `json:"total"`
	Sent        int              `json:"sent"`
	Failed      int              `json:"failed"`
	Progress    int              `json:"progress"`
	Details     []DeliveryDetail `json:"details"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt"`
}

// NewBulkJob allocates a fresh record in the processing state.
func NewBulkJob(id, sessionID string, total int) *BulkJob {
	return &BulkJob{
		ID:        id,
		SessionID: sessionID,
		Status:    JobStatusProcessing,
		Total:     total,
		Details:   []DeliveryDetail{},
		CreatedAt: time.Now(),
	}
}

// NewJobID returns a URL-safe, lexically sortable job identifier built from a
// millisecond timestamp and 80 bits of entropy.
func NewJobID() string {
	return "bulk_" + ulid.Make().String()
}

// RecordSent appends a successful outcome and advances the counters.
func (j *BulkJob) RecordSent(recipient, messageID string) {
	j.Sent++
	j.Details = append(j.Details, DeliveryDetail{
		Recipient: recipient,
		Status:    DeliverySent,
		MessageID: messageID,
		Timestamp: time.Now(),
	})
	j.updateProgress()
}

// RecordFailed appends a failed outcome and advances the counters.
func (j *BulkJob) RecordFailed(recipient, reason string) {
	j.Failed++
	j.Details = append(j.Details, DeliveryDetail{
		Recipient: recipient,
		Status:    DeliveryFailed,
		Error:     reason,
		Timestamp: time.Now(),
	})
	j.updateProgress()
}

// Complete transitions the job to its terminal state. Calling it twice is a
// programming error; the first CompletedAt wins.
func (j *BulkJob) Complete() {
	if j.Status == JobStatusCompleted {
		return
	}
	j.Status = JobStatusCompleted
	now := time.Now()
	j.CompletedAt = &now
}

func (j *BulkJob) Processed() int { return j.Sent + j.Failed }

func (j *BulkJob) updateProgress() {
	if j.Total <= 0 {
		return
	}
	j.Progress = int(math.Round(float64(j.Processed()) / float64(j.Total) * 100))
}
