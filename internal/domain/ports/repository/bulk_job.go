package repository

import "github.com/farinchan/chatery-whatsapp/internal/domain/model"

// BulkJobStore is the bounded in-memory registry of bulk job records.
// Implementations must serialize all access with a store-scoped lock so that
// readers never observe a partially updated record and pruning never races a
// concurrent mutation.
type BulkJobStore interface {
	// Create allocates a new record in the processing state and returns a copy.
	Create(sessionID string, total int) *model.BulkJob

	// Find returns a copy of the record, or domain.ErrNotFound when the
	// identifier is unknown or has been pruned.
	Find(jobID string) (*model.BulkJob, error)

	// Update applies fn to the live record under the store lock. It is the
	// sole mutation path and is a no-op when the record no longer exists;
	// the return value reports whether the record was found.
	Update(jobID string, fn func(*model.BulkJob)) bool

	// ListBySession returns copies of the session's records, newest first,
	// truncated to limit (limit <= 0 means no truncation).
	ListBySession(sessionID string, limit int) []*model.BulkJob

	// CountActiveBySession reports how many of the session's records are
	// still processing.
	CountActiveBySession(sessionID string) int

	// Prune drops the oldest completed records once the store holds more
	// than its capacity, keeping the newest records by creation time.
	// Records still processing are never pruned.
	Prune()

	// Len reports the current number of records.
	Len() int
}
