// Package memstore holds the in-memory bulk job registry. Records live for
// the life of the process only; durability across restarts is out of scope.
package memstore

import (
	"sort"
	"sync"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/repository"
)

const defaultCapacity = 100

var _ repository.BulkJobStore = (*BulkJobStore)(nil)

type BulkJobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*model.BulkJob
	capacity int
}

func NewBulkJobStore(capacity int) *BulkJobStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &BulkJobStore{
		jobs:     make(map[string]*model.BulkJob),
		capacity: capacity,
	}
}

func (s *BulkJobStore) Create(sessionID string, total int) *model.BulkJob {
	j := model.NewBulkJob(model.NewJobID(), sessionID, total)
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return copyJob(j)
}

func (s *BulkJobStore) Find(jobID string) (*model.BulkJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyJob(j), nil
}

func (s *BulkJobStore) Update(jobID string, fn func(*model.BulkJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		// Pruned while its runner was still active; dropping the write is
		// the defined behavior.
		return false
	}
	fn(j)
	return true
}

func (s *BulkJobStore) ListBySession(sessionID string, limit int) []*model.BulkJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.BulkJob
	for _, j := range s.jobs {
		if j.SessionID == sessionID {
			out = append(out, copyJob(j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *BulkJobStore) CountActiveBySession(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, j := range s.jobs {
		if j.SessionID == sessionID && j.Status == model.JobStatusProcessing {
			n++
		}
	}
	return n
}

func (s *BulkJobStore) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) <= s.capacity {
		return
	}
	all := make([]*model.BulkJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, j)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].CreatedAt.After(all[k].CreatedAt) })
	for _, j := range all[s.capacity:] {
		// A record that is still processing keeps its slot so an active
		// runner can never lose its job mid-flight.
		if j.Status == model.JobStatusProcessing {
			continue
		}
		delete(s.jobs, j.ID)
	}
}

func (s *BulkJobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func copyJob(j *model.BulkJob) *model.BulkJob {
	cp := *j
	if j.Details != nil {
		cp.Details = append([]model.DeliveryDetail(nil), j.Details...)
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
