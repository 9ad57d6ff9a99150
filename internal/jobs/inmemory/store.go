package inmemory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dvloznov/smart-accountant/internal/jobs"
)

var _ jobs.JobStore = (*Store)(nil)

// Store keeps job state in memory. Everything is lost on restart.
type Store struct {
	mu   sync.RWMutex
	byID map[string]jobs.IngestTextJob
}

func NewStore() *Store {
	return &Store{byID: make(map[string]jobs.IngestTextJob)}
}

// snapshot returns a copy of job that shares no slices with the original.
func snapshot(job jobs.IngestTextJob) *jobs.IngestTextJob {
	job.TransactionIDs = slices.Clone(job.TransactionIDs)
	return &job
}

func (s *Store) SaveJob(_ context.Context, job *jobs.IngestTextJob) error {
	if job.JobID == "" {
		return errors.New("inmemory: job id is required")
	}

	s.mu.Lock()
	s.byID[job.JobID] = *snapshot(*job)
	s.mu.Unlock()
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (*jobs.IngestTextJob, error) {
	s.mu.RLock()
	job, ok := s.byID[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}
	return snapshot(job), nil
}

// ListJobs returns matching jobs newest first. Jobs created at the same
// instant are ordered by id so pages are stable.
func (s *Store) ListJobs(_ context.Context, filter jobs.JobFilter) ([]*jobs.IngestTextJob, error) {
	s.mu.RLock()
	matched := make([]*jobs.IngestTextJob, 0, len(s.byID))
	for _, job := range s.byID {
		if filter.Status == "" || job.Status == filter.Status {
			matched = append(matched, snapshot(job))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *jobs.IngestTextJob) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.JobID, b.JobID)
	})

	return paginate(matched, filter.Offset, filter.Limit), nil
}

func paginate(list []*jobs.IngestTextJob, offset, limit int) []*jobs.IngestTextJob {
	if offset > 0 {
		if offset >= len(list) {
			return []*jobs.IngestTextJob{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
