package story

import (
	"sync"
	"time"

	"github.com/fablesmith/storyforge/internal/common"
)

// JobStore is the in-memory job registry. It lives for the life of the
// process and is never persisted; jobs are lost on restart. There is no
// eviction, so it grows with every submission.
//
// Each job has a single writer (the pipeline run that owns it); the mutex
// only serializes map access and concurrent readers.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create inserts a fresh pending job for userID and returns its id.
func (s *JobStore) Create(userID uint64) (string, error) {
	id, err := common.NewULID()
	if err != nil {
		return "", err
	}
	now := time.Now()
	s.mu.Lock()
	s.jobs[id] = &Job{
		ID:        id,
		UserID:    userID,
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Unlock()
	return id, nil
}

// Get returns a snapshot of the job. The snapshot owns its page slice, so
// callers can decorate it without touching the stored record.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	snap := *j
	snap.Story = j.Story.clone()
	return snap, true
}

// MarkInProgress transitions a pending job. Absent ids are ignored.
func (s *JobStore) MarkInProgress(id string) {
	s.update(id, func(j *Job) {
		if j.Status == JobPending {
			j.Status = JobInProgress
		}
	})
}

// MarkCompleted attaches the result and ends the job. Absent ids are ignored.
func (s *JobStore) MarkCompleted(id string, result *Story) {
	s.update(id, func(j *Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = JobCompleted
		j.Story = result
		j.Error = ""
	})
}

// MarkFailed records the failure message and ends the job. Absent ids are
// ignored.
func (s *JobStore) MarkFailed(id string, msg string) {
	s.update(id, func(j *Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = JobFailed
		j.Error = msg
		j.Story = nil
	})
}

func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		// fire-and-forget semantics: updating a missing job is not an error
		return
	}
	fn(j)
	j.UpdatedAt = time.Now()
}
