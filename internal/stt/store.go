package stt

import (
	"sync"
	"time"

	"github.com/bomatic/bomatic-server/internal/errors"
)

// Store tracks submitted jobs in process memory for the HTTP surface.
// Each job belongs to the invocation that created it; the store only exists so
// status reads don't hit the provider on every request. State does not survive
// a restart — no durability is advertised.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a freshly submitted job in the pending state.
func (s *Store) Create(jobID string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:          jobID,
		Status:      StatusPending,
		SubmittedAt: time.Now(),
	}
	s.jobs[jobID] = job
	return job
}

// Get returns a copy of the tracked job, or JobNotFound.
func (s *Store) Get(jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.JobNotFound(jobID)
	}
	out := *job
	return &out, nil
}

// MarkProcessing moves a pending job forward. Illegal transitions are ignored:
// a terminal job keeps its recorded outcome.
func (s *Store) MarkProcessing(jobID string) {
	s.transition(jobID, StatusProcessing, "", "")
}

// Complete records the transcript and moves the job to completed.
func (s *Store) Complete(jobID, transcript string) {
	s.transition(jobID, StatusCompleted, transcript, "")
}

// Fail records the failure detail and moves the job to failed.
func (s *Store) Fail(jobID, detail string) {
	s.transition(jobID, StatusFailed, "", detail)
}

// Delete removes a tracked job. Returns JobNotFound for unknown ids.
func (s *Store) Delete(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; !ok {
		return errors.JobNotFound(jobID)
	}
	delete(s.jobs, jobID)
	return nil
}

// Len returns the number of tracked jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Store) transition(jobID string, next Status, transcript, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || !job.Status.CanTransition(next) {
		return
	}
	job.Status = next
	if next == StatusCompleted {
		job.Transcript = transcript
	}
	if next == StatusFailed {
		job.Error = detail
	}
}
