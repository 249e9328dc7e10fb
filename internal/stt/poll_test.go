package stt

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/logger"
)

func testLogger() *logger.Logger { return logger.NewDefault("stt-test") }

// fakeProvider scripts PollStatus replies for polling tests.
type fakeProvider struct {
	polls   atomic.Int32
	jobs    map[string][]*Job
	pollErr error
}

func (f *fakeProvider) Name() string                      { return "fake" }
func (f *fakeProvider) IsAvailable(context.Context) bool  { return true }
func (f *fakeProvider) Cancel(context.Context, string) error { return nil }

func (f *fakeProvider) Submit(context.Context, SubmitRequest) (string, error) {
	return "fake-job", nil
}

func (f *fakeProvider) PollStatus(_ context.Context, jobID string) (*Job, error) {
	n := int(f.polls.Add(1))
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	script := f.jobs[jobID]
	if n > len(script) {
		return script[len(script)-1], nil
	}
	return script[n-1], nil
}

func TestAwaitCompletion_CompletesAfterPolls(t *testing.T) {
	p := &fakeProvider{jobs: map[string][]*Job{
		"j1": {
			{ID: "j1", Status: StatusPending},
			{ID: "j1", Status: StatusProcessing},
			{ID: "j1", Status: StatusCompleted, Transcript: "done"},
		},
	}}

	job, err := AwaitCompletion(context.Background(), p, "j1", PollConfig{
		Interval: time.Millisecond,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("AwaitCompletion() error = %v", err)
	}
	if job.Status != StatusCompleted || job.Transcript != "done" {
		t.Errorf("job = %+v", job)
	}
	if got := p.polls.Load(); got != 3 {
		t.Errorf("polls = %d, want 3", got)
	}
}

func TestAwaitCompletion_ReturnsFailedJob(t *testing.T) {
	p := &fakeProvider{jobs: map[string][]*Job{
		"j1": {{ID: "j1", Status: StatusFailed, Error: "bad audio"}},
	}}

	job, err := AwaitCompletion(context.Background(), p, "j1", PollConfig{
		Interval: time.Millisecond,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("AwaitCompletion() error = %v", err)
	}
	if job.Status != StatusFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
}

func TestAwaitCompletion_Timeout(t *testing.T) {
	p := &fakeProvider{jobs: map[string][]*Job{
		"j1": {{ID: "j1", Status: StatusProcessing}},
	}}

	_, err := AwaitCompletion(context.Background(), p, "j1", PollConfig{
		Interval: time.Millisecond,
		Timeout:  20 * time.Millisecond,
	})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeSTTTimeout {
		t.Fatalf("error = %v, want %s", err, apperrors.ErrCodeSTTTimeout)
	}
	if !appErr.Retryable {
		t.Error("timeout should be retryable")
	}
}

func TestAwaitCompletion_ContextCancel(t *testing.T) {
	p := &fakeProvider{jobs: map[string][]*Job{
		"j1": {{ID: "j1", Status: StatusProcessing}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AwaitCompletion(ctx, p, "j1", PollConfig{
		Interval: time.Minute,
		Timeout:  time.Hour,
	})
	if err == nil {
		t.Fatal("expected error after context cancellation")
	}
}

func TestTracker_WatchMirrorsTerminalState(t *testing.T) {
	p := &fakeProvider{jobs: map[string][]*Job{
		"j1": {
			{ID: "j1", Status: StatusProcessing},
			{ID: "j1", Status: StatusCompleted, Transcript: "hello"},
		},
	}}
	store := NewStore()
	tr := NewTracker(p, store, PollConfig{Interval: time.Millisecond, Timeout: time.Second}, testLogger())

	tr.Watch("j1")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get("j1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if job.Status.Terminal() {
			if job.Status != StatusCompleted || job.Transcript != "hello" {
				t.Errorf("job = %+v", job)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
}

func TestTracker_WatchFailsOnDeadline(t *testing.T) {
	p := &fakeProvider{jobs: map[string][]*Job{
		"j1": {{ID: "j1", Status: StatusProcessing}},
	}}
	store := NewStore()
	tr := NewTracker(p, store, PollConfig{Interval: time.Millisecond, Timeout: 20 * time.Millisecond}, testLogger())

	tr.Watch("j1")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		job, _ := store.Get("j1")
		if job.Status == StatusFailed {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never marked failed after watch deadline")
}
