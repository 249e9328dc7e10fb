package stt

import (
	"context"
	"time"

	"github.com/bomatic/bomatic-server/internal/logger"
)

// Tracker mirrors provider-side job state into the local Store so status
// reads served over HTTP don't call the provider. One watcher goroutine per
// submitted job; watchers share nothing with each other.
type Tracker struct {
	provider Provider
	store    *Store
	cfg      PollConfig
	log      *logger.Logger
}

// NewTracker creates a tracker over the given provider and store.
func NewTracker(provider Provider, store *Store, cfg PollConfig, log *logger.Logger) *Tracker {
	cfg.ApplyDefaults()
	return &Tracker{
		provider: provider,
		store:    store,
		cfg:      cfg,
		log:      log.WithComponent("stt-tracker"),
	}
}

// Watch registers the job and spawns a background watcher that polls the
// provider until the job is terminal or the poll deadline expires. The watcher
// is detached from the submitting request's lifetime on purpose: the job keeps
// progressing after the HTTP response is sent.
func (t *Tracker) Watch(jobID string) {
	t.store.Create(jobID)
	go t.watch(jobID)
}

func (t *Tracker) watch(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.Timeout+t.cfg.Interval)
	defer cancel()

	deadline := time.Now().Add(t.cfg.Timeout)
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		job, err := t.provider.PollStatus(ctx, jobID)
		if err != nil {
			t.log.Error("Job poll failed", logger.Fields(
				logger.FieldJobID, jobID,
				logger.FieldError, err.Error(),
			))
			t.store.Fail(jobID, err.Error())
			return
		}

		switch job.Status {
		case StatusProcessing:
			t.store.MarkProcessing(jobID)
		case StatusCompleted:
			t.store.Complete(jobID, job.Transcript)
			t.log.Info("Job completed", logger.Fields(logger.FieldJobID, jobID))
			return
		case StatusFailed:
			t.store.Fail(jobID, job.Error)
			t.log.Warn("Job failed", logger.Fields(
				logger.FieldJobID, jobID,
				logger.FieldError, job.Error,
			))
			return
		}

		if time.Now().Add(t.cfg.Interval).After(deadline) {
			t.store.Fail(jobID, "transcription did not complete before the poll deadline")
			t.log.Warn("Job poll deadline expired", logger.Fields(logger.FieldJobID, jobID))
			return
		}

		select {
		case <-ctx.Done():
			t.store.Fail(jobID, ctx.Err().Error())
			return
		case <-ticker.C:
		}
	}
}
