package stt

import (
	"context"
	"time"

	"github.com/bomatic/bomatic-server/internal/errors"
)

// PollConfig controls the fixed-interval poll loop.
type PollConfig struct {
	// Interval is the delay between status reads.
	Interval time.Duration `mapstructure:"poll_interval"`
	// Timeout is the wall-clock deadline for the job to reach a terminal state.
	Timeout time.Duration `mapstructure:"poll_timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *PollConfig) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
}

// AwaitCompletion polls the provider at a fixed interval until the job reaches
// a terminal state, the deadline expires, or ctx is canceled. The deadline is
// checked between attempts; once it expires no further provider calls are made
// and an STTTimeout error is returned. Cancellation is never attempted here.
func AwaitCompletion(ctx context.Context, p Provider, jobID string, cfg PollConfig) (*Job, error) {
	cfg.ApplyDefaults()
	deadline := time.Now().Add(cfg.Timeout)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		job, err := p.PollStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}

		if time.Now().Add(cfg.Interval).After(deadline) {
			return nil, errors.STTTimeout(jobID, cfg.Timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
