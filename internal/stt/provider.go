// Package stt defines the speech-to-text provider contract, the asynchronous
// job model, and the in-process job tracking used by the HTTP surface.
package stt

import "context"

// Provider is the interface that asynchronous STT backends must implement.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// IsAvailable checks if the provider is reachable.
	IsAvailable(ctx context.Context) bool

	// Submit sends audio for transcription and returns the provider-assigned
	// job id. Rejections are surfaced synchronously.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	// PollStatus reads the current state of a job. It performs a remote read
	// and has no side effects.
	PollStatus(ctx context.Context, jobID string) (*Job, error)

	// Cancel asks the provider to abandon a job. Best-effort: a job the
	// provider already finished is not an error.
	Cancel(ctx context.Context, jobID string) error
}
