package stt

import "time"

// Status is the lifecycle state of a transcription job.
type Status string

const (
	// StatusPending means the job was accepted but processing has not started.
	StatusPending Status = "pending"
	// StatusProcessing means the provider is transcribing the audio.
	StatusProcessing Status = "processing"
	// StatusCompleted means the transcript is available.
	StatusCompleted Status = "completed"
	// StatusFailed means the provider reported a terminal error.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank orders statuses along the only legal path:
// pending -> processing -> {completed|failed}.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether a job may move from s to next.
// Transitions only go forward; terminal states are never re-entered.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Job is the internal representation of an asynchronous transcription job.
type Job struct {
	// ID is the provider-assigned job identifier.
	ID string `json:"id"`
	// Status is the current lifecycle state.
	Status Status `json:"status"`
	// SubmittedAt is when the job was accepted by the provider.
	SubmittedAt time.Time `json:"submitted_at"`
	// Transcript holds the result text. Set only when Status is completed.
	Transcript string `json:"transcript,omitempty"`
	// Error holds the provider's failure detail. Set only when Status is failed.
	Error string `json:"error,omitempty"`
}

// SubmitRequest holds parameters for submitting audio to the provider.
// Exactly one of AudioURL or FileContent must be set.
type SubmitRequest struct {
	// AudioURL points at audio hosted on external storage.
	AudioURL string `json:"audio_url,omitempty"`
	// FileName and FileContent carry a directly uploaded audio file.
	FileName    string `json:"file_name,omitempty"`
	FileContent []byte `json:"-"`
	// ContentType is the MIME type of the uploaded file. Empty means sniff
	// from the file extension.
	ContentType string `json:"content_type,omitempty"`
	// Language is the expected language of the audio (e.g. "ko").
	Language string `json:"language,omitempty"`
	// Diarization enables speaker separation.
	Diarization bool `json:"diarization"`
}
