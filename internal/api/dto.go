// Package api registers the versioned HTTP routes and their handlers.
package api

import "github.com/bomatic/bomatic-server/internal/analysis"

// STTStartRequest starts a transcription from a remote audio URL.
type STTStartRequest struct {
	AudioURL    string `json:"audio_url" validate:"required,url"`
	Language    string `json:"language"`
	Diarization bool   `json:"diarization"`
}

// STTStartResponse acknowledges an accepted transcription job.
type STTStartResponse struct {
	JobID string `json:"job_id"`
}

// STTStatusResponse reports the state of a tracked job.
type STTStatusResponse struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Transcript string `json:"transcript,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AnalyzeRequest asks for a structured analysis of a transcript.
type AnalyzeRequest struct {
	TextContent  string   `json:"text_content" validate:"required"`
	AnalysisType string   `json:"analysis_type" validate:"omitempty,oneof=phase1 phase2"`
	CustomItems  []string `json:"custom_items"`
}

// AnalyzeResponse carries the ordered item-to-finding mapping.
type AnalyzeResponse struct {
	Results *analysis.Result `json:"results"`
}

// PipelineRequest runs transcription and analysis in one call.
type PipelineRequest struct {
	AudioURL     string   `json:"audio_url" validate:"required,url"`
	Language     string   `json:"language"`
	Diarization  bool     `json:"diarization"`
	AnalysisType string   `json:"analysis_type" validate:"omitempty,oneof=phase1 phase2"`
	CustomItems  []string `json:"custom_items"`
}

// PipelineResponse is the outcome of a full pipeline run.
type PipelineResponse struct {
	JobID      string           `json:"job_id"`
	Transcript string           `json:"transcript"`
	Results    *analysis.Result `json:"results"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RegisterResponse confirms account creation.
type RegisterResponse struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
}

// LoginRequest authenticates an account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
