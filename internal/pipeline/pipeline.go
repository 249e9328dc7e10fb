// Package pipeline chains transcription and analysis into a single
// audio-to-findings run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/bomatic/bomatic-server/internal/analysis"
	"github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/stt"
)

// Stage names for StageError.
const (
	StageSTT      = "stt"
	StageAnalysis = "analysis"
)

// StageError wraps a failure with the pipeline stage it happened in. A run
// fails atomically: once a stage errors, no later stage executes.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

// Request describes one full pipeline run.
type Request struct {
	// Audio describes the audio to transcribe.
	Audio stt.SubmitRequest
	// Items are the analysis topics. Empty means the default set.
	Items []string
	// Mode selects the analysis depth.
	Mode analysis.Mode
}

// Result is the outcome of a successful run.
type Result struct {
	// JobID is the provider's transcription job id.
	JobID string `json:"job_id"`
	// Transcript is the recognized text.
	Transcript string `json:"transcript"`
	// Analysis maps each requested item to its finding.
	Analysis *analysis.Result `json:"analysis"`
}

// Orchestrator runs the transcribe-then-analyze pipeline.
type Orchestrator struct {
	stt      stt.Provider
	analyzer *analysis.Analyzer
	cfg      stt.PollConfig
	log      *logger.Logger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(provider stt.Provider, analyzer *analysis.Analyzer, cfg stt.PollConfig, log *logger.Logger) *Orchestrator {
	cfg.ApplyDefaults()
	return &Orchestrator{
		stt:      provider,
		analyzer: analyzer,
		cfg:      cfg,
		log:      log.WithComponent("pipeline"),
	}
}

// RunFullAnalysis submits the audio, waits for the transcript, then analyzes
// it. The analyzer is never invoked when transcription fails or times out.
func (o *Orchestrator) RunFullAnalysis(ctx context.Context, req Request) (*Result, error) {
	jobID, err := o.stt.Submit(ctx, req.Audio)
	if err != nil {
		return nil, &StageError{Stage: StageSTT, Cause: err}
	}
	o.log.Info("Transcription submitted", logger.Fields(logger.FieldJobID, jobID))

	job, err := stt.AwaitCompletion(ctx, o.stt, jobID, o.cfg)
	if err != nil {
		return nil, &StageError{Stage: StageSTT, Cause: err}
	}
	if job.Status == stt.StatusFailed {
		return nil, &StageError{
			Stage: StageSTT,
			Cause: errors.ProviderUnavailable(o.stt.Name(), fmt.Errorf("transcription failed: %s", job.Error)),
		}
	}

	result, err := o.analyzer.Analyze(ctx, analysis.Request{
		TextContent: job.Transcript,
		Items:       req.Items,
		Mode:        req.Mode,
	})
	if err != nil {
		return nil, &StageError{Stage: StageAnalysis, Cause: err}
	}

	o.log.Info("Pipeline run completed", logger.Fields(
		logger.FieldJobID, jobID,
		"transcript_length", len(job.Transcript),
	))
	return &Result{
		JobID:      jobID,
		Transcript: job.Transcript,
		Analysis:   result,
	}, nil
}
