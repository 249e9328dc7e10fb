package api

import (
	"github.com/gin-gonic/gin"

	"github.com/bomatic/bomatic-server/internal/analysis"
	apperrors "github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/pipeline"
	"github.com/bomatic/bomatic-server/internal/server"
	"github.com/bomatic/bomatic-server/internal/stt"
	"github.com/bomatic/bomatic-server/internal/validation"
)

// PipelineHandler serves the combined transcribe-and-analyze endpoint.
type PipelineHandler struct {
	orchestrator *pipeline.Orchestrator
}

// NewPipelineHandler creates the pipeline handler.
func NewPipelineHandler(orchestrator *pipeline.Orchestrator) *PipelineHandler {
	return &PipelineHandler{orchestrator: orchestrator}
}

// FullAnalysis transcribes the audio, waits for the transcript, and analyzes
// it in one blocking call.
func (h *PipelineHandler) FullAnalysis(c *gin.Context) {
	var req PipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	result, err := h.orchestrator.RunFullAnalysis(c.Request.Context(), pipeline.Request{
		Audio: stt.SubmitRequest{
			AudioURL:    req.AudioURL,
			Language:    req.Language,
			Diarization: req.Diarization,
		},
		Items: req.CustomItems,
		Mode:  analysis.Mode(req.AnalysisType),
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, PipelineResponse{
		JobID:      result.JobID,
		Transcript: result.Transcript,
		Results:    result.Analysis,
	})
}
