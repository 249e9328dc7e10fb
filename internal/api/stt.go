package api

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/server"
	"github.com/bomatic/bomatic-server/internal/stt"
	"github.com/bomatic/bomatic-server/internal/validation"
)

// STTHandler serves the transcription endpoints.
type STTHandler struct {
	provider stt.Provider
	store    *stt.Store
	tracker  *stt.Tracker
	log      *logger.Logger
}

// NewSTTHandler creates the transcription handler.
func NewSTTHandler(provider stt.Provider, store *stt.Store, tracker *stt.Tracker, log *logger.Logger) *STTHandler {
	return &STTHandler{
		provider: provider,
		store:    store,
		tracker:  tracker,
		log:      log.WithComponent("stt-handler"),
	}
}

// Start submits a remote audio URL for transcription and begins tracking the
// job.
func (h *STTHandler) Start(c *gin.Context) {
	var req STTStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	jobID, err := h.provider.Submit(c.Request.Context(), stt.SubmitRequest{
		AudioURL:    req.AudioURL,
		Language:    req.Language,
		Diarization: req.Diarization,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	h.tracker.Watch(jobID)
	server.RespondAccepted(c, STTStartResponse{JobID: jobID})
}

// allowedAudioExtensions is the upload allow-list, matching what the
// transcription provider accepts.
var allowedAudioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".flac": true, ".ogg": true,
	".aac": true, ".webm": true, ".mp4": true,
}

// Upload accepts a multipart audio file and submits it for transcription.
func (h *STTHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		server.RespondWithError(c, apperrors.MissingField("file"))
		return
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); !allowedAudioExtensions[ext] {
		server.RespondWithError(c, apperrors.InvalidAudioReference(
			fmt.Sprintf("unsupported audio file extension %q", ext)))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	jobID, err := h.provider.Submit(c.Request.Context(), stt.SubmitRequest{
		FileName:    fileHeader.Filename,
		FileContent: content,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Language:    c.PostForm("language"),
		Diarization: c.PostForm("diarization") == "true",
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	h.tracker.Watch(jobID)
	server.RespondAccepted(c, STTStartResponse{JobID: jobID})
}

// Status reports the tracked state of a job.
func (h *STTHandler) Status(c *gin.Context) {
	job, err := h.store.Get(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, STTStatusResponse{
		JobID:      job.ID,
		Status:     string(job.Status),
		Transcript: job.Transcript,
		Error:      job.Error,
	})
}

// Delete removes a tracked job. Provider-side cancellation is best-effort;
// its failure never blocks the delete.
func (h *STTHandler) Delete(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.store.Delete(jobID); err != nil {
		server.RespondWithError(c, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.provider.Cancel(ctx, jobID); err != nil {
			h.log.Warn("Provider cancel failed", logger.Fields(
				logger.FieldJobID, jobID,
				logger.FieldError, err.Error(),
			))
		}
	}()

	server.RespondNoContent(c)
}
