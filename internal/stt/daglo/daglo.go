// Package daglo implements the stt.Provider interface against the Daglo
// asynchronous transcription API.
package daglo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/stt"
)

const (
	// ProviderName is the registered name for the Daglo provider.
	ProviderName = "daglo"

	defaultBaseURL  = "https://apis.daglo.ai/stt/v1/async/transcripts"
	defaultLanguage = "ko"
	defaultTimeout  = 120 * time.Second
)

// Config holds configuration for the Daglo STT provider.
type Config struct {
	// APIKey is the Daglo bearer token.
	APIKey string `json:"api_key" mapstructure:"api_key"`
	// BaseURL is the async transcripts endpoint.
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	// Language is the default language when a request doesn't set one.
	Language string `json:"language" mapstructure:"language"`
	// Timeout bounds each HTTP call (uploads included).
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("daglo: api_key is required")
	}
	return nil
}

// Provider implements stt.Provider using Daglo's async transcripts API.
type Provider struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger
}

// NewProvider creates a new Daglo STT provider.
func NewProvider(cfg Config, log *logger.Logger) *Provider {
	cfg.ApplyDefaults()
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.WithComponent("daglo"),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Daglo API is reachable. The API has no health
// endpoint; an authorized listing read serves as the probe.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// Submit sends audio for transcription and returns the provider job id.
// URL submissions go as JSON; direct uploads go as multipart/form-data.
func (p *Provider) Submit(ctx context.Context, req stt.SubmitRequest) (string, error) {
	if req.Language == "" {
		req.Language = p.cfg.Language
	}

	var (
		httpReq *http.Request
		err     error
	)
	switch {
	case req.AudioURL != "":
		httpReq, err = p.buildURLRequest(ctx, req)
	case len(req.FileContent) > 0:
		httpReq, err = p.buildUploadRequest(ctx, req)
	default:
		return "", errors.InvalidAudioReference("no audio url or file content provided")
	}
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", errors.ProviderUnavailable(ProviderName, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return "", errors.ProviderUnavailable(ProviderName, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", errors.InvalidAudioReference(fmt.Sprintf("provider rejected the request (status %d): %s", resp.StatusCode, truncate(body)))
	}

	var submitResp submitResponse
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return "", errors.MalformedProviderReply(ProviderName, "submit reply is not valid JSON")
	}
	if submitResp.RID == "" {
		return "", errors.MalformedProviderReply(ProviderName, "submit reply has no rid")
	}

	p.log.Info("Transcription submitted", logger.Fields(logger.FieldJobID, submitResp.RID))
	return submitResp.RID, nil
}

// PollStatus reads the current state of a job.
func (p *Provider) PollStatus(ctx context.Context, jobID string) (*stt.Job, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/"+jobID, http.NoBody)
	if err != nil {
		return nil, errors.Internal(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, errors.ProviderUnavailable(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.JobNotFound(jobID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.ProviderUnavailable(ProviderName, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	}

	var statusResp statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, errors.MalformedProviderReply(ProviderName, "status reply is not valid JSON")
	}
	return toJob(jobID, &statusResp), nil
}

// Cancel asks Daglo to abandon a job. A job the provider already finished is
// logged and swallowed; only transport failures are surfaced.
func (p *Provider) Cancel(ctx context.Context, jobID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.cfg.BaseURL+"/"+jobID, http.NoBody)
	if err != nil {
		return errors.Internal(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return errors.ProviderUnavailable(ProviderName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < http.StatusBadRequest:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusGone:
		p.log.Debug("Cancel ignored, job already finished", logger.Fields(
			logger.FieldJobID, jobID,
			"status", resp.StatusCode,
		))
		return nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return errors.ProviderUnavailable(ProviderName, fmt.Errorf("cancel status %d: %s", resp.StatusCode, truncate(body)))
	}
}

// --- request builders ---

func (p *Provider) buildURLRequest(ctx context.Context, req stt.SubmitRequest) (*http.Request, error) {
	payload := submitURLRequest{
		Language: req.Language,
	}
	payload.Audio.Source.URL = req.AudioURL
	payload.SttConfig.SpeakerDiarization.Enable = req.Diarization

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Internal(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Internal(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func (p *Provider) buildUploadRequest(ctx context.Context, req stt.SubmitRequest) (*http.Request, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = SniffAudioContentType(req.FileName)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := createFormFile(writer, "file", req.FileName, contentType)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if _, err := part.Write(req.FileContent); err != nil {
		return nil, errors.Internal(err)
	}
	_ = writer.WriteField("language", req.Language)
	_ = writer.WriteField("enable_speaker_diarization", strconv.FormatBool(req.Diarization))
	if err := writer.Close(); err != nil {
		return nil, errors.Internal(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, &buf)
	if err != nil {
		return nil, errors.Internal(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	return httpReq, nil
}

func createFormFile(w *multipart.Writer, fieldName, fileName, contentType string) (io.Writer, error) {
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName)}
	h["Content-Type"] = []string{contentType}
	return w.CreatePart(h)
}

// SniffAudioContentType maps an audio file extension to a MIME type,
// defaulting to audio/mpeg.
func SniffAudioContentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}

// --- wire types ---

type submitURLRequest struct {
	Audio struct {
		Source struct {
			URL string `json:"url"`
		} `json:"source"`
	} `json:"audio"`
	Language  string `json:"language"`
	SttConfig struct {
		SpeakerDiarization struct {
			Enable bool `json:"enable"`
		} `json:"speakerDiarization"`
	} `json:"sttConfig"`
}

type submitResponse struct {
	RID string `json:"rid"`
}

type statusResponse struct {
	RID        string      `json:"rid"`
	Status     string      `json:"status"`
	SttResults []sttResult `json:"sttResults"`
	ErrorMsg   string      `json:"errorMessage"`
}

type sttResult struct {
	Transcript string `json:"transcript"`
}

// toJob maps a Daglo status reply onto the internal job model.
// Daglo reports "transcribed" when the transcript is ready and "failed" on a
// terminal error; anything else is still in flight.
func toJob(jobID string, resp *statusResponse) *stt.Job {
	job := &stt.Job{ID: jobID}

	switch resp.Status {
	case "transcribed":
		job.Status = stt.StatusCompleted
		job.Transcript = joinTranscripts(resp.SttResults)
	case "failed", "error":
		job.Status = stt.StatusFailed
		job.Error = resp.ErrorMsg
		if job.Error == "" {
			job.Error = "unknown provider error"
		}
	case "", "pending", "queued":
		job.Status = stt.StatusPending
	default:
		job.Status = stt.StatusProcessing
	}
	return job
}

// joinTranscripts assembles the result text from the provider's segments.
func joinTranscripts(results []sttResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Transcript != "" {
			parts = append(parts, r.Transcript)
		}
	}
	if len(parts) == 0 {
		return "(no recognized speech)"
	}
	return strings.Join(parts, " ")
}

func truncate(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
