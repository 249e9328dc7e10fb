package daglo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/stt"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewProvider(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, logger.NewDefault("daglo-test"))
	return p, srv
}

func TestSubmit_URLSource(t *testing.T) {
	var gotBody submitURLRequest
	var gotAuth string

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"rid": "rid-123"})
	})

	rid, err := p.Submit(context.Background(), stt.SubmitRequest{
		AudioURL:    "https://example.com/audio.mp3",
		Language:    "ko",
		Diarization: true,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if rid != "rid-123" {
		t.Errorf("rid = %q, want rid-123", rid)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.Audio.Source.URL != "https://example.com/audio.mp3" {
		t.Errorf("audio url = %q", gotBody.Audio.Source.URL)
	}
	if !gotBody.SttConfig.SpeakerDiarization.Enable {
		t.Error("diarization should be enabled")
	}
}

func TestSubmit_Upload(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("language") != "en" {
			t.Errorf("language = %q, want en", r.FormValue("language"))
		}
		if r.FormValue("enable_speaker_diarization") != "false" {
			t.Errorf("diarization = %q, want false", r.FormValue("enable_speaker_diarization"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "meeting.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"rid": "rid-up"})
	})

	rid, err := p.Submit(context.Background(), stt.SubmitRequest{
		FileName:    "meeting.wav",
		FileContent: []byte("fake-audio-bytes"),
		Language:    "en",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if rid != "rid-up" {
		t.Errorf("rid = %q, want rid-up", rid)
	}
}

func TestSubmit_NoAudio(t *testing.T) {
	p := NewProvider(Config{APIKey: "k"}, logger.NewDefault("daglo-test"))

	_, err := p.Submit(context.Background(), stt.SubmitRequest{})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeInvalidAudioReference {
		t.Fatalf("error = %v, want %s", err, apperrors.ErrCodeInvalidAudioReference)
	}
}

func TestSubmit_ProviderRejects(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unsupported format"}`, http.StatusUnprocessableEntity)
	})

	_, err := p.Submit(context.Background(), stt.SubmitRequest{AudioURL: "https://example.com/a.xyz"})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeInvalidAudioReference {
		t.Fatalf("error = %v, want %s", err, apperrors.ErrCodeInvalidAudioReference)
	}
}

func TestSubmit_ProviderDown(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := p.Submit(context.Background(), stt.SubmitRequest{AudioURL: "https://example.com/a.mp3"})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeProviderUnavailable {
		t.Fatalf("error = %v, want %s", err, apperrors.ErrCodeProviderUnavailable)
	}
	if !appErr.Retryable {
		t.Error("provider unavailable should be retryable")
	}
}

func TestPollStatus_Transcribed(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/rid-1") {
			t.Errorf("path = %q, want .../rid-1", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(statusResponse{
			RID:    "rid-1",
			Status: "transcribed",
			SttResults: []sttResult{
				{Transcript: "hello"},
				{Transcript: "world"},
			},
		})
	})

	job, err := p.PollStatus(context.Background(), "rid-1")
	if err != nil {
		t.Fatalf("PollStatus() error = %v", err)
	}
	if job.Status != stt.StatusCompleted {
		t.Errorf("status = %s, want completed", job.Status)
	}
	if job.Transcript != "hello world" {
		t.Errorf("transcript = %q", job.Transcript)
	}
}

func TestPollStatus_Failed(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(statusResponse{
			RID:      "rid-2",
			Status:   "failed",
			ErrorMsg: "audio too short",
		})
	})

	job, err := p.PollStatus(context.Background(), "rid-2")
	if err != nil {
		t.Fatalf("PollStatus() error = %v", err)
	}
	if job.Status != stt.StatusFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
	if job.Error != "audio too short" {
		t.Errorf("error message = %q", job.Error)
	}
}

func TestPollStatus_InFlight(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(statusResponse{RID: "rid-3", Status: "transcribing"})
	})

	job, err := p.PollStatus(context.Background(), "rid-3")
	if err != nil {
		t.Fatalf("PollStatus() error = %v", err)
	}
	if job.Status != stt.StatusProcessing {
		t.Errorf("status = %s, want processing", job.Status)
	}
}

func TestPollStatus_NotFound(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := p.PollStatus(context.Background(), "missing")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeJobNotFound {
		t.Fatalf("error = %v, want %s", err, apperrors.ErrCodeJobNotFound)
	}
}

func TestCancel_AlreadyFinished(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusConflict)
	})

	if err := p.Cancel(context.Background(), "rid-done"); err != nil {
		t.Fatalf("Cancel() on finished job should be nil, got %v", err)
	}
}

func TestSniffAudioContentType(t *testing.T) {
	cases := map[string]string{
		"a.wav":  "audio/wav",
		"b.M4A":  "audio/mp4",
		"c.mp3":  "audio/mpeg",
		"d.flac": "audio/flac",
		"e":      "audio/mpeg",
	}
	for name, want := range cases {
		if got := SniffAudioContentType(name); got != want {
			t.Errorf("SniffAudioContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
