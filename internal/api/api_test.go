package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bomatic/bomatic-server/internal/analysis"
	"github.com/bomatic/bomatic-server/internal/auth"
	"github.com/bomatic/bomatic-server/internal/auth/jwt"
	"github.com/bomatic/bomatic-server/internal/auth/password"
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/pipeline"
	"github.com/bomatic/bomatic-server/internal/server"
	"github.com/bomatic/bomatic-server/internal/stt"
	"github.com/bomatic/bomatic-server/internal/user"
)

// fakeSTT scripts provider behavior for handler tests.
type fakeSTT struct {
	submitErr error
	job       *stt.Job
	canceled  []string
}

func (f *fakeSTT) Name() string                     { return "fake-stt" }
func (f *fakeSTT) IsAvailable(context.Context) bool { return true }

func (f *fakeSTT) Submit(context.Context, stt.SubmitRequest) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "job-1", nil
}

func (f *fakeSTT) PollStatus(context.Context, string) (*stt.Job, error) {
	return f.job, nil
}

func (f *fakeSTT) Cancel(_ context.Context, jobID string) error {
	f.canceled = append(f.canceled, jobID)
	return nil
}

type fakeModel struct{ reply string }

func (f *fakeModel) Name() string                     { return "fake-model" }
func (f *fakeModel) IsAvailable(context.Context) bool { return true }
func (f *fakeModel) Complete(context.Context, string, string) (string, error) {
	return f.reply, nil
}

type testEnv struct {
	engine  *gin.Engine
	authSvc *auth.Service
	store   *stt.Store
	sttP    *fakeSTT
}

func newTestEnv(t *testing.T, modelReply string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewDefault("api-test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	userStore := user.NewStore(db)
	if err := userStore.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	tokens, err := jwt.NewService(jwt.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	authSvc := auth.NewService(userStore, tokens, password.NewBcryptHasher(), nopMailer{}, log)

	sttP := &fakeSTT{job: &stt.Job{ID: "job-1", Status: stt.StatusCompleted, Transcript: "hello"}}
	jobStore := stt.NewStore()
	pollCfg := stt.PollConfig{Interval: time.Millisecond, Timeout: 100 * time.Millisecond}
	tracker := stt.NewTracker(sttP, jobStore, pollCfg, log)

	analyzer := analysis.NewAnalyzer(&fakeModel{reply: modelReply}, log)
	orchestrator := pipeline.NewOrchestrator(sttP, analyzer, pollCfg, log)

	srv := server.New(server.Config{}, log)
	RegisterRoutes(srv, Handlers{
		Health:      NewHealthHandler(db, sttP, "api-test"),
		Auth:        NewAuthHandler(authSvc),
		STT:         NewSTTHandler(sttP, jobStore, tracker, log),
		Analysis:    NewAnalysisHandler(analyzer),
		Pipeline:    NewPipelineHandler(orchestrator),
		TokenParser: authSvc,
	}, []string{"*"}, log)

	return &testEnv{engine: srv.GinEngine(), authSvc: authSvc, store: jobStore, sttP: sttP}
}

type nopMailer struct{}

func (nopMailer) SendVerification(context.Context, string, string) error { return nil }

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) bearerFor(t *testing.T) map[string]string {
	t.Helper()
	if _, err := e.authSvc.Register(context.Background(), "t@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := e.authSvc.Login(context.Background(), "t@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + pair.AccessToken}
}

func TestSTTStart_Accepted(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.do(t, http.MethodPost, "/api/v1/stt/start", STTStartRequest{
		AudioURL: "https://example.com/a.mp3",
	}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data STTStartResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.JobID != "job-1" {
		t.Errorf("job id = %q", resp.Data.JobID)
	}
	// The job is tracked immediately.
	if _, err := env.store.Get("job-1"); err != nil {
		t.Errorf("job not tracked: %v", err)
	}
}

func TestSTTStart_MissingURL(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.do(t, http.MethodPost, "/api/v1/stt/start", map[string]string{"language": "ko"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSTTStatus_TracksCompletion(t *testing.T) {
	env := newTestEnv(t, "{}")
	env.do(t, http.MethodPost, "/api/v1/stt/start", STTStartRequest{AudioURL: "https://example.com/a.mp3"}, nil)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		w := env.do(t, http.MethodGet, "/api/v1/stt/status/job-1", nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp struct {
			Data STTStatusResponse `json:"data"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Data.Status == "completed" {
			if resp.Data.Transcript != "hello" {
				t.Errorf("transcript = %q", resp.Data.Transcript)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never completed")
}

func TestSTTStatus_Unknown(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.do(t, http.MethodGet, "/api/v1/stt/status/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSTTDelete(t *testing.T) {
	env := newTestEnv(t, "{}")
	env.do(t, http.MethodPost, "/api/v1/stt/start", STTStartRequest{AudioURL: "https://example.com/a.mp3"}, nil)

	w := env.do(t, http.MethodDelete, "/api/v1/stt/jobs/job-1", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/api/v1/stt/jobs/job-1", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", w.Code)
	}
}

func TestAnalyze_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, `{"A":"x"}`)

	w := env.do(t, http.MethodPost, "/api/v1/analysis/analyze", AnalyzeRequest{
		TextContent: "text", CustomItems: []string{"A"},
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAnalyze_CustomItemsOrdered(t *testing.T) {
	env := newTestEnv(t, `{"B":"second","A":"first"}`)
	headers := env.bearerFor(t)

	w := env.do(t, http.MethodPost, "/api/v1/analysis/analyze", AnalyzeRequest{
		TextContent: "샘플 텍스트",
		CustomItems: []string{"A", "B"},
	}, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	// Keys come back in request order regardless of reply order.
	body := w.Body.String()
	if !strings.Contains(body, `"results":{"A":"first","B":"second"}`) {
		t.Errorf("body = %s", body)
	}
}

func TestAnalyze_BadMode(t *testing.T) {
	env := newTestEnv(t, `{"A":"x"}`)
	headers := env.bearerFor(t)

	w := env.do(t, http.MethodPost, "/api/v1/analysis/analyze", map[string]any{
		"text_content":  "text",
		"analysis_type": "phase9",
	}, headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestPipeline_FullAnalysis(t *testing.T) {
	env := newTestEnv(t, `{"A":"finding"}`)

	w := env.do(t, http.MethodPost, "/api/v1/pipeline/full-analysis", PipelineRequest{
		AudioURL:    "https://example.com/a.mp3",
		CustomItems: []string{"A"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data PipelineResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.JobID != "job-1" || resp.Data.Transcript != "hello" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestPipeline_STTTimeoutMapsTo408(t *testing.T) {
	env := newTestEnv(t, `{"A":"x"}`)
	env.sttP.job = &stt.Job{ID: "job-1", Status: stt.StatusProcessing}

	w := env.do(t, http.MethodPost, "/api/v1/pipeline/full-analysis", PipelineRequest{
		AudioURL:    "https://example.com/a.mp3",
		CustomItems: []string{"A"},
	}, nil)
	if w.Code != http.StatusRequestTimeout {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAuthFlow_RegisterLoginRefresh(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", RegisterRequest{
		Email: "a@example.com", Password: "password123",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Email: "a@example.com", Password: "password123",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var loginResp struct {
		Data auth.TokenPair `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = env.do(t, http.MethodPost, "/api/v1/auth/refresh", RefreshRequest{
		RefreshToken: loginResp.Data.RefreshToken,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAuth_VerifyMissingToken(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.do(t, http.MethodGet, "/api/v1/auth/verify", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealth_Alive(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.do(t, http.MethodGet, "/alive", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func (e *testEnv) doMultipart(t *testing.T, fileName string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake-audio")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = writer.WriteField("language", "ko")
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stt/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestSTTUpload_Accepted(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.doMultipart(t, "meeting.mp3")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSTTUpload_RejectsNonAudio(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.doMultipart(t, "notes.txt")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSTTUpload_MissingFile(t *testing.T) {
	env := newTestEnv(t, "{}")

	w := env.do(t, http.MethodPost, "/api/v1/stt/upload", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
