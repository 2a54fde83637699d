package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kothakarthikeya/legal-contract/config"
	"github.com/kothakarthikeya/legal-contract/internal/handler"
	"github.com/kothakarthikeya/legal-contract/internal/history"
	"github.com/kothakarthikeya/legal-contract/internal/model"
	"github.com/kothakarthikeya/legal-contract/internal/router"
	"github.com/kothakarthikeya/legal-contract/internal/service"
	"github.com/kothakarthikeya/legal-contract/internal/workflow"
)

type stubPipeline struct {
	err error
}

func (p *stubPipeline) Run(ctx context.Context, filePath, docID string) (*workflow.State, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &workflow.State{
		FilePath:    filePath,
		DocID:       docID,
		FinalReport: "<html><body>Report " + docID + "</body></html>",
	}, nil
}

type memUserRepo struct {
	users map[string]*model.User
}

func (r *memUserRepo) Create(user *model.User) error {
	if r.users == nil {
		r.users = map[string]*model.User{}
	}
	if _, ok := r.users[user.Username]; ok {
		return errors.New("UNIQUE constraint failed")
	}
	user.ID = uint(len(r.users) + 1)
	r.users[user.Username] = user
	return nil
}

func (r *memUserRepo) GetByUsername(username string) (*model.User, error) {
	if r.users == nil {
		return nil, nil
	}
	return r.users[username], nil
}

type testApp struct {
	engine  *gin.Engine
	history *history.Store
}

func newTestApp(t *testing.T, pipe service.PipelineRunner) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	store, err := history.NewStore(filepath.Join(dir, "registry.json"))
	if err != nil {
		t.Fatalf("history store: %v", err)
	}

	analysis := service.NewAnalysisService(pipe, filepath.Join(dir, "uploads"), filepath.Join(dir, "reports"))
	feedback := service.NewFeedbackService(store, filepath.Join(dir, "feedback.json"))
	users := service.NewUserService(&memUserRepo{})

	cfg := &config.Config{}
	cfg.Server.Mode = "release"

	engine := router.Setup(
		cfg,
		handler.NewAnalyzeHandler(analysis),
		handler.NewHistoryHandler(store),
		handler.NewFeedbackHandler(feedback),
		handler.NewAuthHandler(users),
	)
	return &testApp{engine: engine, history: store}
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func (a *testApp) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	// gzip responses complicate body assertions
	req.Header.Set("Accept-Encoding", "identity")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func TestAnalyzeEndpointReturnsReport(t *testing.T) {
	app := newTestApp(t, &stubPipeline{})

	body, ct := multipartUpload(t, "file", "contract.txt", "the parties agree")
	w := app.do(http.MethodPost, "/api/analyze", body, ct)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	docID := w.Header().Get("X-Doc-ID")
	if docID == "" {
		t.Fatal("expected X-Doc-ID header")
	}
	if !strings.Contains(w.Body.String(), "Report "+docID) {
		t.Fatalf("body should carry the report: %s", w.Body.String())
	}

	// the persisted copy backs the download endpoint
	w = app.do(http.MethodGet, "/api/reports/"+docID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Report "+docID) {
		t.Fatal("downloaded report differs")
	}
}

func TestAnalyzeEndpointRejectsBadInput(t *testing.T) {
	app := newTestApp(t, &stubPipeline{err: errors.New("pipeline must not run")})

	// missing multipart field
	w := app.do(http.MethodPost, "/api/analyze", nil, "multipart/form-data; boundary=x")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: status %d", w.Code)
	}

	// unsupported extension
	body, ct := multipartUpload(t, "file", "virus.exe", "binary")
	if w = app.do(http.MethodPost, "/api/analyze", body, ct); w.Code != http.StatusBadRequest {
		t.Fatalf("bad extension: status %d", w.Code)
	}

	// empty file
	body, ct = multipartUpload(t, "file", "empty.txt", "")
	if w = app.do(http.MethodPost, "/api/analyze", body, ct); w.Code != http.StatusBadRequest {
		t.Fatalf("empty file: status %d", w.Code)
	}
}

func TestAnalyzeEndpointReportsPipelineFailure(t *testing.T) {
	app := newTestApp(t, &stubPipeline{err: errors.New("stage retrieve failed: index down")})

	body, ct := multipartUpload(t, "file", "contract.txt", "text")
	w := app.do(http.MethodPost, "/api/analyze", body, ct)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestReportDownloadUnknownDoc(t *testing.T) {
	app := newTestApp(t, &stubPipeline{})
	if w := app.do(http.MethodGet, "/api/reports/nope", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	app := newTestApp(t, &stubPipeline{})

	path := filepath.Join(t.TempDir(), "u1_nda.txt")
	if err := writeFile(path, "nda body"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := app.history.RegisterUpload(path, "doc-h1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	w := app.do(http.MethodGet, "/api/history", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var reg history.Registry
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reg.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(reg.Documents))
	}
}

func TestFeedbackSubmitAndExport(t *testing.T) {
	app := newTestApp(t, &stubPipeline{})

	payload := bytes.NewBufferString(`{"doc_id":"doc-x","rating":4,"comments":"good"}`)
	w := app.do(http.MethodPost, "/api/feedback", payload, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "recorded_unmatched") {
		t.Fatalf("unknown doc should be flagged: %s", w.Body.String())
	}

	bad := bytes.NewBufferString(`{"doc_id":"doc-x","rating":9}`)
	if w = app.do(http.MethodPost, "/api/feedback", bad, "application/json"); w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range rating: status %d", w.Code)
	}

	w = app.do(http.MethodGet, "/api/feedback/export", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status %d", w.Code)
	}
	var entries []service.FeedbackEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(entries) != 1 || entries[0].DocID != "doc-x" {
		t.Fatalf("unexpected export: %+v", entries)
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := newTestApp(t, &stubPipeline{})

	reg := bytes.NewBufferString(`{"username":"alice","email":"alice@example.com","password":"s3cret-pass"}`)
	w := app.do(http.MethodPost, "/api/auth/register", reg, "application/json")
	if w.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "s3cret") {
		t.Fatal("password material leaked in response")
	}

	login := bytes.NewBufferString(`{"username":"alice","password":"s3cret-pass"}`)
	if w = app.do(http.MethodPost, "/api/auth/login", login, "application/json"); w.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", w.Code, w.Body.String())
	}

	wrong := bytes.NewBufferString(`{"username":"alice","password":"nope-nope"}`)
	if w = app.do(http.MethodPost, "/api/auth/login", wrong, "application/json"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status %d", w.Code)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
