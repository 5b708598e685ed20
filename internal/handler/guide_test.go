package handler

import (
	"bytes"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"guidewell/internal/capabilities"
	"guidewell/internal/config"
	chatSvc "guidewell/internal/service/chat"
	guideSvc "guidewell/internal/service/guide"
	"guidewell/internal/service/stream"
)

// plainWriter hides the Flusher of the embedded recorder, like a
// ResponseWriter behind a non-streaming middleware wrapper.
type plainWriter struct {
	rec *httptest.ResponseRecorder
}

func (w *plainWriter) Header() http.Header         { return w.rec.Header() }
func (w *plainWriter) Write(b []byte) (int, error) { return w.rec.Write(b) }
func (w *plainWriter) WriteHeader(code int)        { w.rec.WriteHeader(code) }

func newGuideHandler(t *testing.T) (*GuideHandler, *stream.Registry) {
	t.Helper()

	cfg := &config.Config{DefaultModel: "lorem-fast"}
	providers, err := guideSvc.SetupProviders(cfg, slog.Default())
	if err != nil {
		t.Fatalf("SetupProviders: %v", err)
	}
	caps, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("capabilities.NewRegistry: %v", err)
	}

	resultRepo := &stubResultRepo{}
	svc := chatSvc.NewService(newStubChatRepo(), resultRepo, slog.Default())
	streams := stream.NewRegistry()

	return NewGuideHandler(svc, resultRepo, providers, streams, caps, cfg, slog.Default()), streams
}

func searchRequest(t *testing.T, data string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("data", data); err != nil {
		t.Fatalf("write data part: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/guide/search", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return asUser(req, "user-1", "member")
}

func TestSearchWithoutFlusherDoesNotRegisterExecutor(t *testing.T) {
	h, streams := newGuideHandler(t)

	rec := httptest.NewRecorder()
	req := searchRequest(t, `{"user_prompt": "what is IBS?", "is_new": true}`)
	h.Search(&plainWriter{rec: rec}, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for non-streaming writer", rec.Code)
	}
	if streams.Count() != 0 {
		t.Errorf("registry holds %d executors after rejected stream, want 0", streams.Count())
	}
}

func TestSearchRejectsUnknownModel(t *testing.T) {
	h, streams := newGuideHandler(t)

	rec := httptest.NewRecorder()
	req := searchRequest(t, `{"user_prompt": "hi", "is_new": true, "model": "no-such-model"}`)
	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown model", rec.Code)
	}
	if streams.Count() != 0 {
		t.Errorf("registry holds %d executors, want 0", streams.Count())
	}
}
