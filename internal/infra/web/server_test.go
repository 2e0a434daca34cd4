package web_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"visionary/internal/application"
	"visionary/internal/domain"
	"visionary/internal/infra/web"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeControls struct {
	mu    sync.Mutex
	calls []string
	snap  *domain.Snapshot
}

func (f *fakeControls) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeControls) Start() {
	f.record("start")
	f.snap.Capture = domain.CaptureActive
}

func (f *fakeControls) Stop() {
	f.record("stop")
	f.snap.Capture = domain.CaptureIdle
}

func (f *fakeControls) CaptureOnce() { f.record("capture") }

func (f *fakeControls) Mute() {
	f.record("mute")
	f.snap.Muted = true
}

func (f *fakeControls) Unmute() {
	f.record("unmute")
	f.snap.Muted = false
}

func (f *fakeControls) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeStatus struct {
	snap *domain.Snapshot
}

func (f fakeStatus) Snapshot() domain.Snapshot { return *f.snap }

func newTestServer(t *testing.T, opts web.Options, transcripts *web.TextRecognizer) (*web.Server, *fakeControls, *domain.Snapshot) {
	t.Helper()
	snap := &domain.Snapshot{Listening: true, Capture: domain.CaptureIdle}
	controls := &fakeControls{snap: snap}
	return web.NewServer(opts, controls, fakeStatus{snap: snap}, transcripts, testLogger()), controls, snap
}

func do(t *testing.T, s *web.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestStatus(t *testing.T) {
	s, _, snap := newTestServer(t, web.Options{}, nil)
	snap.Muted = true
	snap.Caption = "A cat on a sofa."

	resp, body := do(t, s, http.MethodGet, "/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got["status_line"] != "Voice commands active | Audio muted" {
		t.Errorf("status_line = %v", got["status_line"])
	}
	if got["caption_text"] != "A cat on a sofa." {
		t.Errorf("caption_text = %v", got["caption_text"])
	}
	if got["capture"] != "idle" || got["muted"] != true {
		t.Errorf("snapshot fields = %v", got)
	}
	if _, ok := got["error"]; ok {
		t.Error("empty error should be omitted")
	}
}

func TestStatus_Placeholder(t *testing.T) {
	s, _, _ := newTestServer(t, web.Options{}, nil)

	_, body := do(t, s, http.MethodGet, "/api/status", "")
	var got web.Status
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.CaptionText != domain.CaptionPlaceholder {
		t.Errorf("caption_text = %q", got.CaptionText)
	}
}

func TestCameraControls(t *testing.T) {
	s, controls, _ := newTestServer(t, web.Options{}, nil)

	resp, body := do(t, s, http.MethodPost, "/api/camera/start", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"capture":"active"`) {
		t.Errorf("start body = %s", body)
	}

	do(t, s, http.MethodPost, "/api/camera/stop", "")
	do(t, s, http.MethodPost, "/api/mute", "")
	do(t, s, http.MethodPost, "/api/unmute", "")

	want := []string{"start", "stop", "mute", "unmute"}
	got := controls.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		capture  domain.CaptureState
		loading  bool
		status   int
		captured bool
	}{
		{"camera closed", domain.CaptureIdle, false, http.StatusConflict, false},
		{"request in flight", domain.CaptureActive, true, http.StatusConflict, false},
		{"ready", domain.CaptureActive, false, http.StatusAccepted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, controls, snap := newTestServer(t, web.Options{}, nil)
			snap.Capture = tt.capture
			snap.Loading = tt.loading

			resp, _ := do(t, s, http.MethodPost, "/api/describe", "")
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if captured := len(controls.Calls()) == 1; captured != tt.captured {
				t.Errorf("captured = %v, want %v", captured, tt.captured)
			}
		})
	}
}

func TestTranscript(t *testing.T) {
	rec := web.NewTextRecognizer()
	s, _, _ := newTestServer(t, web.Options{}, rec)

	resp, _ := do(t, s, http.MethodPost, "/api/transcript", `{"text":"open camera"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("before start: status = %d, want 503", resp.StatusCode)
	}

	if err := rec.Start(context.Background(), application.DefaultRecognizerOptions()); err != nil {
		t.Fatal(err)
	}

	resp, _ = do(t, s, http.MethodPost, "/api/transcript", `{"text":"  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank: status = %d, want 400", resp.StatusCode)
	}

	resp, _ = do(t, s, http.MethodPost, "/api/transcript", `{"text":"Open Camera"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	ev := <-rec.Events()
	if ev.Type != application.EventResult || len(ev.Results) != 1 || ev.Results[0] != "Open Camera" {
		t.Errorf("event = %+v", ev)
	}
}

func TestTranscript_Disabled(t *testing.T) {
	s, _, _ := newTestServer(t, web.Options{}, nil)

	resp, _ := do(t, s, http.MethodPost, "/api/transcript", `{"text":"open camera"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRateLimit(t *testing.T) {
	s, controls, _ := newTestServer(t, web.Options{RateLimit: 2}, nil)

	for i := 0; i < 2; i++ {
		if resp, _ := do(t, s, http.MethodPost, "/api/mute", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}
	resp, _ := do(t, s, http.MethodPost, "/api/mute", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
	if n := len(controls.Calls()); n != 2 {
		t.Errorf("controls called %d times, want 2", n)
	}

	if resp, _ := do(t, s, http.MethodGet, "/api/status", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("status endpoint limited: %d", resp.StatusCode)
	}
}

func TestIndexAndHealth(t *testing.T) {
	s, _, _ := newTestServer(t, web.Options{}, nil)

	resp, body := do(t, s, http.MethodGet, "/", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "VisionaryAI") {
		t.Errorf("index: %d", resp.StatusCode)
	}

	resp, _ = do(t, s, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health: %d", resp.StatusCode)
	}

	resp, _ = do(t, s, http.MethodGet, "/ws/status", "")
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("plain GET on websocket route: %d, want 426", resp.StatusCode)
	}
}
