package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"visionary/internal/application"
	"visionary/internal/domain"
	"visionary/internal/infra/camera"
	"visionary/internal/infra/openrouter"
	"visionary/internal/infra/web"
)

type recordingSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSynth) Speak(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return nil
}

func (r *recordingSynth) Cancel() {}

func (r *recordingSynth) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestIntegration_TextCommandDescribesScene(t *testing.T) {
	frames := t.TempDir()
	if err := os.WriteFile(filepath.Join(frames, "desk.jpg"), []byte{0xff, 0xd8, 0xff, 0xd9}, 0o644); err != nil {
		t.Fatal(err)
	}

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"A desk with a laptop."}}]}`))
	}))
	defer llm.Close()

	logger := testLogger()
	synth := &recordingSynth{}
	session := application.NewSession()
	narrator := application.NewNarrator(synth, logger)
	cam := camera.NewFileSource(frames)

	controller := application.NewController(
		session,
		cam,
		openrouter.NewClient(openrouter.Options{APIKey: "test-key", BaseURL: llm.URL}),
		narrator,
		logger,
		application.WithCaptureInterval(time.Hour),
	)
	transcripts := web.NewTextRecognizer()
	listener := application.NewListener(
		transcripts,
		application.NewDispatcher(controller, logger),
		narrator,
		session,
		logger,
	)

	server := web.NewServer(web.Options{}, controller, session, transcripts, logger)
	session.Attach(server)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() {
		runDone <- application.NewAssistant(listener, controller, narrator, logger).Run(ctx)
	}()

	waitFor(t, "voice commands", transcripts.Running)
	waitFor(t, "ready announcement", func() bool {
		return slices.Contains(synth.Spoken(), application.MsgReady)
	})
	if got := session.Snapshot().StatusLine(); got != "Voice commands active | Audio enabled" {
		t.Errorf("status line = %q", got)
	}

	resp, _ := do(t, server, http.MethodPost, "/api/transcript", `{"text":"Open camera please"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("transcript status = %d", resp.StatusCode)
	}

	waitFor(t, "caption", func() bool {
		return session.Snapshot().Caption == "A desk with a laptop."
	})
	controller.Wait()

	snap := session.Snapshot()
	if !snap.Capturing() || snap.Loading || snap.Error != "" {
		t.Errorf("snapshot = %+v", snap)
	}
	spoken := synth.Spoken()
	if !slices.Contains(spoken, application.MsgWelcome) {
		t.Errorf("welcome missing: %v", spoken)
	}
	if spoken[len(spoken)-1] != "A desk with a laptop." {
		t.Errorf("last spoken = %q", spoken[len(spoken)-1])
	}

	resp, body := do(t, server, http.MethodPost, "/api/camera/stop", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d: %s", resp.StatusCode, body)
	}
	if session.Snapshot().Capture != domain.CaptureIdle {
		t.Error("camera still active after stop")
	}
	if cam.LiveTracks() != 0 {
		t.Errorf("live tracks = %d after stop", cam.LiveTracks())
	}

	cancel()
	select {
	case <-runDone:
	case <-time.After(3 * time.Second):
		t.Fatal("assistant did not stop")
	}
	if transcripts.Running() {
		t.Error("recognizer still running after shutdown")
	}
}
