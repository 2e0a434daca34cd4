package application_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"visionary/internal/application"
	"visionary/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type mockCamera struct {
	mu      sync.Mutex
	frame   []byte
	openErr error
	opened  int
	closed  int
	grabs   int
	live    int
}

func newMockCamera() *mockCamera {
	return &mockCamera{frame: []byte{0xff, 0xd8, 0xff, 0xd9}}
}

func (m *mockCamera) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened++
	m.live = 1
	return nil
}

func (m *mockCamera) Grab() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grabs++
	if m.live == 0 {
		return nil, nil
	}
	return m.frame, nil
}

func (m *mockCamera) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	m.live = 0
	return nil
}

func (m *mockCamera) LiveTracks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

func (m *mockCamera) Name() string { return "mock" }

func (m *mockCamera) Grabs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grabs
}

func (m *mockCamera) setOpenErr(err error) {
	m.mu.Lock()
	m.openErr = err
	m.mu.Unlock()
}

type mockDescriber struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (string, error)
}

func (m *mockDescriber) Describe(ctx context.Context, _ []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	fn := m.fn
	m.mu.Unlock()

	if fn == nil {
		return "A person standing in a doorway.", nil
	}
	return fn(call)
}

func (m *mockDescriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recordingSynth keeps the utterances in the order they were spoken.
type recordingSynth struct {
	mu      sync.Mutex
	spoken  []string
	cancels int
}

func (r *recordingSynth) Speak(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return nil
}

func (r *recordingSynth) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
}

func (r *recordingSynth) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

func (r *recordingSynth) Cancels() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancels
}

func (r *recordingSynth) Said(text string) bool {
	for _, s := range r.Spoken() {
		if s == text {
			return true
		}
	}
	return false
}

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualTicker) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// tryFire reports whether the capture loop received the tick.
func (m *manualTicker) tryFire(wait time.Duration) bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-time.After(wait):
		return false
	}
}

type tickerFactory struct {
	mu        sync.Mutex
	intervals []time.Duration
	tickers   []*manualTicker
}

func (f *tickerFactory) New(d time.Duration) application.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	f.intervals = append(f.intervals, d)
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) Intervals() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.intervals...)
}

func (f *tickerFactory) Last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

type mockRecognizer struct {
	mu        sync.Mutex
	events    chan application.RecognitionEvent
	startErrs []error
	stopErr   error
	starts    int
	stops     int
}

func newMockRecognizer() *mockRecognizer {
	return &mockRecognizer{events: make(chan application.RecognitionEvent, 16)}
}

func (m *mockRecognizer) Start(_ context.Context, _ application.RecognizerOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	if len(m.startErrs) > 0 {
		err := m.startErrs[0]
		m.startErrs = m.startErrs[1:]
		return err
	}
	return nil
}

func (m *mockRecognizer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return m.stopErr
}

func (m *mockRecognizer) Events() <-chan application.RecognitionEvent { return m.events }
func (m *mockRecognizer) Name() string                                { return "mock" }

func (m *mockRecognizer) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

func (m *mockRecognizer) failNextStarts(errs ...error) {
	m.mu.Lock()
	m.startErrs = append(m.startErrs, errs...)
	m.mu.Unlock()
}

type mockHandler struct {
	mu          sync.Mutex
	transcripts []string
}

func (m *mockHandler) Dispatch(transcript string) domain.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts = append(m.transcripts, transcript)
	return application.Classify(transcript)
}

func (m *mockHandler) Transcripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.transcripts...)
}

type scheduledCall struct {
	delay time.Duration
	fn    func()
}

type manualScheduler struct {
	mu    sync.Mutex
	calls []scheduledCall
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduledCall{delay: d, fn: fn})
	return func() bool { return true }
}

func (s *manualScheduler) Calls() []scheduledCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scheduledCall(nil), s.calls...)
}

type recordingPresenter struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
	frames    int
}

func (p *recordingPresenter) Render(s domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

func (p *recordingPresenter) Preview(_ []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames++
}

func (p *recordingPresenter) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}
