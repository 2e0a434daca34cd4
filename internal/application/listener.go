package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"visionary/internal/domain"
)

type ListenerState string

const (
	ListenerUninitialized ListenerState = "uninitialized"
	ListenerListening     ListenerState = "listening"
	ListenerStopped       ListenerState = "stopped"
	ListenerDenied        ListenerState = "denied"
)

// RestartPolicy governs what happens when an immediate restart after a
// benign end fails.
type RestartPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

func DefaultRestartPolicy() RestartPolicy {
	return RestartPolicy{
		MaxRetries: 1,
		Delay:      7 * time.Second,
	}
}

// RestartScheduler runs f after d. The returned func cancels the pending
// call and reports whether it was still pending.
type RestartScheduler func(d time.Duration, f func()) func() bool

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type CommandHandler interface {
	Dispatch(transcript string) domain.Command
}

type ListenerOption func(*Listener)

func WithRestartPolicy(p RestartPolicy) ListenerOption {
	return func(l *Listener) {
		l.policy = p
	}
}

func WithRestartScheduler(s RestartScheduler) ListenerOption {
	return func(l *Listener) {
		if s != nil {
			l.schedule = s
		}
	}
}

func WithRecognizerOptions(o RecognizerOptions) ListenerOption {
	return func(l *Listener) {
		l.opts = o
	}
}

// Listener is the voice command adapter. It keeps the recognizer running
// for as long as the session intends to listen and forwards transcripts to
// the handler.
type Listener struct {
	recognizer Recognizer
	handler    CommandHandler
	narrator   *Narrator
	session    *Session
	logger     *slog.Logger
	policy     RestartPolicy
	opts       RecognizerOptions
	schedule   RestartScheduler

	mu          sync.Mutex
	state       ListenerState
	cancelRetry func() bool
	quit        chan struct{}
	done        chan struct{}
}

// NewListener accepts a nil recognizer, which Initialize reports as a
// missing capability.
func NewListener(
	recognizer Recognizer,
	handler CommandHandler,
	narrator *Narrator,
	session *Session,
	logger *slog.Logger,
	opts ...ListenerOption,
) *Listener {
	l := &Listener{
		recognizer: recognizer,
		handler:    handler,
		narrator:   narrator,
		session:    session,
		logger:     logger,
		policy:     DefaultRestartPolicy(),
		opts:       DefaultRecognizerOptions(),
		schedule:   afterFunc,
		state:      ListenerUninitialized,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Listener) State() ListenerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Initialize reports whether voice control is possible at all.
func (l *Listener) Initialize() bool {
	if l.recognizer == nil {
		l.logger.Warn("no speech recognizer configured")
		l.narrator.Speak(MsgRecognitionMissing)
		l.session.SetListening(false)
		return false
	}
	l.logger.Info("speech recognizer ready",
		"recognizer", l.recognizer.Name(),
		"language", l.opts.Language,
		"continuous", l.opts.Continuous,
	)
	return true
}

func (l *Listener) Start(ctx context.Context) error {
	if l.recognizer == nil {
		return ErrCapabilityUnavailable
	}

	l.mu.Lock()
	switch l.state {
	case ListenerListening:
		l.mu.Unlock()
		return ErrAlreadyStarted
	case ListenerDenied:
		l.mu.Unlock()
		return ErrPermissionDenied
	}
	l.mu.Unlock()

	if err := l.recognizer.Start(ctx, l.opts); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			l.deny()
		}
		return fmt.Errorf("starting recognizer: %w", err)
	}

	l.mu.Lock()
	l.state = ListenerListening
	l.quit = make(chan struct{})
	l.done = make(chan struct{})
	quit, done := l.quit, l.done
	l.mu.Unlock()

	l.session.SetListening(true)
	l.logger.Info("listening for voice commands", "recognizer", l.recognizer.Name())

	go l.consume(ctx, quit, done)
	return nil
}

// Stop ends recognition. Errors from a recognizer that already stopped are
// ignored.
func (l *Listener) Stop() {
	l.mu.Lock()
	if l.state != ListenerDenied {
		l.state = ListenerStopped
	}
	l.cancelPendingLocked()
	quit, done := l.quit, l.done
	l.quit, l.done = nil, nil
	l.mu.Unlock()

	if l.recognizer == nil {
		return
	}
	if err := l.recognizer.Stop(); err != nil {
		l.logger.Debug("stopping recognizer", "error", err)
	}
	if quit != nil {
		close(quit)
		<-done
	}
}

func (l *Listener) consume(ctx context.Context, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	events := l.recognizer.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			l.handle(ctx, ev)
		}
	}
}

func (l *Listener) handle(ctx context.Context, ev RecognitionEvent) {
	switch ev.Type {
	case EventResult:
		l.narrator.Cancel()
		if len(ev.Results) == 0 {
			return
		}
		transcript := Normalize(ev.Results[len(ev.Results)-1])
		if transcript == "" {
			return
		}
		l.logger.Debug("heard", "transcript", transcript)
		l.handler.Dispatch(transcript)

	case EventError:
		if ev.Error.PermissionDenied() {
			l.deny()
			return
		}
		l.logger.Warn("speech recognition error", "code", ev.Error, "error", ev.Err)

	case EventEnd:
		l.restart(ctx)
	}
}

func (l *Listener) deny() {
	l.mu.Lock()
	if l.state == ListenerDenied {
		l.mu.Unlock()
		return
	}
	l.state = ListenerDenied
	l.cancelPendingLocked()
	l.mu.Unlock()

	l.logger.Error("microphone permission denied, voice commands disabled")
	if err := l.recognizer.Stop(); err != nil {
		l.logger.Debug("stopping recognizer", "error", err)
	}
	l.session.SetListening(false)
	l.narrator.Speak(MsgMicrophoneDenied)
}

func (l *Listener) listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == ListenerListening
}

func (l *Listener) restart(ctx context.Context) {
	if !l.listening() || ctx.Err() != nil {
		return
	}
	err := l.recognizer.Start(ctx, l.opts)
	if err == nil {
		l.logger.Debug("recognizer restarted")
		return
	}
	if errors.Is(err, ErrPermissionDenied) {
		l.deny()
		return
	}
	l.logger.Warn("restarting recognizer", "error", err, "retry_in", l.policy.Delay)
	l.retry(ctx, 1)
}

func (l *Listener) retry(ctx context.Context, attempt int) {
	if attempt > l.policy.MaxRetries {
		l.logger.Error("recognizer restart failed, voice commands unavailable until restart",
			"attempts", attempt-1,
		)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != ListenerListening {
		return
	}
	l.cancelRetry = l.schedule(l.policy.Delay, func() {
		if !l.listening() || ctx.Err() != nil {
			return
		}
		err := l.recognizer.Start(ctx, l.opts)
		if err == nil {
			l.logger.Info("recognizer restarted", "attempt", attempt)
			return
		}
		if errors.Is(err, ErrPermissionDenied) {
			l.deny()
			return
		}
		l.logger.Warn("restarting recognizer", "error", err, "attempt", attempt)
		l.retry(ctx, attempt+1)
	})
}

func (l *Listener) cancelPendingLocked() {
	if l.cancelRetry != nil {
		l.cancelRetry()
		l.cancelRetry = nil
	}
}
