//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"visionary/internal/application"
)

// MicrophoneAvailable reports whether this build can capture audio.
const MicrophoneAvailable = true

// MicrophoneRecognizer captures the default input device, cuts it into
// utterances and transcribes each one. A session ends after IdleTimeout
// without speech, the way platform recognizers end on silence.
type MicrophoneRecognizer struct {
	stt         application.SpeechToText
	cfg         SegmenterConfig
	idleTimeout time.Duration
	logger      *slog.Logger
	events      chan application.RecognitionEvent

	mu      sync.Mutex
	running bool
	stream  *portaudio.Stream
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewMicrophoneRecognizer(stt application.SpeechToText, cfg SegmenterConfig, idleTimeout time.Duration, logger *slog.Logger) *MicrophoneRecognizer {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Second
	}
	return &MicrophoneRecognizer{
		stt:         stt,
		cfg:         cfg,
		idleTimeout: idleTimeout,
		logger:      logger,
		events:      make(chan application.RecognitionEvent, 8),
	}
}

func (m *MicrophoneRecognizer) Name() string {
	return "microphone"
}

func (m *MicrophoneRecognizer) Events() <-chan application.RecognitionEvent {
	return m.events
}

func (m *MicrophoneRecognizer) Start(ctx context.Context, opts application.RecognizerOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return application.ErrAlreadyStarted
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	buf := make([]float32, m.cfg.FrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(buf), buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: opening input device: %v", application.ErrPermissionDenied, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.stream = stream
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	m.logger.Info("microphone started", "sampleRate", m.cfg.SampleRate, "language", opts.Language)

	go func(done chan struct{}) {
		defer close(done)
		defer cancel()
		loop := &captureLoop{
			reader:      stream,
			buf:         buf,
			stt:         m.stt,
			cfg:         m.cfg,
			idleTimeout: m.idleTimeout,
			opts:        opts,
			recoverable: func(err error) bool { return errors.Is(err, portaudio.InputOverflowed) },
			emit:        m.emit,
			logger:      m.logger,
		}
		ended := loop.run(loopCtx)
		m.release(stream)
		if ended {
			m.emit(loopCtx, application.RecognitionEvent{Type: application.EventEnd})
		}
	}(m.done)
	return nil
}

func (m *MicrophoneRecognizer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("microphone not running")
	}
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
	return nil
}

// release runs before End is emitted so a restart from the End handler
// finds the recognizer idle.
func (m *MicrophoneRecognizer) release(stream *portaudio.Stream) {
	stream.Stop()
	stream.Close()
	portaudio.Terminate()

	m.mu.Lock()
	m.running = false
	m.stream = nil
	m.mu.Unlock()
}

func (m *MicrophoneRecognizer) emit(ctx context.Context, ev application.RecognitionEvent) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
	}
}
