//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"visionary/internal/application"
)

// MicrophoneAvailable reports whether this build can capture audio.
const MicrophoneAvailable = false

// MicrophoneRecognizer stub when portaudio is not available
type MicrophoneRecognizer struct {
	logger *slog.Logger
	events chan application.RecognitionEvent
}

func NewMicrophoneRecognizer(_ application.SpeechToText, _ SegmenterConfig, _ time.Duration, logger *slog.Logger) *MicrophoneRecognizer {
	return &MicrophoneRecognizer{
		logger: logger,
		events: make(chan application.RecognitionEvent),
	}
}

func (m *MicrophoneRecognizer) Name() string {
	return "microphone"
}

func (m *MicrophoneRecognizer) Events() <-chan application.RecognitionEvent {
	return m.events
}

func (m *MicrophoneRecognizer) Start(_ context.Context, _ application.RecognizerOptions) error {
	return fmt.Errorf("microphone recognizer not available, rebuild with -tags portaudio: %w", application.ErrCapabilityUnavailable)
}

func (m *MicrophoneRecognizer) Stop() error {
	return nil
}
