package application

import "context"

type RecognitionEventType string

const (
	EventResult RecognitionEventType = "result"
	EventError  RecognitionEventType = "error"
	EventEnd    RecognitionEventType = "end"
)

// RecognitionError mirrors the error codes reported by speech recognizers.
type RecognitionError string

const (
	ErrorNotAllowed        RecognitionError = "not-allowed"
	ErrorServiceNotAllowed RecognitionError = "service-not-allowed"
	ErrorNoSpeech          RecognitionError = "no-speech"
	ErrorAudioCapture      RecognitionError = "audio-capture"
	ErrorNetwork           RecognitionError = "network"
)

func (e RecognitionError) PermissionDenied() bool {
	return e == ErrorNotAllowed || e == ErrorServiceNotAllowed
}

// RecognitionEvent is delivered on the recognizer's event channel. Results
// holds every final transcript of the current recognition session, oldest
// first.
type RecognitionEvent struct {
	Type    RecognitionEventType
	Results []string
	Error   RecognitionError
	Err     error
}

type RecognizerOptions struct {
	Continuous     bool
	InterimResults bool
	Language       string
}

func DefaultRecognizerOptions() RecognizerOptions {
	return RecognizerOptions{
		Continuous:     true,
		InterimResults: false,
		Language:       "en-US",
	}
}

// Recognizer is the speech-to-text capability. Events stays open for the
// recognizer's lifetime and spans restarts.
type Recognizer interface {
	Start(ctx context.Context, opts RecognizerOptions) error
	Stop() error
	Events() <-chan RecognitionEvent
	Name() string
}
