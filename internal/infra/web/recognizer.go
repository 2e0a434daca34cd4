package web

import (
	"context"
	"errors"
	"strings"
	"sync"

	"visionary/internal/application"
)

// maxResults bounds the transcript history carried by each result event.
const maxResults = 32

var (
	ErrNotListening    = errors.New("voice commands are not active")
	ErrEmptyTranscript = errors.New("empty transcript")
	ErrRecognizerBusy  = errors.New("recognizer event queue full")
)

// TextRecognizer turns transcripts posted to the dashboard into recognition
// results. It never ends a session on its own.
type TextRecognizer struct {
	events chan application.RecognitionEvent

	mu         sync.Mutex
	running    bool
	continuous bool
	results    []string
}

func NewTextRecognizer() *TextRecognizer {
	return &TextRecognizer{
		events: make(chan application.RecognitionEvent, 16),
	}
}

func (r *TextRecognizer) Name() string {
	return "web"
}

func (r *TextRecognizer) Events() <-chan application.RecognitionEvent {
	return r.events
}

func (r *TextRecognizer) Start(_ context.Context, opts application.RecognizerOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return application.ErrAlreadyStarted
	}
	r.running = true
	r.continuous = opts.Continuous
	r.results = nil
	return nil
}

func (r *TextRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return ErrNotListening
	}
	r.running = false
	return nil
}

func (r *TextRecognizer) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Submit delivers one final transcript.
func (r *TextRecognizer) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyTranscript
	}

	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotListening
	}
	if r.continuous {
		r.results = append(r.results, text)
		if n := len(r.results); n > maxResults {
			r.results = append([]string(nil), r.results[n-maxResults:]...)
		}
	} else {
		r.results = []string{text}
	}
	ev := application.RecognitionEvent{
		Type:    application.EventResult,
		Results: append([]string(nil), r.results...),
	}
	r.mu.Unlock()

	select {
	case r.events <- ev:
		return nil
	default:
		return ErrRecognizerBusy
	}
}
