package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrQueueFull = errors.New("speech queue full")

// Synth turns text into encoded audio.
type Synth interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player plays encoded audio until it finishes or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, audio []byte) error
	Stop()
}

type utterance struct {
	text string
	gen  uint64
}

// Speaker is a queued text-to-speech output. Cancel drops every queued
// utterance and interrupts the one being synthesized or played.
type Speaker struct {
	synth  Synth
	player Player
	logger *slog.Logger
	queue  chan utterance

	ctx  context.Context
	stop context.CancelFunc
	done chan struct{}

	mu      sync.Mutex
	gen     uint64
	current context.CancelFunc
}

func NewSpeaker(synth Synth, player Player, logger *slog.Logger) *Speaker {
	ctx, stop := context.WithCancel(context.Background())
	s := &Speaker{
		synth:  synth,
		player: player,
		logger: logger,
		queue:  make(chan utterance, 16),
		ctx:    ctx,
		stop:   stop,
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Speaker) Speak(text string) error {
	s.mu.Lock()
	u := utterance{text: text, gen: s.gen}
	s.mu.Unlock()

	select {
	case s.queue <- u:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Speaker) Cancel() {
	s.mu.Lock()
	s.gen++
	if s.current != nil {
		s.current()
	}
	s.mu.Unlock()
	s.player.Stop()
}

// Close stops the worker after interrupting any playback.
func (s *Speaker) Close() error {
	s.Cancel()
	s.stop()
	<-s.done
	return nil
}

func (s *Speaker) run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			return
		case u := <-s.queue:
			s.say(u)
		}
	}
}

func (s *Speaker) say(u utterance) {
	s.mu.Lock()
	if u.gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.current = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		cancel()
	}()

	audio, err := s.synth.Synthesize(ctx, u.text)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("synthesizing speech", "error", err, "text", u.text)
		}
		return
	}

	if err := s.player.Play(ctx, audio); err != nil && ctx.Err() == nil {
		s.logger.Warn("playing speech", "error", err)
	}
}

// LogSpeaker is a headless synthesizer that only logs what would be said.
type LogSpeaker struct {
	logger *slog.Logger
}

func NewLogSpeaker(logger *slog.Logger) *LogSpeaker {
	return &LogSpeaker{logger: logger}
}

func (l *LogSpeaker) Speak(text string) error {
	l.logger.Info("speak", "text", text)
	return nil
}

func (l *LogSpeaker) Cancel() {}
