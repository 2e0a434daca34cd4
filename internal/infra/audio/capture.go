package audio

import (
	"context"
	"log/slog"
	"time"

	"visionary/internal/application"
)

// frameReader fills the capture buffer with the next block of samples.
type frameReader interface {
	Read() error
}

// captureLoop is one recognition session over an input stream. Finished
// utterances are handed to a transcription goroutine so reading never waits
// on the network.
type captureLoop struct {
	reader      frameReader
	buf         []float32
	stt         application.SpeechToText
	cfg         SegmenterConfig
	idleTimeout time.Duration
	opts        application.RecognizerOptions
	// recoverable reports read errors after which capture continues.
	recoverable func(error) bool
	emit        func(context.Context, application.RecognitionEvent)
	logger      *slog.Logger
}

// run reads until the session ends on its own, which it reports, or ctx is
// cancelled. Pending transcriptions finish before it returns.
func (c *captureLoop) run(ctx context.Context) bool {
	utterances := make(chan []float32, 4)
	transcribed := make(chan struct{})
	go func() {
		defer close(transcribed)
		c.transcribe(ctx, utterances)
	}()

	ended := c.read(ctx, utterances)
	close(utterances)
	<-transcribed
	return ended
}

func (c *captureLoop) read(ctx context.Context, out chan<- []float32) bool {
	seg := NewSegmenter(c.cfg)
	lastSpeech := time.Now()

	for {
		if ctx.Err() != nil {
			return false
		}

		if err := c.reader.Read(); err != nil {
			if c.recoverable != nil && c.recoverable(err) {
				c.logger.Debug("input overflowed, continuing", "error", err)
				continue
			}
			c.emit(ctx, application.RecognitionEvent{
				Type:  application.EventError,
				Error: application.ErrorAudioCapture,
				Err:   err,
			})
			return true
		}

		frame := append([]float32(nil), c.buf...)
		utterance, complete := seg.Push(frame)
		if seg.Speaking() || complete {
			lastSpeech = time.Now()
		}

		if complete {
			select {
			case out <- utterance:
			default:
				c.logger.Warn("transcription backlog full, dropping utterance")
			}
			if !c.opts.Continuous {
				return true
			}
		}

		if time.Since(lastSpeech) > c.idleTimeout {
			c.logger.Debug("no speech, ending recognition session")
			return true
		}
	}
}

func (c *captureLoop) transcribe(ctx context.Context, in <-chan []float32) {
	var results []string
	for utterance := range in {
		text, err := c.stt.Transcribe(ctx, EncodeWAV(utterance, c.cfg.SampleRate))
		switch {
		case err != nil && ctx.Err() == nil:
			c.emit(ctx, application.RecognitionEvent{
				Type:  application.EventError,
				Error: application.ErrorNetwork,
				Err:   err,
			})
		case err == nil && text != "":
			if c.opts.Continuous {
				results = append(results, text)
			} else {
				results = []string{text}
			}
			c.emit(ctx, application.RecognitionEvent{
				Type:    application.EventResult,
				Results: append([]string(nil), results...),
			})
		}
	}
}
