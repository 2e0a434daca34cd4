package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// BeepPlayer decodes MP3 and plays it on the default output device. The
// device is opened once at a fixed rate and every clip is resampled to it.
type BeepPlayer struct {
	rate beep.SampleRate

	mu     sync.Mutex
	inited bool
}

func NewBeepPlayer(sampleRate int) *BeepPlayer {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &BeepPlayer{rate: beep.SampleRate(sampleRate)}
}

func (p *BeepPlayer) init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inited {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	p.inited = true
	return nil
}

func (p *BeepPlayer) Play(ctx context.Context, audio []byte) error {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(audio)))
	if err != nil {
		return fmt.Errorf("decoding mp3: %w", err)
	}
	defer streamer.Close()

	if err := p.init(); err != nil {
		return err
	}

	var s beep.Streamer = streamer
	if format.SampleRate != p.rate {
		s = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	inited := p.inited
	p.mu.Unlock()
	if inited {
		speaker.Clear()
	}
}
