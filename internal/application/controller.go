package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"visionary/internal/domain"
)

// DefaultCaptureInterval is the period between automatic capture cycles.
const DefaultCaptureInterval = 7 * time.Second

// Ticker is the repeating timer that drives automatic capture cycles.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type ControllerOption func(*Controller)

func WithCaptureInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithTickerFactory(f TickerFactory) ControllerOption {
	return func(c *Controller) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// Controller owns the camera lifecycle and the capture loop. It is the only
// writer of the capture state.
type Controller struct {
	session   *Session
	camera    Camera
	describer Describer
	narrator  *Narrator
	logger    *slog.Logger
	interval  time.Duration
	newTicker TickerFactory

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	stopLoop chan struct{}
	loopDone chan struct{}

	seq      atomic.Uint64
	inFlight sync.WaitGroup
}

func NewController(
	session *Session,
	camera Camera,
	describer Describer,
	narrator *Narrator,
	logger *slog.Logger,
	opts ...ControllerOption,
) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		session:   session,
		camera:    camera,
		describer: describer,
		narrator:  narrator,
		logger:    logger,
		interval:  DefaultCaptureInterval,
		newTicker: newTimeTicker,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Interval() time.Duration {
	return c.interval
}

// Start opens the camera and begins describing. It is a no-op while active.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Active() {
		return
	}

	if err := c.camera.Open(c.ctx); err != nil {
		c.logger.Error("opening camera", "camera", c.camera.Name(), "error", err)
		c.session.setError("Error: " + err.Error())
		c.narrator.Speak(MsgCameraFailed)
		return
	}

	if c.session.Welcome() {
		c.narrator.Speak(MsgWelcome)
	} else {
		c.narrator.Speak(MsgCameraOpened)
	}

	c.session.setCapture(domain.CaptureActive)
	c.logger.Info("camera opened", "camera", c.camera.Name(), "interval", c.interval)

	c.stopLoop = make(chan struct{})
	c.loopDone = make(chan struct{})
	go c.loop(c.newTicker(c.interval), c.stopLoop, c.loopDone)
}

func (c *Controller) loop(ticker Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	c.CaptureOnce()

	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C():
			c.CaptureOnce()
		}
	}
}

// Stop disarms the timer and releases the camera. Outstanding description
// requests are left to finish. It is a no-op while idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Active() {
		return
	}

	c.narrator.Speak(MsgCameraClosed)
	c.haltLocked()
	c.session.setCapture(domain.CaptureIdle)
	c.logger.Info("camera closed")
}

func (c *Controller) haltLocked() {
	if c.stopLoop != nil {
		close(c.stopLoop)
		<-c.loopDone
		c.stopLoop = nil
		c.loopDone = nil
	}
	if err := c.camera.Close(); err != nil {
		c.logger.Warn("closing camera", "error", err)
	}
	if n := c.camera.LiveTracks(); n > 0 {
		c.logger.Warn("camera tracks still live after close", "tracks", n)
	}
}

// Shutdown releases the camera without announcing and aborts in-flight
// requests. Used on process teardown.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.session.Active() {
		c.haltLocked()
		c.session.setCapture(domain.CaptureIdle)
	}
	c.mu.Unlock()

	c.cancel()
	c.inFlight.Wait()
}

// Wait blocks until every in-flight description request has completed.
func (c *Controller) Wait() {
	c.inFlight.Wait()
}

// DescribeNow is the voice-triggered capture.
func (c *Controller) DescribeNow() {
	if !c.session.Active() {
		c.narrator.Speak(MsgOpenCameraFirst)
		return
	}
	c.narrator.Speak(MsgDescribingNow)
	c.CaptureOnce()
}

func (c *Controller) Mute() {
	if c.session.SetMuted(true) {
		c.narrator.Speak(MsgAudioDisabled)
	}
}

func (c *Controller) Unmute() {
	if c.session.SetMuted(false) {
		c.narrator.Speak(MsgAudioEnabled)
	}
}

// CaptureOnce grabs a frame and starts one description request. Nothing
// happens when the camera has no frame ready.
func (c *Controller) CaptureOnce() {
	frame, err := c.camera.Grab()
	if err != nil {
		c.logger.Warn("grabbing frame", "error", err)
		return
	}
	if len(frame) == 0 {
		c.logger.Debug("no frame available")
		return
	}

	c.session.preview(frame)

	seq := c.seq.Add(1)
	id := uuid.NewString()
	c.session.beginRequest()
	c.inFlight.Add(1)

	go func() {
		defer c.inFlight.Done()
		c.describe(seq, id, frame)
	}()
}

func (c *Controller) describe(seq uint64, id string, frame []byte) {
	logger := c.logger.With("cycle", id, "seq", seq)
	start := time.Now()

	text, err := c.describer.Describe(c.ctx, frame)
	if c.ctx.Err() != nil {
		c.session.abandon()
		return
	}

	caption, errText, spoken := outcome(text, err)
	if errText != "" {
		logger.Error("describing frame", "error", err, "duration", time.Since(start))
	} else {
		logger.Info("described frame", "caption", caption, "duration", time.Since(start))
	}

	applied, muted := c.session.complete(seq, caption, errText)
	if !applied {
		logger.Debug("discarding stale description")
		return
	}
	if !muted {
		c.narrator.Speak(spoken)
	}
}

// outcome maps a describe result to the caption, the error line and the
// text read aloud.
func outcome(text string, err error) (caption, errText, spoken string) {
	switch {
	case err == nil && text != "":
		return text, "", text
	case err == nil, errors.Is(err, domain.ErrEmptyResponse):
		return domain.FallbackCaption, "", domain.FallbackCaption
	default:
		msg := err.Error()
		if msg == "" {
			msg = "Failed to process image"
		}
		caption = "Error: " + msg
		return caption, caption, MsgProcessingError
	}
}
