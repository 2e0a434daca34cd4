package application

import (
	"sync"

	"visionary/internal/domain"
)

// Session owns every piece of mutable state shared by the Controller,
// Listener and dashboard. Changes are pushed to the attached Presenter after
// the lock is released.
type Session struct {
	mu        sync.Mutex
	capture   domain.CaptureState
	muted     bool
	listening bool
	welcomed  bool
	inFlight  int
	applied   uint64
	caption   string
	errText   string
	presenter Presenter
}

func NewSession() *Session {
	return &Session{
		capture:   domain.CaptureIdle,
		listening: true,
		presenter: &NoopPresenter{},
	}
}

// Attach replaces the presenter and renders the current state to it.
func (s *Session) Attach(p Presenter) {
	if p == nil {
		p = &NoopPresenter{}
	}
	s.mu.Lock()
	s.presenter = p
	s.mu.Unlock()
	s.publish()
}

func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Listening: s.listening,
		Muted:     s.muted,
		Capture:   s.capture,
		Loading:   s.inFlight > 0,
		Caption:   s.caption,
		Error:     s.errText,
	}
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture == domain.CaptureActive
}

func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// SetMuted reports whether the flag actually changed.
func (s *Session) SetMuted(muted bool) bool {
	s.mu.Lock()
	if s.muted == muted {
		s.mu.Unlock()
		return false
	}
	s.muted = muted
	s.mu.Unlock()
	s.publish()
	return true
}

func (s *Session) SetListening(listening bool) {
	s.mu.Lock()
	changed := s.listening != listening
	s.listening = listening
	s.mu.Unlock()
	if changed {
		s.publish()
	}
}

// Welcome flips the one-shot welcome flag and reports whether this was the
// first call of the session.
func (s *Session) Welcome() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := !s.welcomed
	s.welcomed = true
	return first
}

func (s *Session) setCapture(state domain.CaptureState) {
	s.mu.Lock()
	s.capture = state
	s.mu.Unlock()
	s.publish()
}

func (s *Session) beginRequest() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	s.publish()
}

// complete applies the result of capture cycle seq. Results older than the
// newest applied one are dropped. It returns whether the result was applied
// and the mute flag at that moment.
func (s *Session) complete(seq uint64, caption, errText string) (applied, muted bool) {
	s.mu.Lock()
	if s.inFlight > 0 {
		s.inFlight--
	}
	if seq < s.applied {
		s.mu.Unlock()
		s.publish()
		return false, false
	}
	s.applied = seq
	s.caption = caption
	s.errText = errText
	muted = s.muted
	s.mu.Unlock()
	s.publish()
	return true, muted
}

// abandon releases an in-flight slot without touching the caption.
func (s *Session) abandon() {
	s.mu.Lock()
	if s.inFlight > 0 {
		s.inFlight--
	}
	s.mu.Unlock()
	s.publish()
}

func (s *Session) setError(errText string) {
	s.mu.Lock()
	s.errText = errText
	s.mu.Unlock()
	s.publish()
}

func (s *Session) preview(frame []byte) {
	s.mu.Lock()
	p := s.presenter
	s.mu.Unlock()
	p.Preview(frame)
}

func (s *Session) publish() {
	s.mu.Lock()
	p := s.presenter
	snap := s.snapshotLocked()
	s.mu.Unlock()
	p.Render(snap)
}
