package audio

import (
	"math"
	"time"
)

type SegmenterConfig struct {
	SampleRate int
	FrameSize  int
	// Threshold is the frame RMS above which a frame counts as speech.
	Threshold float64
	Silence   time.Duration
	MaxLength time.Duration
}

func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		SampleRate: 16000,
		FrameSize:  320,
		Threshold:  0.015,
		Silence:    600 * time.Millisecond,
		MaxLength:  10 * time.Second,
	}
}

// Segmenter splits a stream of PCM frames into utterances: speech starts
// at the first loud frame and ends after a run of quiet frames or when the
// maximum length is reached.
type Segmenter struct {
	cfg          SegmenterConfig
	silentFrames int
	maxSamples   int

	speaking bool
	quiet    int
	buf      []float32
}

func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	frameDur := time.Duration(cfg.FrameSize) * time.Second / time.Duration(cfg.SampleRate)
	silent := int(cfg.Silence / frameDur)
	if silent < 1 {
		silent = 1
	}
	return &Segmenter{
		cfg:          cfg,
		silentFrames: silent,
		maxSamples:   int(cfg.MaxLength.Seconds() * float64(cfg.SampleRate)),
	}
}

// Speaking reports whether an utterance is in progress.
func (s *Segmenter) Speaking() bool {
	return s.speaking
}

// Push feeds one frame and returns a completed utterance, if any.
func (s *Segmenter) Push(frame []float32) ([]float32, bool) {
	loud := FrameRMS(frame) > s.cfg.Threshold

	if !s.speaking {
		if !loud {
			return nil, false
		}
		s.speaking = true
		s.quiet = 0
	}

	s.buf = append(s.buf, frame...)
	if loud {
		s.quiet = 0
	} else {
		s.quiet++
	}

	if s.quiet >= s.silentFrames || len(s.buf) >= s.maxSamples {
		out := s.buf
		s.Reset()
		return out, true
	}
	return nil, false
}

func (s *Segmenter) Reset() {
	s.speaking = false
	s.quiet = 0
	s.buf = nil
}

func FrameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var sum float64
	for _, x := range f {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum / float64(len(f)))
}
