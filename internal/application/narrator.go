package application

import "log/slog"

// Narrator is the speech output adapter: every Speak interrupts whatever is
// queued or playing. A nil synthesizer makes it silent.
type Narrator struct {
	synth  Synthesizer
	logger *slog.Logger
}

func NewNarrator(synth Synthesizer, logger *slog.Logger) *Narrator {
	return &Narrator{synth: synth, logger: logger}
}

func (n *Narrator) Speak(text string) {
	if n == nil || n.synth == nil || text == "" {
		return
	}
	n.synth.Cancel()
	if err := n.synth.Speak(text); err != nil {
		n.logger.Warn("speaking", "error", err, "text", text)
	}
}

func (n *Narrator) Cancel() {
	if n == nil || n.synth == nil {
		return
	}
	n.synth.Cancel()
}
