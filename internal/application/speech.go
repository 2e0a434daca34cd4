package application

// Synthesizer is the text-to-speech capability: a fire-and-forget utterance
// queue with explicit cancel.
type Synthesizer interface {
	Speak(text string) error
	Cancel()
}
