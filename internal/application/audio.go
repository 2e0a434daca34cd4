package application

import "context"

// SpeechToText turns a recorded utterance into text.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}
