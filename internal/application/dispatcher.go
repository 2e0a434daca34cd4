package application

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"visionary/internal/domain"
)

// Actions is what a transcript can trigger. The Controller implements it.
type Actions interface {
	Start()
	Stop()
	Mute()
	Unmute()
	DescribeNow()
}

type Dispatcher struct {
	actions Actions
	logger  *slog.Logger
}

func NewDispatcher(actions Actions, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{actions: actions, logger: logger}
}

// Dispatch runs the action for a normalized transcript and returns the
// command it matched.
func (d *Dispatcher) Dispatch(transcript string) domain.Command {
	cmd := Classify(transcript)

	switch cmd {
	case domain.CommandOpenCamera:
		d.actions.Start()
	case domain.CommandCloseCamera:
		d.actions.Stop()
	case domain.CommandMute:
		d.actions.Mute()
	case domain.CommandUnmute:
		d.actions.Unmute()
	case domain.CommandDescribe:
		d.actions.DescribeNow()
	default:
		d.logger.Debug("ignoring transcript", "text", transcript)
		return cmd
	}

	d.logger.Info("voice command", "command", cmd, "text", transcript)
	return cmd
}

// Classify maps a transcript to a command. Rules are checked in order and
// the first match wins.
func Classify(transcript string) domain.Command {
	t := Normalize(transcript)

	switch {
	case strings.Contains(t, "open camera"), strings.Contains(t, "start camera"):
		return domain.CommandOpenCamera
	case strings.Contains(t, "close camera"), strings.Contains(t, "stop camera"):
		return domain.CommandCloseCamera
	case containsPhrase(t, "mute audio"):
		return domain.CommandMute
	case strings.Contains(t, "unmute audio"):
		return domain.CommandUnmute
	case strings.Contains(t, "start"), strings.Contains(t, "describe"):
		return domain.CommandDescribe
	default:
		return domain.CommandNone
	}
}

// Normalize lower-cases and trims a raw transcript.
func Normalize(transcript string) string {
	return strings.ToLower(strings.TrimSpace(transcript))
}

// containsPhrase matches phrase only where it does not start in the middle of
// a word, so "unmute audio" does not satisfy "mute audio".
func containsPhrase(text, phrase string) bool {
	for from := 0; from <= len(text)-len(phrase); {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		if wordStart(text, start) {
			return true
		}
		from = start + 1
	}
	return false
}

func wordStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
