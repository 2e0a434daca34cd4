package application

import (
	"context"
	"errors"
	"log/slog"
)

// Assistant boots voice control, then keeps the session alive until ctx is
// cancelled and tears everything down.
type Assistant struct {
	listener   *Listener
	controller *Controller
	narrator   *Narrator
	logger     *slog.Logger
}

func NewAssistant(
	listener *Listener,
	controller *Controller,
	narrator *Narrator,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		listener:   listener,
		controller: controller,
		narrator:   narrator,
		logger:     logger,
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	defer a.controller.Shutdown()

	if a.listener.Initialize() {
		if err := a.listener.Start(ctx); err != nil {
			a.logger.Error("starting voice commands", "error", err)
			if !errors.Is(err, ErrPermissionDenied) {
				a.narrator.Speak(MsgVoiceStartFailed)
			}
		} else {
			a.narrator.Speak(MsgReady)
		}
		defer a.listener.Stop()
	}

	a.logger.Info("assistant ready", "capture_interval", a.controller.Interval())

	<-ctx.Done()
	a.logger.Info("assistant stopping")
	return ctx.Err()
}
