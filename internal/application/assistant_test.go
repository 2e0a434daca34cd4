package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"visionary/internal/application"
)

func TestAssistant_OpenCameraByVoice(t *testing.T) {
	logger := testLogger()
	session := application.NewSession()
	camera := newMockCamera()
	describer := &mockDescriber{}
	synth := &recordingSynth{}
	ticks := &tickerFactory{}
	recognizer := newMockRecognizer()
	narrator := application.NewNarrator(synth, logger)

	controller := application.NewController(session, camera, describer, narrator, logger,
		application.WithTickerFactory(ticks.New),
	)
	dispatcher := application.NewDispatcher(controller, logger)
	listener := application.NewListener(recognizer, dispatcher, narrator, session, logger)
	assistant := application.NewAssistant(listener, controller, narrator, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- assistant.Run(ctx)
	}()

	waitFor(t, "ready", func() bool { return synth.Said(application.MsgReady) })

	recognizer.events <- application.RecognitionEvent{
		Type:    application.EventResult,
		Results: []string{"Open camera"},
	}

	waitFor(t, "immediate capture", func() bool { return describer.Calls() == 1 })
	if !session.Active() {
		t.Fatal("expected camera active")
	}
	if !synth.Said(application.MsgWelcome) {
		t.Errorf("spoken = %q", synth.Spoken())
	}
	if ticks.Intervals()[0] != 7*time.Second {
		t.Errorf("interval = %v, want 7s", ticks.Intervals()[0])
	}

	if !ticks.Last().tryFire(time.Second) {
		t.Fatal("tick not received")
	}
	waitFor(t, "second capture", func() bool { return describer.Calls() == 2 })

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("assistant did not stop")
	}

	if camera.LiveTracks() != 0 {
		t.Error("camera still live after teardown")
	}
	if listener.State() != application.ListenerStopped {
		t.Errorf("listener state = %s, want stopped", listener.State())
	}
}

func TestAssistant_StartFailureAnnounced(t *testing.T) {
	logger := testLogger()
	session := application.NewSession()
	synth := &recordingSynth{}
	recognizer := newMockRecognizer()
	recognizer.failNextStarts(errors.New("no input device"))
	narrator := application.NewNarrator(synth, logger)

	controller := application.NewController(session, newMockCamera(), &mockDescriber{}, narrator, logger)
	listener := application.NewListener(recognizer, application.NewDispatcher(controller, logger), narrator, session, logger)
	assistant := application.NewAssistant(listener, controller, narrator, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := assistant.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v", err)
	}
	if !synth.Said(application.MsgVoiceStartFailed) {
		t.Errorf("spoken = %q", synth.Spoken())
	}
	if synth.Said(application.MsgReady) {
		t.Error("ready must not be announced after failure")
	}
}

func TestAssistant_WithoutRecognizer(t *testing.T) {
	logger := testLogger()
	session := application.NewSession()
	synth := &recordingSynth{}
	narrator := application.NewNarrator(synth, logger)

	controller := application.NewController(session, newMockCamera(), &mockDescriber{}, narrator, logger)
	listener := application.NewListener(nil, application.NewDispatcher(controller, logger), narrator, session, logger)
	assistant := application.NewAssistant(listener, controller, narrator, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = assistant.Run(ctx)

	if !synth.Said(application.MsgRecognitionMissing) {
		t.Errorf("spoken = %q", synth.Spoken())
	}
	if session.Snapshot().Listening {
		t.Error("expected listening=false")
	}
}
