package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimiro1/banner"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"visionary/config"
	"visionary/internal/application"
	"visionary/internal/infra"
	"visionary/internal/infra/audio"
	"visionary/internal/infra/camera"
	"visionary/internal/infra/gemini"
	"visionary/internal/infra/openai"
	"visionary/internal/infra/openrouter"
	"visionary/internal/infra/web"
)

const bannerTemplate = "{{ .Title \"VisionaryAI\" \"\" 0 }}\n"

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	configPath := cli.StringP("config", "c", "config.yaml", "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level, overrides log.level")
	cli.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("loading env file", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if cfg.Log.Format != "json" {
		banner.Init(os.Stdout, true, true, bytes.NewBufferString(bannerTemplate))
	}

	logger := setupLogger(cfg.Log)
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient, err := infra.NewHTTPClient(cfg.Vision.TimeoutDuration(), cfg.Vision.Proxy)
	if err != nil {
		logger.Error("creating http client", "error", err)
		os.Exit(1)
	}

	describer := createDescriber(cfg.Vision, httpClient)

	synth, closeSynth := createSynthesizer(cfg.Speech, httpClient, logger)
	defer closeSynth()

	session := application.NewSession()
	narrator := application.NewNarrator(synth, logger.With("component", "narrator"))

	controller := application.NewController(
		session,
		createCamera(cfg.Camera, logger),
		describer,
		narrator,
		logger.With("component", "controller"),
		application.WithCaptureInterval(cfg.Capture.IntervalDuration()),
	)
	dispatcher := application.NewDispatcher(controller, logger.With("component", "dispatcher"))

	var transcripts *web.TextRecognizer
	if cfg.Web.Enabled {
		transcripts = web.NewTextRecognizer()
	}
	recognizer := createRecognizer(cfg.Recognizer, transcripts, httpClient, logger)

	recOpts := application.DefaultRecognizerOptions()
	recOpts.Language = cfg.Recognizer.Language
	listener := application.NewListener(
		recognizer,
		dispatcher,
		narrator,
		session,
		logger.With("component", "listener"),
		application.WithRecognizerOptions(recOpts),
	)

	if cfg.Web.Enabled {
		server := web.NewServer(web.Options{
			Addr:       cfg.Web.Addr,
			RateLimit:  cfg.Web.RateLimit,
			RateWindow: cfg.Web.RateWindowDuration(),
		}, controller, session, transcripts, logger.With("component", "web"))
		session.Attach(server)
		server.StartAsync()
		defer server.Shutdown()
	}

	assistant := application.NewAssistant(listener, controller, narrator, logger)

	logger.Info("starting visionary",
		"vision_provider", cfg.Vision.Provider,
		"camera", cfg.Camera.Source,
		"speech", cfg.Speech.Engine,
		"recognizer", cfg.Recognizer.Source,
	)

	if err := assistant.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func createDescriber(cfg config.VisionConfig, httpClient *http.Client) application.Describer {
	switch cfg.Provider {
	case "openai":
		return openai.NewVisionClient(openai.VisionOptions{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			HTTPClient:  httpClient,
		})
	case "gemini":
		return gemini.NewClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL, httpClient).
			WithGeneration(cfg.MaxTokens, *cfg.Temperature)
	default:
		return openrouter.NewClient(openrouter.Options{
			APIKey:        cfg.APIKey,
			Model:         cfg.Model,
			BaseURL:       cfg.BaseURL,
			Referer:       cfg.Referer,
			Title:         cfg.Title,
			MaxTokens:     cfg.MaxTokens,
			Temperature:   cfg.Temperature,
			AllowTraining: cfg.AllowTraining,
			HTTPClient:    httpClient,
		})
	}
}

func createSynthesizer(cfg config.SpeechConfig, httpClient *http.Client, logger *log.Logger) (application.Synthesizer, func()) {
	if cfg.Engine == "log" {
		return audio.NewLogSpeaker(logger.With("component", "speech")), func() {}
	}

	client := openai.NewSpeechClientWithURL(cfg.APIKey, cfg.Model, cfg.Voice, openai.DefaultBaseURL, httpClient)
	speaker := audio.NewSpeaker(client, audio.NewBeepPlayer(cfg.SampleRate), logger.With("component", "speech"))
	return speaker, func() {
		if err := speaker.Close(); err != nil {
			logger.Warn("closing speaker", "error", err)
		}
	}
}

func createCamera(cfg config.CameraConfig, logger *log.Logger) application.Camera {
	if cfg.Source == "file" {
		return camera.NewFileSource(cfg.Dir)
	}

	if !camera.DeviceAvailable {
		logger.Warn("camera device support not built in, replaying frames from disk", "dir", cfg.Dir)
		return camera.NewFileSource(cfg.Dir)
	}
	return camera.NewDevice(cfg.Index, application.CameraSettings{
		Width:      cfg.Width,
		Height:     cfg.Height,
		FacingMode: cfg.Facing,
	}, logger.With("component", "camera"))
}

// createRecognizer returns nil when no recognizer can run, which the
// listener reports as missing speech recognition.
func createRecognizer(cfg config.RecognizerConfig, transcripts *web.TextRecognizer, httpClient *http.Client, logger *log.Logger) application.Recognizer {
	switch cfg.Source {
	case "microphone":
		if audio.MicrophoneAvailable {
			stt := openai.NewWhisperClientWithURL(cfg.APIKey, cfg.Language, openai.DefaultBaseURL, httpClient)
			return audio.NewMicrophoneRecognizer(
				stt,
				audio.DefaultSegmenterConfig(),
				cfg.IdleTimeoutDuration(),
				logger.With("component", "microphone"),
			)
		}
		if transcripts != nil {
			logger.Warn("microphone support not built in, taking commands from the dashboard")
			return transcripts
		}
		return nil
	case "web":
		if transcripts != nil {
			return transcripts
		}
		return nil
	default:
		return nil
	}
}

func setupLogger(cfg config.LogConfig) *log.Logger {
	level, ok := logLevelMap[cfg.Level]
	if !ok {
		level = log.LevelInfo
	}

	if cfg.Format == "json" {
		return log.New(log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: level}))
	}
	return log.New(tint.NewHandler(os.Stdout, &tint.Options{Level: level}))
}
