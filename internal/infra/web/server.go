// Package web serves the VisionaryAI dashboard: session status over a
// websocket, camera preview frames and manual controls.
package web

import (
	_ "embed"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"visionary/internal/domain"
)

//go:embed static/index.html
var indexHTML []byte

// Controls are the manual actions behind the dashboard buttons.
type Controls interface {
	Start()
	Stop()
	CaptureOnce()
	Mute()
	Unmute()
}

type StatusSource interface {
	Snapshot() domain.Snapshot
}

type Options struct {
	Addr       string
	RateLimit  int
	RateWindow time.Duration
}

// Status is the JSON document served on /api/status and /ws/status.
type Status struct {
	domain.Snapshot
	StatusLine  string `json:"status_line"`
	CaptionText string `json:"caption_text"`
}

func NewStatus(s domain.Snapshot) Status {
	return Status{
		Snapshot:    s,
		StatusLine:  s.StatusLine(),
		CaptionText: s.CaptionText(),
	}
}

// Server is the dashboard. It is also the session's Presenter.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	controls    Controls
	status      StatusSource
	transcripts *TextRecognizer
	limiter     *RateLimiter

	statusHub *Hub
	cameraHub *Hub
}

// NewServer builds the dashboard. transcripts may be nil when voice
// commands come from elsewhere.
func NewServer(opts Options, controls Controls, status StatusSource, transcripts *TextRecognizer, logger *slog.Logger) *Server {
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	s := &Server{
		addr:        opts.Addr,
		logger:      logger,
		controls:    controls,
		status:      status,
		transcripts: transcripts,
		limiter:     NewRateLimiter(opts.RateLimit, opts.RateWindow),
		statusHub:   NewHub("status", logger),
		cameraHub:   NewHub("camera", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "VisionaryAI",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	limit := s.limiter.Handler()
	api.Post("/camera/start", limit, s.handleCameraStart)
	api.Post("/camera/stop", limit, s.handleCameraStop)
	api.Post("/describe", limit, s.handleDescribe)
	api.Post("/mute", limit, s.handleMute)
	api.Post("/unmute", limit, s.handleUnmute)
	api.Post("/transcript", limit, s.handleTranscript)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and blocks serving until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("dashboard listening", "addr", s.addr)

	go s.statusHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(s.addr)
}

func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server stopped", "error", err)
		}
	}()
}

func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.cameraHub.Stop()
	return s.app.Shutdown()
}

func (s *Server) Render(snapshot domain.Snapshot) {
	if err := s.statusHub.BroadcastJSON(NewStatus(snapshot)); err != nil {
		s.logger.Warn("encoding status", "error", err)
	}
}

func (s *Server) Preview(frame []byte) {
	s.cameraHub.BroadcastBinary(frame)
}

func (s *Server) StatusHub() *Hub {
	return s.statusHub
}

func (s *Server) CameraHub() *Hub {
	return s.cameraHub
}
