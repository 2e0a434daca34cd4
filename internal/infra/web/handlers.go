package web

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(indexHTML)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(NewStatus(s.status.Snapshot()))
}

func (s *Server) handleCameraStart(c *fiber.Ctx) error {
	s.controls.Start()
	return s.handleStatus(c)
}

func (s *Server) handleCameraStop(c *fiber.Ctx) error {
	s.controls.Stop()
	return s.handleStatus(c)
}

// handleDescribe backs the Describe Now button, which only exists while the
// camera is open and is disabled during a request.
func (s *Server) handleDescribe(c *fiber.Ctx) error {
	snap := s.status.Snapshot()
	if !snap.Capturing() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "camera is not open",
		})
	}
	if snap.Loading {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "description in progress",
		})
	}

	s.controls.CaptureOnce()
	return c.Status(fiber.StatusAccepted).JSON(NewStatus(s.status.Snapshot()))
}

func (s *Server) handleMute(c *fiber.Ctx) error {
	s.controls.Mute()
	return s.handleStatus(c)
}

func (s *Server) handleUnmute(c *fiber.Ctx) error {
	s.controls.Unmute()
	return s.handleStatus(c)
}

type TranscriptRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTranscript(c *fiber.Ctx) error {
	if s.transcripts == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "text commands are not enabled",
		})
	}

	var req TranscriptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	err := s.transcripts.Submit(req.Text)
	switch {
	case errors.Is(err, ErrEmptyTranscript):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrNotListening), errors.Is(err, ErrRecognizerBusy):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": req.Text})
}

// handleStatusWS greets each client with the current status so the page
// renders before the next change.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	var greeting *Message
	if data, err := json.Marshal(NewStatus(s.status.Snapshot())); err == nil {
		msg := NewJSONMessage(data)
		greeting = &msg
	}
	NewClient(s.statusHub, c).Run(greeting)
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	NewClient(s.cameraHub, c).Run(nil)
}
