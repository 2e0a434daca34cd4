package application

import "context"

// Camera is the capture device owned by the Controller.
type Camera interface {
	Open(ctx context.Context) error
	// Grab returns the current frame as JPEG, or nil when no frame is ready.
	Grab() ([]byte, error)
	// Close stops every live track backing the stream.
	Close() error
	LiveTracks() int
	Name() string
}

type CameraSettings struct {
	Width      int
	Height     int
	FacingMode string
}

func DefaultCameraSettings() CameraSettings {
	return CameraSettings{
		Width:      640,
		Height:     480,
		FacingMode: "environment",
	}
}
