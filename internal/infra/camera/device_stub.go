//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"fmt"
	"log/slog"

	"visionary/internal/application"
)

// DeviceAvailable reports whether this build can open capture devices.
const DeviceAvailable = false

// Device stub when gocv is not available
type Device struct {
	index int
}

func NewDevice(index int, _ application.CameraSettings, _ *slog.Logger) *Device {
	return &Device{index: index}
}

func (d *Device) Name() string {
	return fmt.Sprintf("device:%d", d.index)
}

func (d *Device) Open(_ context.Context) error {
	return fmt.Errorf("camera device not available: rebuild with -tags gocv")
}

func (d *Device) Grab() ([]byte, error) { return nil, nil }
func (d *Device) Close() error          { return nil }
func (d *Device) LiveTracks() int       { return 0 }
