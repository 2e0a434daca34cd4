//go:build gocv
// +build gocv

package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"visionary/internal/application"
	"visionary/internal/infra"
)

// DeviceAvailable reports whether this build can open capture devices.
const DeviceAvailable = true

// Device captures from a local video device through OpenCV.
type Device struct {
	index    int
	settings application.CameraSettings
	retry    infra.RetryConfig
	logger   *slog.Logger

	mu      sync.Mutex
	capture *gocv.VideoCapture
}

func NewDevice(index int, settings application.CameraSettings, logger *slog.Logger) *Device {
	return &Device{
		index:    index,
		settings: settings,
		retry:    infra.DefaultRetryConfig(),
		logger:   logger,
	}
}

func (d *Device) Name() string {
	return fmt.Sprintf("device:%d", d.index)
}

func (d *Device) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture != nil {
		return nil
	}

	var vc *gocv.VideoCapture
	err := infra.WithRetry(ctx, d.retry, func() error {
		c, err := gocv.OpenVideoCapture(d.index)
		if err != nil {
			return fmt.Errorf("opening video device %d: %w", d.index, err)
		}
		if !c.IsOpened() {
			c.Close()
			return fmt.Errorf("video device %d not opened", d.index)
		}
		vc = c
		return nil
	})
	if err != nil {
		return err
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.settings.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.settings.Height))
	d.capture = vc

	d.logger.Debug("video device opened",
		"index", d.index,
		"width", d.settings.Width,
		"height", d.settings.Height,
	)
	return nil
}

func (d *Device) Grab() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, nil
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := d.capture.Read(&img); !ok || img.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	if err != nil {
		return fmt.Errorf("closing video device: %w", err)
	}
	return nil
}

func (d *Device) LiveTracks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capture != nil {
		return 1
	}
	return 0
}
