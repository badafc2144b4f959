package camera

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrClosed is returned when reading from a closed capture.
var ErrClosed = errors.New("camera: capture closed")

// Source provides JPEG snapshots of the latest frame.
// The returned slice is owned by the caller and never mutated afterwards.
type Source interface {
	CaptureJPEG() ([]byte, error)
}

// FrameReader provides raw frames for per-frame processing.
type FrameReader interface {
	// Read fills dst with the next frame. Returns false when the
	// source is exhausted or closed.
	Read(dst *gocv.Mat) bool
}

// Capture wraps a V4L2 camera device. It satisfies both Source and
// FrameReader so the motion detector and the coordinator can share
// one device.
type Capture struct {
	cfg Config

	mu     sync.Mutex
	dev    *gocv.VideoCapture
	frame  gocv.Mat
	closed bool
}

// Open opens the configured camera device.
func Open(cfg Config) (*Capture, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dev, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.DeviceID, err)
	}

	dev.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	dev.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	dev.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &Capture{
		cfg:   cfg,
		dev:   dev,
		frame: gocv.NewMat(),
	}, nil
}

// Config returns the capture configuration.
func (c *Capture) Config() Config {
	return c.cfg
}

// Read fills dst with the next frame from the device.
func (c *Capture) Read(dst *gocv.Mat) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if ok := c.dev.Read(&c.frame); !ok || c.frame.Empty() {
		return false
	}
	c.frame.CopyTo(dst)
	return true
}

// CaptureJPEG grabs the latest frame and encodes it as JPEG.
func (c *Capture) CaptureJPEG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if ok := c.dev.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, errors.New("camera: failed to read frame")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, c.frame,
		[]int{gocv.IMWriteJpegQuality, c.cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("camera: encode frame: %w", err)
	}
	defer buf.Close()

	// Copy out so the snapshot stays valid after the buffer is released.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the camera device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.frame.Close()
	return c.dev.Close()
}
