// Package camera provides frame acquisition for the detection pipeline.
package camera

import "fmt"

// Config holds camera capture settings.
type Config struct {
	DeviceID  int // V4L2 device index
	Width     int // Capture width in pixels
	Height    int // Capture height in pixels
	Framerate int // Frames per second
	Quality   int // JPEG encode quality (1-100)
}

// DefaultConfig returns the recommended capture configuration.
func DefaultConfig() Config {
	return Config{
		DeviceID:  0,
		Width:     640,
		Height:    480,
		Framerate: 15,
		Quality:   85,
	}
}

// LowPowerConfig reduces resolution and framerate for constrained boards.
func LowPowerConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 10
	return cfg
}

// HighDetailConfig raises resolution for recognition-quality snapshots.
func HighDetailConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	cfg.Quality = 92
	return cfg
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("camera: invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.Framerate <= 0 {
		return fmt.Errorf("camera: invalid framerate %d", c.Framerate)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("camera: invalid JPEG quality %d", c.Quality)
	}
	return nil
}
