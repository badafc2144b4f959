// Package app wires capture, detection, recognition and the dashboard
// into one runnable instance.
package app

import (
	"fmt"
	"time"

	"github.com/binsight/go-binsight/internal/config"
	"github.com/binsight/go-binsight/pkg/camera"
	"github.com/binsight/go-binsight/pkg/motion"
	"github.com/binsight/go-binsight/pkg/presence"
	"github.com/binsight/go-binsight/pkg/trigger"
)

// RecognizerMode selects the classification backend.
type RecognizerMode string

const (
	// RecognizerRemote uses an OpenAI-compatible vision API.
	RecognizerRemote RecognizerMode = "remote"
	// RecognizerLocal runs the bundled ONNX classifier on the device.
	RecognizerLocal RecognizerMode = "local"
	// RecognizerMock returns a fixed classification, for development
	// without a model or an API key.
	RecognizerMock RecognizerMode = "mock"
)

// Config holds everything needed to assemble an instance.
type Config struct {
	Camera         camera.Config
	SimulateCamera bool

	Motion motion.Config

	SerialPort       string
	SerialBaud       int
	SimulatePresence bool
	Presence         presence.Config

	Trigger trigger.Config

	Recognizer  RecognizerMode
	RemoteURL   string
	RemoteKey   string
	RemoteModel string
	ModelPath   string

	WebPort string
	// PreviewInterval throttles JPEG pushes to dashboard subscribers.
	PreviewInterval time.Duration
}

// DefaultConfig returns a runnable configuration for a bench setup.
func DefaultConfig() Config {
	return Config{
		Camera:          camera.DefaultConfig(),
		Motion:          motion.DefaultConfig(),
		SerialBaud:      9600,
		Presence:        presence.DefaultConfig(),
		Trigger:         trigger.DefaultConfig(),
		Recognizer:      RecognizerMock,
		WebPort:         "8090",
		PreviewInterval: 500 * time.Millisecond,
	}
}

// LoadEnv applies environment overrides on top of the current values.
func (c *Config) LoadEnv() {
	c.Camera.DeviceID = config.EnvInt("BINSIGHT_CAMERA", c.Camera.DeviceID)
	c.SerialPort = config.Env("BINSIGHT_SERIAL", c.SerialPort)
	c.WebPort = config.Env("BINSIGHT_PORT", c.WebPort)
	c.RemoteURL = config.Env("BINSIGHT_API_URL", c.RemoteURL)
	c.RemoteKey = config.Env("BINSIGHT_API_KEY", c.RemoteKey)
	c.RemoteModel = config.Env("BINSIGHT_API_MODEL", c.RemoteModel)
	c.ModelPath = config.Env("BINSIGHT_MODEL", c.ModelPath)
	if mode := config.Env("BINSIGHT_RECOGNIZER", ""); mode != "" {
		c.Recognizer = RecognizerMode(mode)
	}

	c.Trigger.DetectionDelay = config.EnvDuration("BINSIGHT_DELAY", c.Trigger.DetectionDelay)
	c.Trigger.DebounceTime = config.EnvDuration("BINSIGHT_DEBOUNCE", c.Trigger.DebounceTime)
	c.Trigger.DetectionTimeout = config.EnvDuration("BINSIGHT_TIMEOUT", c.Trigger.DetectionTimeout)
	c.Trigger.DetectionCooldown = config.EnvDuration("BINSIGHT_COOLDOWN", c.Trigger.DetectionCooldown)
}

// Validate checks the assembled configuration.
func (c Config) Validate() error {
	if err := c.Camera.Validate(); err != nil {
		return err
	}
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	if err := c.Trigger.Validate(); err != nil {
		return err
	}
	switch c.Recognizer {
	case RecognizerRemote, RecognizerLocal, RecognizerMock:
	default:
		return fmt.Errorf("app: unknown recognizer mode %q", c.Recognizer)
	}
	if c.Recognizer == RecognizerRemote && c.RemoteURL == "" {
		return fmt.Errorf("app: remote recognizer requires BINSIGHT_API_URL")
	}
	if c.WebPort == "" {
		return fmt.Errorf("app: web port required")
	}
	return nil
}
