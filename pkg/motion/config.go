// Package motion extracts motion signals from a camera frame stream
// using background subtraction.
package motion

import (
	"fmt"
	"time"
)

// Background model selection.
const (
	ModelMOG2 = "mog2"
	ModelKNN  = "knn"
)

// Config holds all tunable parameters for motion detection.
type Config struct {
	// Scoring
	MotionThreshold float64 // Signal is active when score >= this
	MinContourArea  float64 // Contours below this area are noise

	// Background model
	Model          string  // ModelMOG2 or ModelKNN
	History        int     // Frames of background history
	VarThreshold   float64 // MOG2 variance threshold
	Dist2Threshold float64 // KNN squared-distance threshold
	DetectShadows  bool    // Mark shadows in the foreground mask

	// Preprocessing
	BlurKernel   int     // Gaussian blur kernel size (odd)
	MorphKernel  int     // Morphological open/close kernel size
	LightingJump float64 // Mean-brightness delta treated as a lighting change

	// Drift control
	ResetAfter int // Rebuild the background model every N frames (0 = never)

	// Pacing
	FrameInterval time.Duration // Delay between processed frames in Stream
}

// DefaultConfig returns the recommended motion detection configuration.
func DefaultConfig() Config {
	return Config{
		MotionThreshold: 500,
		MinContourArea:  1000,

		Model:          ModelMOG2,
		History:        500,
		VarThreshold:   16,
		Dist2Threshold: 400,
		DetectShadows:  true,

		BlurKernel:   5,
		MorphKernel:  3,
		LightingJump: 15,

		ResetAfter: 18000, // roughly 20 minutes at 15 fps

		FrameInterval: 66 * time.Millisecond,
	}
}

// SensitiveConfig triggers on smaller movements, for dim or distant scenes.
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.MotionThreshold = 200
	cfg.MinContourArea = 400
	cfg.VarThreshold = 12
	return cfg
}

// ConservativeConfig requires larger movements, for busy backgrounds.
func ConservativeConfig() Config {
	cfg := DefaultConfig()
	cfg.MotionThreshold = 1200
	cfg.MinContourArea = 2000
	cfg.LightingJump = 10
	return cfg
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Model != ModelMOG2 && c.Model != ModelKNN {
		return fmt.Errorf("motion: unknown background model %q", c.Model)
	}
	if c.MinContourArea < 0 {
		return fmt.Errorf("motion: negative min contour area %f", c.MinContourArea)
	}
	if c.BlurKernel < 1 || c.BlurKernel%2 == 0 {
		return fmt.Errorf("motion: blur kernel must be odd and positive, got %d", c.BlurKernel)
	}
	if c.MorphKernel < 1 {
		return fmt.Errorf("motion: morph kernel must be positive, got %d", c.MorphKernel)
	}
	return nil
}
