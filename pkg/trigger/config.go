// Package trigger fuses motion and presence signal streams and decides
// when to invoke recognition. One coordinator owns all trigger state:
// both producers feed a single ordered queue consumed serially, which
// is what makes "at most one request in flight" and "one outcome per
// cycle" structural rather than lock-protected.
package trigger

import (
	"fmt"
	"time"
)

// ArmPolicy selects how the two signal sources combine.
type ArmPolicy string

const (
	// ArmAny arms on either source alone (default).
	ArmAny ArmPolicy = "any"

	// ArmBoth requires both sources active before arming.
	ArmBoth ArmPolicy = "both"
)

// Config holds all coordinator timing parameters.
type Config struct {
	// DetectionDelay is how long the arming signal must stay active
	// before a capture is committed.
	DetectionDelay time.Duration

	// DebounceTime is the minimum stability below which raw sensor
	// transitions are never trusted. It is enforced through the arming
	// delay, so DetectionDelay must be at least DebounceTime.
	DebounceTime time.Duration

	// DetectionTimeout bounds how long a cycle waits for a result.
	DetectionTimeout time.Duration

	// DetectionCooldown is the mandatory idle window after each cycle.
	DetectionCooldown time.Duration

	// Policy selects OR or AND fusion of the two sources.
	Policy ArmPolicy

	// QueueSize bounds the inbound event queue.
	QueueSize int
}

// DefaultConfig returns the recommended coordinator configuration.
func DefaultConfig() Config {
	return Config{
		DetectionDelay:    500 * time.Millisecond,
		DebounceTime:      100 * time.Millisecond,
		DetectionTimeout:  10 * time.Second,
		DetectionCooldown: 3 * time.Second,
		Policy:            ArmAny,
		QueueSize:         256,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.DetectionDelay <= 0 {
		return fmt.Errorf("trigger: detection delay must be positive, got %v", c.DetectionDelay)
	}
	if c.DetectionDelay < c.DebounceTime {
		return fmt.Errorf("trigger: detection delay %v shorter than debounce %v",
			c.DetectionDelay, c.DebounceTime)
	}
	if c.DetectionTimeout <= 0 {
		return fmt.Errorf("trigger: detection timeout must be positive, got %v", c.DetectionTimeout)
	}
	if c.DetectionCooldown < 0 {
		return fmt.Errorf("trigger: negative cooldown %v", c.DetectionCooldown)
	}
	if c.Policy != ArmAny && c.Policy != ArmBoth {
		return fmt.Errorf("trigger: unknown arm policy %q", c.Policy)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("trigger: queue size must be positive, got %d", c.QueueSize)
	}
	return nil
}
