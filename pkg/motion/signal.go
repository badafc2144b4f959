package motion

import "time"

// Signal is one motion measurement for a single frame.
type Signal struct {
	// Score is the aggregate foreground area of qualifying contours.
	Score float64

	// BoundingRegionArea is the area of the largest qualifying contour.
	BoundingRegionArea float64

	// Active reports whether Score crossed the motion threshold.
	Active bool

	// Timestamp is strictly increasing within one detector stream.
	Timestamp time.Time
}

// aggregateAreas sums contour areas at or above minArea and returns the
// total score and the largest single qualifying area.
func aggregateAreas(areas []float64, minArea float64) (score, largest float64) {
	for _, a := range areas {
		if a < minArea {
			continue
		}
		score += a
		if a > largest {
			largest = a
		}
	}
	return score, largest
}

// brightnessTracker detects sudden scene-wide lighting changes so a light
// switch does not register as motion.
type brightnessTracker struct {
	jump    float64
	history []float64
	maxLen  int
}

func newBrightnessTracker(jump float64) *brightnessTracker {
	return &brightnessTracker{jump: jump, maxLen: 10}
}

// observe records the frame's mean brightness and reports whether it
// represents a lighting change rather than motion.
func (b *brightnessTracker) observe(mean float64) bool {
	defer func() {
		b.history = append(b.history, mean)
		if len(b.history) > b.maxLen {
			b.history = b.history[1:]
		}
	}()

	if len(b.history) == 0 {
		return false
	}

	last := b.history[len(b.history)-1]
	if diff := mean - last; diff < 0 {
		return -diff > b.jump
	} else {
		return diff > b.jump
	}
}

// reset clears the brightness history, used after a background model reset.
func (b *brightnessTracker) reset() {
	b.history = b.history[:0]
}
