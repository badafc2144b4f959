package motion

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/binsight/go-binsight/pkg/camera"
)

// ErrStreamRestarted is returned when Stream is called twice; a detector
// is bound to one frame source for its lifetime.
var ErrStreamRestarted = errors.New("motion: stream already started")

// consecutive read failures before the background model is rebuilt
const faultResetThreshold = 30

// Stream processes frames from the reader until ctx is cancelled,
// calling emit for every scored frame. Read failures are absorbed
// locally: after repeated failures the background model is rebuilt and
// reading continues.
func (d *Detector) Stream(ctx context.Context, frames camera.FrameReader, emit func(Signal)) error {
	if d.streaming {
		return ErrStreamRestarted
	}
	d.streaming = true

	frame := gocv.NewMat()
	defer frame.Close()

	ticker := time.NewTicker(d.cfg.FrameInterval)
	defer ticker.Stop()

	misses := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if ok := frames.Read(&frame); !ok {
			misses++
			if misses == faultResetThreshold {
				d.logger.Warn("frame source stalled, rebuilding background model",
					"misses", misses)
				d.Reset()
				misses = 0
			}
			continue
		}
		misses = 0

		if sig, ok := d.Process(frame, time.Now()); ok {
			emit(sig)
		}
	}
}
