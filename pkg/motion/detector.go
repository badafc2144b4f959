package motion

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/binsight/go-binsight/internal/log"
)

// subtractor abstracts the two gocv background subtractor types.
type subtractor interface {
	Apply(src gocv.Mat, dst *gocv.Mat)
	Close() error
}

// Detector maintains a running background model and scores per-frame
// motion. A detector is bound to one frame stream for its lifetime and
// is not safe for concurrent use.
type Detector struct {
	cfg    Config
	logger *slog.Logger

	sub        subtractor
	kernel     gocv.Mat
	gray       gocv.Mat
	blurred    gocv.Mat
	fgMask     gocv.Mat
	binMask    gocv.Mat
	cleanMask  gocv.Mat
	brightness *brightnessTracker

	frames    int
	lastTS    time.Time
	closed    bool
	streaming bool
}

// NewDetector creates a motion detector with the given configuration.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		cfg:        cfg,
		logger:     log.Component("motion"),
		kernel:     gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(cfg.MorphKernel, cfg.MorphKernel)),
		gray:       gocv.NewMat(),
		blurred:    gocv.NewMat(),
		fgMask:     gocv.NewMat(),
		binMask:    gocv.NewMat(),
		cleanMask:  gocv.NewMat(),
		brightness: newBrightnessTracker(cfg.LightingJump),
	}
	d.sub = newSubtractor(cfg)

	d.logger.Info("motion detector ready",
		"model", cfg.Model,
		"threshold", cfg.MotionThreshold,
		"min_area", cfg.MinContourArea)
	return d, nil
}

func newSubtractor(cfg Config) subtractor {
	if cfg.Model == ModelKNN {
		s := gocv.NewBackgroundSubtractorKNNWithParams(cfg.History, cfg.Dist2Threshold, cfg.DetectShadows)
		return &s
	}
	s := gocv.NewBackgroundSubtractorMOG2WithParams(cfg.History, cfg.VarThreshold, cfg.DetectShadows)
	return &s
}

// Process scores one frame. The second return value is false when the
// frame was skipped (empty frame or lighting change); no signal is
// emitted for skipped frames.
func (d *Detector) Process(frame gocv.Mat, now time.Time) (Signal, bool) {
	if d.closed || frame.Empty() {
		return Signal{}, false
	}

	if frame.Channels() == 3 {
		gocv.CvtColor(frame, &d.gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&d.gray)
	}

	mean := d.gray.Mean().Val1
	if d.brightness.observe(mean) {
		d.logger.Debug("lighting change, frame skipped", "brightness", mean)
		return Signal{}, false
	}

	gocv.GaussianBlur(d.gray, &d.blurred,
		image.Pt(d.cfg.BlurKernel, d.cfg.BlurKernel), 0, 0, gocv.BorderDefault)

	d.sub.Apply(d.blurred, &d.fgMask)
	// Shadows are marked 127 by the subtractor; keep confident foreground only.
	gocv.Threshold(d.fgMask, &d.binMask, 200, 255, gocv.ThresholdBinary)
	gocv.MorphologyEx(d.binMask, &d.cleanMask, gocv.MorphOpen, d.kernel)
	gocv.MorphologyEx(d.cleanMask, &d.cleanMask, gocv.MorphClose, d.kernel)

	contours := gocv.FindContours(d.cleanMask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	areas := make([]float64, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		areas = append(areas, gocv.ContourArea(contours.At(i)))
	}
	contours.Close()

	score, largest := aggregateAreas(areas, d.cfg.MinContourArea)

	d.frames++
	if d.cfg.ResetAfter > 0 && d.frames >= d.cfg.ResetAfter {
		d.Reset()
	}

	return Signal{
		Score:              score,
		BoundingRegionArea: largest,
		Active:             score >= d.cfg.MotionThreshold,
		Timestamp:          d.stamp(now),
	}, true
}

// stamp keeps timestamps strictly increasing within the stream.
func (d *Detector) stamp(now time.Time) time.Time {
	if !now.After(d.lastTS) {
		now = d.lastTS.Add(time.Nanosecond)
	}
	d.lastTS = now
	return now
}

// Reset rebuilds the background model to flush accumulated drift.
// Used both periodically and to recover from detector faults; it is
// never surfaced as a user error.
func (d *Detector) Reset() {
	if d.closed {
		return
	}
	if err := d.sub.Close(); err != nil {
		d.logger.Warn("background model close failed", "error", err)
	}
	d.sub = newSubtractor(d.cfg)
	d.brightness.reset()
	d.frames = 0
	d.logger.Debug("background model reset")
}

// Close releases all OpenCV resources held by the detector.
func (d *Detector) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var firstErr error
	for _, c := range []interface{ Close() error }{d.sub} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, m := range []*gocv.Mat{&d.kernel, &d.gray, &d.blurred, &d.fgMask, &d.binMask, &d.cleanMask} {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("motion: close mat: %w", err)
		}
	}
	return firstErr
}
