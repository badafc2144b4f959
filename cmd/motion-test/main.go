// motion-test runs the motion detector against a live camera and
// prints every signal transition, for tuning thresholds on site.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/binsight/go-binsight/internal/log"
	"github.com/binsight/go-binsight/pkg/camera"
	"github.com/binsight/go-binsight/pkg/motion"
)

func main() {
	device := flag.Int("camera", 0, "Capture device index")
	threshold := flag.Float64("threshold", 0, "Motion score threshold (0 = default)")
	minArea := flag.Float64("min-area", 0, "Minimum contour area (0 = default)")
	model := flag.String("model", "", "Background model: mog2 or knn (empty = default)")
	verbose := flag.Bool("verbose", false, "Print every signal, not just transitions")
	flag.Parse()

	log.Init("warn")

	camCfg := camera.DefaultConfig()
	camCfg.DeviceID = *device
	cam, err := camera.Open(camCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "camera: %v\n", err)
		os.Exit(1)
	}
	defer cam.Close()

	cfg := motion.DefaultConfig()
	if *threshold > 0 {
		cfg.MotionThreshold = *threshold
	}
	if *minArea > 0 {
		cfg.MinContourArea = *minArea
	}
	if *model != "" {
		cfg.Model = *model
	}

	det, err := motion.NewDetector(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "detector: %v\n", err)
		os.Exit(1)
	}
	defer det.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("watching device %d (threshold %.0f, min area %.0f, model %s)\n",
		*device, cfg.MotionThreshold, cfg.MinContourArea, cfg.Model)

	var lastActive bool
	err = det.Stream(ctx, cam, func(s motion.Signal) {
		if !*verbose && s.Active == lastActive {
			return
		}
		lastActive = s.Active
		state := "quiet"
		if s.Active {
			state = "MOTION"
		}
		fmt.Printf("%s  %s  score=%.0f area=%.0f\n",
			s.Timestamp.Format("15:04:05.000"), state, s.Score, s.BoundingRegionArea)
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "stream: %v\n", err)
		os.Exit(1)
	}
}
