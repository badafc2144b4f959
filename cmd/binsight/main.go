// binsight watches a waste bin with a camera and a presence sensor,
// classifies deposited items, and serves disposal guidance on a local
// dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/binsight/go-binsight/internal/config"
	"github.com/binsight/go-binsight/internal/log"
	"github.com/binsight/go-binsight/pkg/app"
)

func main() {
	godotenv.Load()

	cfg := parseFlags()
	log.Init(config.LogLevel())

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := a.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() app.Config {
	cfg := app.DefaultConfig()

	simCamera := flag.Bool("sim-camera", false, "Use a simulated camera instead of a capture device")
	simPresence := flag.Bool("sim-presence", false, "Use a simulated presence sensor instead of serial hardware")
	camera := flag.Int("camera", -1, "Capture device index (overrides BINSIGHT_CAMERA)")
	serial := flag.String("serial", "", "Presence sensor serial port (overrides BINSIGHT_SERIAL)")
	recognizer := flag.String("recognizer", "", "Recognizer backend: remote, local, mock (overrides BINSIGHT_RECOGNIZER)")
	port := flag.String("port", "", "Dashboard port (overrides BINSIGHT_PORT)")
	flag.Parse()

	cfg.SimulateCamera = *simCamera
	cfg.SimulatePresence = *simPresence

	// Env first, explicit flags win.
	cfg.LoadEnv()
	if *camera >= 0 {
		cfg.Camera.DeviceID = *camera
	}
	if *serial != "" {
		cfg.SerialPort = *serial
	}
	if *recognizer != "" {
		cfg.Recognizer = app.RecognizerMode(*recognizer)
	}
	if *port != "" {
		cfg.WebPort = *port
	}
	return cfg
}
