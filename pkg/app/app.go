package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/binsight/go-binsight/internal/log"
	"github.com/binsight/go-binsight/pkg/camera"
	"github.com/binsight/go-binsight/pkg/dispatch"
	"github.com/binsight/go-binsight/pkg/motion"
	"github.com/binsight/go-binsight/pkg/presence"
	"github.com/binsight/go-binsight/pkg/recognize"
	"github.com/binsight/go-binsight/pkg/trigger"
	"github.com/binsight/go-binsight/pkg/web"
)

// App owns every component for one running instance.
type App struct {
	cfg    Config
	logger *slog.Logger

	capture  *camera.Capture
	frames   camera.Source
	reader   camera.FrameReader
	detector *motion.Detector

	serial  *presence.SerialReader
	adapter *presence.Adapter

	recognizer recognize.Recognizer
	invoker    *recognize.Invoker
	dispatcher *dispatch.Dispatcher
	coord      *trigger.Coordinator
	web        *web.Server
}

// New validates the configuration. Call Init before Run.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{cfg: cfg, logger: log.Component("app")}, nil
}

// Init opens devices and assembles the pipeline.
func (a *App) Init() error {
	if err := a.initCamera(); err != nil {
		return fmt.Errorf("camera init: %w", err)
	}
	if err := a.initPresence(); err != nil {
		return fmt.Errorf("presence init: %w", err)
	}
	if err := a.initRecognizer(); err != nil {
		return fmt.Errorf("recognizer init: %w", err)
	}

	a.invoker = recognize.NewInvoker(a.recognizer, a.cfg.Trigger.DetectionTimeout)
	a.dispatcher = dispatch.New()
	a.dispatcher.Register(dispatch.SlogObserver())

	coord, err := trigger.New(a.cfg.Trigger, a.frames, a.invoker, a.dispatcher)
	if err != nil {
		return fmt.Errorf("trigger init: %w", err)
	}
	a.coord = coord

	a.web = web.NewServer(a.cfg.WebPort, a.coord, a.adapter)
	a.dispatcher.Register(a.web)
	return nil
}

func (a *App) initCamera() error {
	if a.cfg.SimulateCamera {
		a.logger.Warn("using simulated camera, motion detection disabled")
		a.frames = camera.NewMockSource([]byte("simulated-frame"))
		return nil
	}

	cam, err := camera.Open(a.cfg.Camera)
	if err != nil {
		return err
	}
	a.capture = cam
	a.frames = cam
	a.reader = cam

	det, err := motion.NewDetector(a.cfg.Motion)
	if err != nil {
		cam.Close()
		return err
	}
	a.detector = det
	return nil
}

func (a *App) initPresence() error {
	if a.cfg.SimulatePresence || a.cfg.SerialPort == "" {
		a.logger.Warn("using simulated presence sensor")
		a.adapter = presence.NewAdapter(presence.NewSimulatedReader(), a.cfg.Presence)
		return nil
	}

	ser, err := presence.OpenSerial(a.cfg.SerialPort, a.cfg.SerialBaud)
	if err != nil {
		return err
	}
	a.serial = ser
	a.adapter = presence.NewAdapter(ser, a.cfg.Presence)
	return nil
}

func (a *App) initRecognizer() error {
	switch a.cfg.Recognizer {
	case RecognizerRemote:
		rec, err := recognize.NewRemote(recognize.RemoteConfig{
			BaseURL: a.cfg.RemoteURL,
			APIKey:  a.cfg.RemoteKey,
			Model:   a.cfg.RemoteModel,
		})
		if err != nil {
			return err
		}
		a.recognizer = rec

	case RecognizerLocal:
		lcfg := recognize.DefaultLocalConfig()
		if a.cfg.ModelPath != "" {
			lcfg.ModelPath = a.cfg.ModelPath
		}
		rec, err := recognize.NewLocal(lcfg)
		if err != nil {
			return err
		}
		a.recognizer = rec

	case RecognizerMock:
		a.logger.Warn("using mock recognizer")
		a.recognizer = recognize.NewMock()
	}

	a.logger.Info("recognizer ready", "mode", a.cfg.Recognizer)
	return nil
}

// Run starts every component and blocks on the trigger coordinator
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.web.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("dashboard stopped", "error", err)
		}
	}()

	go a.adapter.Run(ctx, func(s presence.Signal) {
		a.coord.Offer(trigger.SourcePresence, s.Active, s.Timestamp)
	})

	if a.detector != nil && a.reader != nil {
		go func() {
			err := a.detector.Stream(ctx, a.reader, func(s motion.Signal) {
				a.coord.Offer(trigger.SourceMotion, s.Active, s.Timestamp)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("motion stream stopped", "error", err)
			}
		}()
		go a.streamPreview(ctx)
	}

	a.logger.Info("running", "port", a.cfg.WebPort)
	err := a.coord.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// streamPreview pushes throttled JPEG frames to dashboard subscribers.
func (a *App) streamPreview(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.PreviewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jpeg, err := a.frames.CaptureJPEG()
			if err != nil {
				continue
			}
			a.web.SendFrame(jpeg)
		}
	}
}

// Shutdown releases devices. Safe after a partial Init.
func (a *App) Shutdown() {
	if a.recognizer != nil {
		a.recognizer.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.capture != nil {
		a.capture.Close()
	}
	if a.serial != nil {
		a.serial.Close()
	}
	a.logger.Info("shutdown complete")
}
