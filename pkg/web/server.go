// Package web serves the monitoring dashboard and the operator API.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/binsight/go-binsight/internal/log"
	"github.com/binsight/go-binsight/pkg/dispatch"
	"github.com/binsight/go-binsight/pkg/hub"
	"github.com/binsight/go-binsight/pkg/trigger"
	"github.com/binsight/go-binsight/pkg/waste"
)

const (
	maxResults = 100
	maxLogs    = 500
)

// Status is the dashboard's aggregate state snapshot.
type Status struct {
	Trigger          trigger.View `json:"trigger"`
	PresenceDegraded bool         `json:"presence_degraded"`
	Subscribers      int          `json:"subscribers"`
	StartedAt        time.Time    `json:"started_at"`
}

// ResultEntry is one recognition outcome as shown to the operator.
type ResultEntry struct {
	Time       string         `json:"time"`
	RequestID  uint64         `json:"request_id"`
	CycleID    string         `json:"cycle_id"`
	Origin     string         `json:"origin"`
	Label      string         `json:"label,omitempty"`
	Category   waste.Category `json:"category,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Error      string         `json:"error,omitempty"`
	Guidance   waste.Info     `json:"guidance"`
}

// LogEntry is one dashboard log line.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// PresenceStatus reports sensor health to the dashboard.
type PresenceStatus interface {
	Degraded() bool
}

// Server hosts the HTTP API and the websocket feeds. It observes the
// dispatcher, so every completed cycle reaches connected clients live.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	coord    *trigger.Coordinator
	presence PresenceStatus

	resultsMu sync.RWMutex
	results   []ResultEntry

	logsMu sync.RWMutex
	logs   []LogEntry

	eventHub  *hub.Hub
	statusHub *hub.Hub
	cameraHub *hub.Hub

	startedAt time.Time
}

// NewServer wires the routes. presence may be nil when no hardware
// sensor is attached.
func NewServer(port string, coord *trigger.Coordinator, presence PresenceStatus) *Server {
	s := &Server{
		port:      port,
		logger:    log.Component("web"),
		coord:     coord,
		presence:  presence,
		results:   make([]ResultEntry, 0, maxResults),
		logs:      make([]LogEntry, 0, maxLogs),
		eventHub:  hub.New("events"),
		statusHub: hub.New("status"),
		cameraHub: hub.New("camera"),
		startedAt: time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "binsight dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/results", s.handleResults)
	api.Get("/categories", s.handleCategories)
	api.Get("/logs", s.handleLogs)
	api.Post("/trigger", s.handleForceTrigger)
	api.Post("/stop", s.handleManualStop)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(func(c *websocket.Conn) { s.eventHub.Serve(c) }))
	app.Get("/ws/status", websocket.New(func(c *websocket.Conn) { s.statusHub.Serve(c) }))
	app.Get("/ws/camera", websocket.New(func(c *websocket.Conn) { s.cameraHub.Serve(c) }))

	s.app = app
	return s
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.eventHub.Run(ctx)
	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.pushStatus(ctx)

	s.logger.Info("dashboard listening", "port", s.port)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listen(":" + s.port) }()

	select {
	case <-ctx.Done():
		s.app.Shutdown()
		return ctx.Err()
	case err := <-errc:
		return err
	}
}

// pushStatus broadcasts the aggregate status once a second while any
// subscriber is connected.
func (s *Server) pushStatus(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.statusHub.ClientCount() == 0 {
				continue
			}
			s.statusHub.BroadcastJSON(s.status())
		}
	}
}

func (s *Server) status() Status {
	st := Status{
		Trigger:     s.coord.Snapshot(),
		Subscribers: s.eventHub.ClientCount() + s.statusHub.ClientCount() + s.cameraHub.ClientCount(),
		StartedAt:   s.startedAt,
	}
	if s.presence != nil {
		st.PresenceDegraded = s.presence.Degraded()
	}
	return st
}

// HandleOutcome implements dispatch.Observer: records the outcome and
// pushes it to websocket subscribers.
func (s *Server) HandleOutcome(o dispatch.Outcome) {
	entry := ResultEntry{
		Time:      o.At.Format(time.RFC3339),
		RequestID: o.RequestID,
		CycleID:   o.CycleID.String(),
		Origin:    o.Origin,
		Guidance:  o.Guidance(),
	}
	if o.Failed() {
		entry.Error = o.Message
	} else {
		entry.Label = o.Label
		entry.Category = o.Category
		entry.Confidence = o.Confidence
	}

	s.resultsMu.Lock()
	s.results = append(s.results, entry)
	if len(s.results) > maxResults {
		s.results = s.results[1:]
	}
	s.resultsMu.Unlock()

	s.eventHub.BroadcastJSON(entry)

	if entry.Error != "" {
		s.AddLog("error", "cycle failed: "+entry.Error)
	} else {
		s.AddLog("info", "classified "+entry.Label+" as "+string(entry.Category))
	}
}

// SendFrame pushes a JPEG preview frame to camera subscribers.
func (s *Server) SendFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// AddLog records a dashboard log line.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()
}
