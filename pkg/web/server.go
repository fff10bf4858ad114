// Package web serves the monitoring dashboard: REST endpoints for
// session state and configuration, plus websocket feeds streaming
// detections and status as they happen.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/pathsight/go-pathsight/internal/journal"
	"github.com/pathsight/go-pathsight/pkg/hub"
	"github.com/pathsight/go-pathsight/pkg/pipeline"
)

// Server is the dashboard HTTP server.
type Server struct {
	app     *fiber.App
	addr    string
	logger  *slog.Logger
	session *pipeline.Session
	journal *journal.Journal

	detectionsHub *hub.Hub
	statusHub     *hub.Hub
}

// NewServer wires the dashboard for a session. The journal may be nil;
// the advisory history endpoint then returns empty lists.
func NewServer(addr string, session *pipeline.Session, j *journal.Journal, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "web")
	}
	s := &Server{
		addr:          addr,
		logger:        logger,
		session:       session,
		journal:       j,
		detectionsHub: hub.New("detections", logger),
		statusHub:     hub.New("status", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "pathsight dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Get("/frame", s.handleFrame)
	api.Get("/detections", s.handleDetections)
	api.Get("/advisories", s.handleAdvisories)
	api.Get("/config", s.handleGetConfig)
	api.Post("/config", s.handleSetConfig)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/detections", websocket.New(s.handleDetectionsWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and listens. Blocks until Shutdown.
func (s *Server) Start() error {
	go s.detectionsHub.Run()
	go s.statusHub.Run()
	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the server and disconnects feed clients.
func (s *Server) Shutdown() error {
	s.detectionsHub.Stop()
	s.statusHub.Stop()
	return s.app.Shutdown()
}

// PublishFrame pushes one applied frame to the detections feed. Wire as
// the session's OnFrame callback.
func (s *Server) PublishFrame(f pipeline.FrameEvent) {
	if err := s.detectionsHub.Publish(f); err != nil {
		s.logger.Warn("frame publish failed", "error", err)
	}
}

// PublishStatus pushes a status snapshot to the status feed. Wire as
// the session's OnStatus callback.
func (s *Server) PublishStatus(st pipeline.Status) {
	if err := s.statusHub.Publish(st); err != nil {
		s.logger.Warn("status publish failed", "error", err)
	}
}

func (s *Server) handleDetectionsWS(c *websocket.Conn) {
	client := hub.NewClient(s.detectionsHub, c)
	client.Run()
}

func (s *Server) handleStatusWS(c *websocket.Conn) {
	// New subscribers get the current state before the stream.
	c.WriteJSON(s.session.Status())
	client := hub.NewClient(s.statusHub, c)
	client.Run()
}
