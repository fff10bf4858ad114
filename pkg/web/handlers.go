package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pathsight/go-pathsight/pkg/capture"
	"github.com/pathsight/go-pathsight/pkg/pipeline"
	"github.com/pathsight/go-pathsight/pkg/speech"
	"github.com/pathsight/go-pathsight/pkg/vision"
)

// handleHealth reports liveness and how many feed clients are
// connected.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":            "ok",
		"detection_clients": s.detectionsHub.ClientCount(),
		"status_clients":    s.statusHub.ClientCount(),
	})
}

// handleStatus returns the session status snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.session.Status())
}

// handleFrame returns the last captured frame as a data URL the
// dashboard can drop into an img tag.
func (s *Server) handleFrame(c *fiber.Ctx) error {
	jpeg := s.session.FrameJPEG()
	if len(jpeg) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no frame captured yet",
		})
	}
	return c.JSON(fiber.Map{"frame": capture.DataURL(jpeg)})
}

// handleDetections returns the last applied detection set.
func (s *Server) handleDetections(c *fiber.Ctx) error {
	return c.JSON(s.session.Objects())
}

// handleAdvisories returns recent spoken messages from the journal.
func (s *Server) handleAdvisories(c *fiber.Ctx) error {
	if s.journal == nil {
		return c.JSON([]speech.Message{})
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 200 {
		limit = 20
	}
	msgs, err := s.journal.RecentAdvisories(s.session.JournalID(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if msgs == nil {
		msgs = []speech.Message{}
	}
	return c.JSON(msgs)
}

// ConfigView is the dashboard's view of the session tunables.
type ConfigView struct {
	NavMode         string  `json:"nav_mode"`
	DetectionMode   string  `json:"detection_mode"`
	IntervalSeconds float64 `json:"interval_seconds"`
	Movement        string  `json:"movement"`
}

// handleGetConfig returns the current runtime configuration.
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	st := s.session.Status()
	return c.JSON(ConfigView{
		NavMode:         string(st.NavMode),
		DetectionMode:   string(st.DetectionMode),
		IntervalSeconds: st.Interval.Seconds(),
		Movement:        st.Movement,
	})
}

// ConfigUpdate carries the POST /api/config body. Omitted fields keep
// their current value.
type ConfigUpdate struct {
	NavMode         *string  `json:"nav_mode"`
	DetectionMode   *string  `json:"detection_mode"`
	IntervalSeconds *float64 `json:"interval_seconds"`
	Movement        *string  `json:"movement"`
}

// handleSetConfig applies runtime configuration changes.
func (s *Server) handleSetConfig(c *fiber.Ctx) error {
	var req ConfigUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body: " + err.Error(),
		})
	}

	if req.NavMode != nil {
		s.session.SetNavMode(pipeline.ParseNavMode(*req.NavMode))
	}
	if req.DetectionMode != nil {
		switch mode := vision.Mode(*req.DetectionMode); mode {
		case vision.Mode2D, vision.Mode3D, vision.ModePoints:
			s.session.SetDetectionMode(mode)
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown detection mode: " + *req.DetectionMode,
			})
		}
	}
	if req.IntervalSeconds != nil {
		s.session.SetInterval(time.Duration(*req.IntervalSeconds * float64(time.Second)))
	}
	if req.Movement != nil {
		s.session.SetMovement(*req.Movement)
	}

	return s.handleGetConfig(c)
}
