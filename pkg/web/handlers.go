package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/binsight/go-binsight/pkg/waste"
)

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) handleResults(c *fiber.Ctx) error {
	s.resultsMu.RLock()
	defer s.resultsMu.RUnlock()
	return c.JSON(s.results)
}

func (s *Server) handleCategories(c *fiber.Ctx) error {
	return c.JSON(waste.All())
}

func (s *Server) handleLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleForceTrigger starts a capture immediately, bypassing the
// arming delay. Accepted means enqueued, not captured: the coordinator
// still refuses when a cycle is already running.
func (s *Server) handleForceTrigger(c *fiber.Ctx) error {
	s.coord.ForceTrigger()
	s.AddLog("info", "manual trigger requested")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (s *Server) handleManualStop(c *fiber.Ctx) error {
	s.coord.ManualStop()
	s.AddLog("info", "manual stop requested")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}
