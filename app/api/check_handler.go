package api

import (
	"github.com/gofiber/fiber/v2"
)

type CheckHandler struct {
	service string
	version string
}

func NewCheckHandler(service, version string) *CheckHandler {
	return &CheckHandler{service: service, version: version}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": h.service,
		"version": h.version,
	})
}
