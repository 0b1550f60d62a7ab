package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Checker is a dependency checked by readiness.
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	checks      []Checker
}

// NewHealthHandler returns a new handler instance. With no checks the service is
// always ready, which is the in-memory mode.
func NewHealthHandler(serviceName, version string, checks ...Checker) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, checks: checks}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			depStatus[check.Name()] = err.Error()
			ready = false
			continue
		}
		depStatus[check.Name()] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
