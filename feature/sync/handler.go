package sync

import (
	"context"
	"errors"

	"visitor-sync/feature/access"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Runner triggers runs and exposes the last run report.
type Runner interface {
	RunOnce(ctx context.Context) (*Report, error)
	LastReport() *Report
}

// CacheAdmin is the administrative surface of the idempotency cache.
type CacheAdmin interface {
	ClearAppointments(ctx context.Context) error
}

// DestinationLister enumerates the destinations known to the access-control
// system, for checking the destination mapping against live data.
type DestinationLister interface {
	Destinations(ctx context.Context) ([]access.Destination, error)
}

// Handler exposes the operational HTTP endpoints.
type Handler struct {
	runner       Runner
	cache        CacheAdmin
	destinations DestinationLister
	log          *zap.Logger
}

// NewHandler creates the handler. destinations may be nil; the destinations
// endpoint then reports 503.
func NewHandler(runner Runner, cache CacheAdmin, destinations DestinationLister, log *zap.Logger) *Handler {
	return &Handler{runner: runner, cache: cache, destinations: destinations, log: log}
}

// RegisterRoutes registers all operational endpoints on the given router.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
	router.Get("/sync/report", h.HandleReport)
	router.Post("/sync/run", h.HandleRun)
	router.Delete("/cache/appointments", h.HandleClearAppointments)
	router.Get("/access/destinations", h.HandleDestinations)
}

// HandleHealth reports process liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleReport returns the most recent run report.
func (h *Handler) HandleReport(c *fiber.Ctx) error {
	report := h.runner.LastReport()
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no run has completed yet",
		})
	}
	return c.JSON(report)
}

// HandleRun triggers a reconciliation run and returns its report. The run is
// executed synchronously; overlapping triggers queue behind the active run.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	report, err := h.runner.RunOnce(c.Context())
	if err != nil {
		h.log.Error("Manual run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"report": report,
		})
	}
	return c.JSON(report)
}

// HandleClearAppointments wipes the appointment cache. Every known booking
// is re-processed on the next run, so this is strictly an administrative
// reset.
func (h *Handler) HandleClearAppointments(c *fiber.Ctx) error {
	if err := h.cache.ClearAppointments(c.Context()); err != nil {
		h.log.Error("Failed to clear appointment cache", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.log.Warn("Appointment cache cleared")
	return c.JSON(fiber.Map{"status": "cleared"})
}

// HandleDestinations lists the destinations the access-control system knows.
func (h *Handler) HandleDestinations(c *fiber.Ctx) error {
	if h.destinations == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "access client not configured",
		})
	}
	dests, err := h.destinations.Destinations(c.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		h.log.Error("Failed to list destinations", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"destinations": dests})
}
