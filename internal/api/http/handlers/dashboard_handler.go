package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asiste-ing/incident-service/internal/service"
)

// DashboardHandler serves the aggregated dashboard views.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Cities GET /dashboard/cities.
func (h *DashboardHandler) Cities(c *fiber.Ctx) error {
	breakdown, err := h.service.CityBreakdown(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": breakdown})
}

// StationRisk GET /dashboard/stations/:code/risk.
func (h *DashboardHandler) StationRisk(c *fiber.Ctx) error {
	risk, err := h.service.GetStationRisk(c.Context(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": risk})
}

// StationRisks GET /dashboard/stations.
func (h *DashboardHandler) StationRisks(c *fiber.Ctx) error {
	risks, err := h.service.ListStationRisks(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": risks})
}

// TechnicianRanking GET /dashboard/technicians.
func (h *DashboardHandler) TechnicianRanking(c *fiber.Ctx) error {
	ranking, err := h.service.TechnicianRanking(c.Context())
	if err != nil {
		return err
	}
	items := make([]fiber.Map, 0, len(ranking))
	for _, row := range ranking {
		items = append(items, fiber.Map{
			"technician_id":  row.TechnicianID,
			"name":           row.Name,
			"approved_count": row.ApprovedCount,
			"average_rating": row.AverageRating,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
