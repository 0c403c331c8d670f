package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/asiste-ing/incident-service/internal/api/dto"
	"github.com/asiste-ing/incident-service/internal/auth"
	"github.com/asiste-ing/incident-service/internal/domain"
	"github.com/asiste-ing/incident-service/internal/service"
	apperrors "github.com/asiste-ing/incident-service/pkg/util"
)

// IncidentsHandler manages incident endpoints.
type IncidentsHandler struct {
	service *service.IncidentService
}

// NewIncidentsHandler constructs the handler.
func NewIncidentsHandler(incidentService *service.IncidentService) *IncidentsHandler {
	return &IncidentsHandler{service: incidentService}
}

// Create POST /incidents.
func (h *IncidentsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	incident, err := h.service.CreateIncident(c.Context(), actor, service.IncidentCreateInput{
		StationCode:  req.StationCode,
		Sede:         req.Sede,
		Departamento: req.Departamento,
		FailureType:  req.FailureType,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewIncidentSummary(incident)})
}

// List GET /incidents.
func (h *IncidentsHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	incidents, err := h.service.ListIncidents(c.Context(), parseIncidentQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.IncidentSummary, 0, len(incidents))
	for i := range incidents {
		items = append(items, dto.NewIncidentSummary(&incidents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /incidents/:id.
func (h *IncidentsHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	incident, history, err := h.service.GetIncident(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentDetail(incident, history)})
}

// History GET /incidents/:id/history.
func (h *IncidentsHandler) History(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	history, err := h.service.ListHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	entries := make([]dto.HistoryEntryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.HistoryEntryResponse{
			ID:             entry.ID,
			Action:         string(entry.Action),
			UserID:         entry.UserID,
			Details:        entry.Details,
			Rating:         entry.Rating,
			RatingFeedback: entry.RatingFeedback,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Assign POST /incidents/:id/assign.
func (h *IncidentsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TechnicianID) == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	incident, err := h.service.AssignTechnician(c.Context(), actor, c.Params("id"), req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentSummary(incident)})
}

// Reassign POST /incidents/:id/reassign.
func (h *IncidentsHandler) Reassign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TechnicianID) == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	incident, err := h.service.ReassignTechnician(c.Context(), actor, c.Params("id"), req.TechnicianID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentSummary(incident)})
}

// Resolve POST /incidents/:id/resolve.
func (h *IncidentsHandler) Resolve(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.service.Resolve(c.Context(), actor, c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentSummary(incident)})
}

// Return POST /incidents/:id/return.
func (h *IncidentsHandler) Return(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.service.ReturnToCreator(c.Context(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentSummary(incident)})
}

// Approve POST /incidents/:id/approve.
func (h *IncidentsHandler) Approve(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.service.Approve(c.Context(), actor, c.Params("id"), req.Notes, req.Rating, req.Feedback)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentSummary(incident)})
}

// Reject POST /incidents/:id/reject.
func (h *IncidentsHandler) Reject(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.service.Reject(c.Context(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIncidentSummary(incident)})
}

func parseIncidentQuery(c *fiber.Ctx) service.IncidentListFilter {
	filter := service.IncidentListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.IncidentStatus(strings.TrimSpace(part)))
		}
	}
	if sede := c.Query("sede"); sede != "" {
		filter.Sede = &sede
	}
	if dept := c.Query("departamento"); dept != "" {
		filter.Departamento = &dept
	}
	if station := c.Query("station_code"); station != "" {
		filter.StationCode = &station
	}
	if reporter := c.Query("reported_by"); reporter != "" {
		filter.ReportedBy = &reporter
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if roleStr := c.Query("creador_rol"); roleStr != "" {
		role := domain.Role(roleStr)
		filter.CreatorRole = &role
	}
	filter.SupervisionTime = c.Query("tiempo_supervision")

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
