package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/asiste-ing/incident-service/internal/domain"
	"github.com/asiste-ing/incident-service/internal/events"
	"github.com/asiste-ing/incident-service/internal/lifecycle"
	"github.com/asiste-ing/incident-service/internal/policy"
	"github.com/asiste-ing/incident-service/internal/repository"
	apperrors "github.com/asiste-ing/incident-service/pkg/util"
)

// Supervision-time filter buckets.
const (
	SupervisionHoy     = "hoy"
	SupervisionTresH   = "3horas"
	SupervisionSemana  = "semana"
	SupervisionMes     = "mes"
	supervisionWeek    = 7 * 24 * time.Hour
	supervisionMonth   = 30 * 24 * time.Hour
	supervisionMinHeld = 3 * time.Hour
)

// IncidentService coordinates incident workflows.
type IncidentService struct {
	incidents  repository.IncidentRepository
	history    repository.HistoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// IncidentDependencies bundles repositories for the incident service.
type IncidentDependencies struct {
	IncidentRepo repository.IncidentRepository
	HistoryRepo  repository.HistoryRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
}

// IncidentCreateInput describes the creation payload.
type IncidentCreateInput struct {
	StationCode  string
	Sede         string
	Departamento *string
	FailureType  string
	Description  string
}

// IncidentListFilter describes listing parameters, including the
// tiempo_supervision bucket.
type IncidentListFilter struct {
	Statuses        []domain.IncidentStatus
	Sede            *string
	Departamento    *string
	StationCode     *string
	ReportedBy      *string
	AssignedTo      *string
	CreatorRole     *domain.Role
	SupervisionTime string
	Limit           int
	Offset          int
}

// NewIncidentService constructs the service.
func NewIncidentService(deps IncidentDependencies) *IncidentService {
	return &IncidentService{
		incidents:  deps.IncidentRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateIncident reports a new equipment failure. The incident starts in
// pendiente and its creation is ledgered.
func (s *IncidentService) CreateIncident(ctx context.Context, actor *domain.User, input IncidentCreateInput) (*domain.Incident, error) {
	if !policy.CanCreate(actor.Role) {
		return nil, apperrors.NewPermissionDenied(policy.CapabilityCreate)
	}
	if strings.TrimSpace(input.StationCode) == "" || strings.TrimSpace(input.Sede) == "" ||
		strings.TrimSpace(input.FailureType) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("station_code, sede, failure_type and description required", nil)
	}

	incident := &domain.Incident{
		StationCode:  strings.TrimSpace(input.StationCode),
		Sede:         strings.TrimSpace(input.Sede),
		Departamento: policy.DepartmentForCreate(actor, input.Departamento),
		FailureType:  strings.TrimSpace(input.FailureType),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.StatusPendiente,
		ReportedBy:   actor.ID,
	}
	entry := &domain.HistoryEntry{
		Action:  domain.ActionReportado,
		UserID:  actor.ID,
		Details: incident.Description,
	}
	if err := s.incidents.Create(ctx, incident, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentCreated,
		IncidentID: incident.ID,
		ActorID:    actor.ID,
		Payload: events.IncidentCreatedPayload{
			StationCode:  incident.StationCode,
			Sede:         incident.Sede,
			Departamento: incident.Departamento,
			FailureType:  incident.FailureType,
		},
	})
	return incident, nil
}

// AssignTechnician moves a pendiente incident into en_proceso.
func (s *IncidentService) AssignTechnician(ctx context.Context, actor *domain.User, incidentID, technicianID string) (*domain.Incident, error) {
	technician, err := s.getUser(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, incidentID, func(incident domain.Incident) (domain.Incident, domain.HistoryEntry, error) {
		return lifecycle.Assign(incident, technician, actor)
	}, events.EventIncidentAssigned, actor, func(old, updated *domain.Incident) any {
		return events.AssignmentPayload{TechnicianID: technician.ID}
	})
}

// ReassignTechnician swaps the accountable technician, keeping status.
func (s *IncidentService) ReassignTechnician(ctx context.Context, actor *domain.User, incidentID, technicianID, reason string) (*domain.Incident, error) {
	technician, err := s.getUser(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, incidentID, func(incident domain.Incident) (domain.Incident, domain.HistoryEntry, error) {
		return lifecycle.Reassign(incident, technician, actor, reason)
	}, events.EventIncidentReassigned, actor, func(old, updated *domain.Incident) any {
		return events.AssignmentPayload{TechnicianID: technician.ID, Reason: reason}
	})
}

// Resolve marks the incident resolved and hands it to supervision.
func (s *IncidentService) Resolve(ctx context.Context, actor *domain.User, incidentID, notes string) (*domain.Incident, error) {
	return s.applyTransition(ctx, incidentID, func(incident domain.Incident) (domain.Incident, domain.HistoryEntry, error) {
		return lifecycle.Resolve(incident, actor, notes)
	}, events.EventIncidentResolved, actor, statusPayload(notes, nil))
}

// ReturnToCreator hands the incident back to its reporter. Terminal.
func (s *IncidentService) ReturnToCreator(ctx context.Context, actor *domain.User, incidentID, reason string) (*domain.Incident, error) {
	return s.applyTransition(ctx, incidentID, func(incident domain.Incident) (domain.Incident, domain.HistoryEntry, error) {
		return lifecycle.ReturnToCreator(incident, actor, reason)
	}, events.EventIncidentReturned, actor, statusPayload(reason, nil))
}

// Approve accepts the resolution, optionally rating the technician.
func (s *IncidentService) Approve(ctx context.Context, actor *domain.User, incidentID, notes string, rating int, feedback string) (*domain.Incident, error) {
	var ratingPtr *int
	if rating != 0 {
		ratingPtr = &rating
	}
	return s.applyTransition(ctx, incidentID, func(incident domain.Incident) (domain.Incident, domain.HistoryEntry, error) {
		return lifecycle.Approve(incident, actor, notes, rating, feedback)
	}, events.EventIncidentApproved, actor, statusPayload(notes, ratingPtr))
}

// Reject reopens a supervised incident back into en_proceso.
func (s *IncidentService) Reject(ctx context.Context, actor *domain.User, incidentID, reason string) (*domain.Incident, error) {
	return s.applyTransition(ctx, incidentID, func(incident domain.Incident) (domain.Incident, domain.HistoryEntry, error) {
		return lifecycle.Reject(incident, actor, reason)
	}, events.EventIncidentRejected, actor, statusPayload(reason, nil))
}

// GetIncident fetches an incident with its ledger, oldest entry first.
func (s *IncidentService) GetIncident(ctx context.Context, incidentID string) (*domain.Incident, []domain.HistoryEntry, error) {
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	history, err := s.history.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return incident, history, nil
}

// ListHistory returns the ledger for one incident, oldest first.
func (s *IncidentService) ListHistory(ctx context.Context, incidentID string) ([]domain.HistoryEntry, error) {
	if _, err := s.incidents.GetByID(ctx, incidentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
		}
		return nil, apperrors.MapError(err)
	}
	history, err := s.history.ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}

// ListIncidents returns incidents matching the filter.
func (s *IncidentService) ListIncidents(ctx context.Context, filter IncidentListFilter) ([]domain.Incident, error) {
	repoFilter := repository.IncidentFilter{
		Statuses:     filter.Statuses,
		Sede:         filter.Sede,
		Departamento: filter.Departamento,
		StationCode:  filter.StationCode,
		ReportedBy:   filter.ReportedBy,
		AssignedTo:   filter.AssignedTo,
		CreatorRole:  filter.CreatorRole,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if err := applySupervisionBucket(&repoFilter, filter.SupervisionTime, time.Now()); err != nil {
		return nil, err
	}
	result, err := s.incidents.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// applySupervisionBucket translates a tiempo_supervision bucket into filter
// cutoffs. Time in supervision runs from resolved_at (or updated_at when
// absent) to now.
func applySupervisionBucket(filter *repository.IncidentFilter, bucket string, now time.Time) error {
	switch bucket {
	case "":
		return nil
	case SupervisionHoy:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		filter.ResolvedSince = &start
	case SupervisionTresH:
		cutoff := now.Add(-supervisionMinHeld)
		filter.SupervisionBefore = &cutoff
	case SupervisionSemana:
		cutoff := now.Add(-supervisionWeek)
		filter.SupervisionBefore = &cutoff
	case SupervisionMes:
		cutoff := now.Add(-supervisionMonth)
		filter.SupervisionBefore = &cutoff
	default:
		return apperrors.NewValidationError("unknown tiempo_supervision bucket",
			map[string]any{"tiempo_supervision": bucket})
	}
	return nil
}

type transitionFunc func(domain.Incident) (domain.Incident, domain.HistoryEntry, error)

type payloadFunc func(old, updated *domain.Incident) any

// applyTransition is the shared load -> validate -> compare-and-swap path.
// The lifecycle step never mutates stored state; persistence is guarded by
// the status the incident had when loaded, so a concurrent transition makes
// exactly one caller win and the other fail with InvalidTransition.
func (s *IncidentService) applyTransition(ctx context.Context, incidentID string, step transitionFunc, eventType events.EventType, actor *domain.User, payload payloadFunc) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
		}
		return nil, apperrors.MapError(err)
	}

	expected := incident.Status
	updated, entry, err := step(*incident)
	if err != nil {
		return nil, err
	}

	if err := s.incidents.ApplyTransition(ctx, &updated, expected, &entry); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperrors.NewInvalidTransition(string(expected), "apply concurrent transition")
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       eventType,
		IncidentID: updated.ID,
		ActorID:    actor.ID,
		Payload:    payload(incident, &updated),
	})
	return &updated, nil
}

func (s *IncidentService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *IncidentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func statusPayload(details string, rating *int) payloadFunc {
	return func(old, updated *domain.Incident) any {
		return events.StatusChangedPayload{
			OldStatus: old.Status,
			NewStatus: updated.Status,
			Details:   details,
			Rating:    rating,
		}
	}
}
