// Package lifecycle implements the incident state machine. Every function is
// a total validate-then-apply step: it checks status precondition, then
// authorization, then payload, and only then returns an updated copy of the
// incident together with the ledger entry describing the transition. Nothing
// is mutated on failure; persistence belongs to the caller.
package lifecycle

import (
	"strings"
	"time"

	"github.com/asiste-ing/incident-service/internal/domain"
	"github.com/asiste-ing/incident-service/internal/policy"
	apperrors "github.com/asiste-ing/incident-service/pkg/util"
)

var allowedTransitions = map[domain.IncidentStatus][]domain.IncidentStatus{
	domain.StatusPendiente:     {domain.StatusEnProceso},
	domain.StatusEnProceso:     {domain.StatusEnSupervision, domain.StatusDevuelto},
	domain.StatusEnSupervision: {domain.StatusAprobado, domain.StatusEnProceso},
	domain.StatusAprobado:      {},
	domain.StatusDevuelto:      {},
	domain.StatusRechazado:     {},
}

// CanTransition reports whether the state machine permits current -> next.
func CanTransition(current, next domain.IncidentStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Assign hands a pendiente incident to a technician and starts work.
func Assign(incident domain.Incident, technician, actor *domain.User) (domain.Incident, domain.HistoryEntry, error) {
	if incident.Status != domain.StatusPendiente {
		return incident, domain.HistoryEntry{}, apperrors.NewInvalidTransition(string(incident.Status), "assign")
	}
	if technician.Role != domain.RoleTechnician {
		return incident, domain.HistoryEntry{}, apperrors.NewValidationError("assignee must be a technician",
			map[string]any{"user_id": technician.ID, "role": string(technician.Role)})
	}
	if !policy.CanAssign(actor, &incident, technician.ID) {
		return incident, domain.HistoryEntry{}, apperrors.NewPermissionDenied(policy.CapabilityAssign)
	}

	now := time.Now()
	assignee := technician.ID
	incident.AssignedTo = &assignee
	incident.Status = domain.StatusEnProceso
	incident.UpdatedAt = now

	entry := domain.HistoryEntry{
		IncidentID: incident.ID,
		Action:     domain.ActionAsignacion,
		UserID:     actor.ID,
		Details:    "Técnico asignado: " + technician.Name,
		CreatedAt:  now,
	}
	return incident, entry, nil
}

// Reassign swaps the accountable technician without touching status. Admin
// only, while the incident is actionable (en_proceso or en_supervision).
func Reassign(incident domain.Incident, newTechnician, actor *domain.User, reason string) (domain.Incident, domain.HistoryEntry, error) {
	if incident.Status != domain.StatusEnProceso && incident.Status != domain.StatusEnSupervision {
		return incident, domain.HistoryEntry{}, apperrors.NewInvalidTransition(string(incident.Status), "reassign")
	}
	if !policy.CanReassign(actor) {
		return incident, domain.HistoryEntry{}, apperrors.NewPermissionDenied(policy.CapabilityReassign)
	}
	if newTechnician.Role != domain.RoleTechnician {
		return incident, domain.HistoryEntry{}, apperrors.NewValidationError("assignee must be a technician",
			map[string]any{"user_id": newTechnician.ID, "role": string(newTechnician.Role)})
	}
	if strings.TrimSpace(reason) == "" {
		return incident, domain.HistoryEntry{}, apperrors.NewValidationError("reason required", nil)
	}

	now := time.Now()
	assignee := newTechnician.ID
	incident.AssignedTo = &assignee
	incident.UpdatedAt = now

	entry := domain.HistoryEntry{
		IncidentID: incident.ID,
		Action:     domain.ActionReasignacion,
		UserID:     actor.ID,
		Details:    strings.TrimSpace(reason),
		CreatedAt:  now,
	}
	return incident, entry, nil
}

// Resolve marks in-progress work as done and parks the incident for
// supervision. Only the assigned technician may resolve; notes are optional.
func Resolve(incident domain.Incident, actor *domain.User, notes string) (domain.Incident, domain.HistoryEntry, error) {
	if incident.Status != domain.StatusEnProceso {
		return incident, domain.HistoryEntry{}, apperrors.NewInvalidTransition(string(incident.Status), "resolve")
	}
	if !policy.CanResolve(actor, &incident) {
		return incident, domain.HistoryEntry{}, apperrors.NewPermissionDenied(policy.CapabilityResolve)
	}

	now := time.Now()
	incident.Status = domain.StatusEnSupervision
	incident.ResolvedAt = &now
	incident.UpdatedAt = now

	entry := domain.HistoryEntry{
		IncidentID: incident.ID,
		Action:     domain.ActionResuelto,
		UserID:     actor.ID,
		Details:    strings.TrimSpace(notes),
		CreatedAt:  now,
	}
	return incident, entry, nil
}

// ReturnToCreator hands an in-progress incident back to whoever reported it.
// Terminal: no further transitions leave devuelto.
func ReturnToCreator(incident domain.Incident, actor *domain.User, reason string) (domain.Incident, domain.HistoryEntry, error) {
	if incident.Status != domain.StatusEnProceso {
		return incident, domain.HistoryEntry{}, apperrors.NewInvalidTransition(string(incident.Status), "return")
	}
	if !policy.CanReturn(actor, &incident) {
		return incident, domain.HistoryEntry{}, apperrors.NewPermissionDenied(policy.CapabilityReturn)
	}
	if strings.TrimSpace(reason) == "" {
		return incident, domain.HistoryEntry{}, apperrors.NewValidationError("reason required", nil)
	}

	now := time.Now()
	incident.Status = domain.StatusDevuelto
	incident.UpdatedAt = now

	entry := domain.HistoryEntry{
		IncidentID: incident.ID,
		Action:     domain.ActionDevuelto,
		UserID:     actor.ID,
		Details:    strings.TrimSpace(reason),
		CreatedAt:  now,
	}
	return incident, entry, nil
}

// Approve accepts a resolution under supervision. Coordinadores and
// administrativos must rate the technician (1..5); admins approve without a
// rating and may not supply one.
func Approve(incident domain.Incident, actor *domain.User, notes string, rating int, feedback string) (domain.Incident, domain.HistoryEntry, error) {
	if incident.Status != domain.StatusEnSupervision {
		return incident, domain.HistoryEntry{}, apperrors.NewInvalidTransition(string(incident.Status), "approve")
	}
	if !policy.CanApproveOrReject(actor, &incident) {
		return incident, domain.HistoryEntry{}, apperrors.NewPermissionDenied(policy.CapabilityApproveOrDeny)
	}
	if policy.RequiresRating(actor.Role) {
		if rating < 1 || rating > 5 {
			return incident, domain.HistoryEntry{}, apperrors.NewValidationError("technician rating must be between 1 and 5",
				map[string]any{"rating": rating})
		}
	} else if rating != 0 {
		return incident, domain.HistoryEntry{}, apperrors.NewPermissionDenied(policy.CapabilityRateTechnician)
	}

	now := time.Now()
	incident.Status = domain.StatusAprobado
	incident.UpdatedAt = now

	entry := domain.HistoryEntry{
		IncidentID: incident.ID,
		Action:     domain.ActionAprobado,
		UserID:     actor.ID,
		Details:    strings.TrimSpace(notes),
		CreatedAt:  now,
	}
	if policy.CanRate(actor.Role) {
		r := rating
		incident.TechnicianRating = &r
		entry.Rating = &r
		if trimmed := strings.TrimSpace(feedback); trimmed != "" {
			incident.RatingFeedback = &trimmed
			entry.RatingFeedback = &trimmed
		}
	}
	return incident, entry, nil
}

// Reject sends a supervised resolution back to work. The incident reopens in
// en_proceso for the same (or a later reassigned) technician.
func Reject(incident domain.Incident, actor *domain.User, reason string) (domain.Incident, domain.HistoryEntry, error) {
	if incident.Status != domain.StatusEnSupervision {
		return incident, domain.HistoryEntry{}, apperrors.NewInvalidTransition(string(incident.Status), "reject")
	}
	if !policy.CanApproveOrReject(actor, &incident) {
		return incident, domain.HistoryEntry{}, apperrors.NewPermissionDenied(policy.CapabilityApproveOrDeny)
	}
	if strings.TrimSpace(reason) == "" {
		return incident, domain.HistoryEntry{}, apperrors.NewValidationError("reason required", nil)
	}

	now := time.Now()
	incident.Status = domain.StatusEnProceso
	incident.ResolvedAt = nil
	incident.UpdatedAt = now

	entry := domain.HistoryEntry{
		IncidentID: incident.ID,
		Action:     domain.ActionRechazado,
		UserID:     actor.ID,
		Details:    strings.TrimSpace(reason),
		CreatedAt:  now,
	}
	return incident, entry, nil
}
