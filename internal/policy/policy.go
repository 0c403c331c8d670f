// Package policy is the single authority for role-gated capabilities. Callers
// ask "may this actor do this" here and never re-derive authorization rules.
package policy

import "github.com/asiste-ing/incident-service/internal/domain"

// Capability names surfaced in PermissionDenied errors.
const (
	CapabilityCreate         = "create_incident"
	CapabilityAssign         = "assign_technician"
	CapabilityReassign       = "reassign_technician"
	CapabilityResolve        = "resolve_incident"
	CapabilityReturn         = "return_incident"
	CapabilityApproveOrDeny  = "approve_or_reject"
	CapabilityRateTechnician = "rate_technician"
)

// CanCreate reports whether the role may report incidents.
func CanCreate(role domain.Role) bool {
	switch role {
	case domain.RoleCoordinador, domain.RoleAdministrativo, domain.RoleJefeOperaciones, domain.RoleAdmin:
		return true
	}
	return false
}

// DepartmentForCreate resolves the departamento recorded on a new incident.
// A jefe_operaciones always reports against their own department; other
// creating roles keep the requested value.
func DepartmentForCreate(actor *domain.User, requested *string) *string {
	if actor.Role == domain.RoleJefeOperaciones {
		return actor.Departamento
	}
	return requested
}

// CanAssign reports whether actor may assign the incident to the given
// technician. Admins assign anyone; a technician may self-assign an
// unassigned pendiente incident.
func CanAssign(actor *domain.User, incident *domain.Incident, technicianID string) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if actor.Role == domain.RoleTechnician {
		return actor.ID == technicianID &&
			incident.AssignedTo == nil &&
			incident.Status == domain.StatusPendiente
	}
	return false
}

// CanReassign reports whether actor may move the incident to another
// technician. Admin only.
func CanReassign(actor *domain.User) bool {
	return actor.Role == domain.RoleAdmin
}

// CanResolve reports whether actor may mark the incident resolved: only the
// assigned technician, while work is in progress.
func CanResolve(actor *domain.User, incident *domain.Incident) bool {
	return incident.AssignedTo != nil &&
		*incident.AssignedTo == actor.ID &&
		incident.Status == domain.StatusEnProceso
}

// CanReturn shares the resolve guard: only the assigned technician may hand
// an in-progress incident back to its creator.
func CanReturn(actor *domain.User, incident *domain.Incident) bool {
	return CanResolve(actor, incident)
}

// CanApproveOrReject reports whether actor may supervise the resolution.
// Admins always may; coordinadores, administrativos and jefes de operaciones
// only for incidents they personally reported (a jefe_operaciones supervises
// the rest of their department without approval rights).
func CanApproveOrReject(actor *domain.User, incident *domain.Incident) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCoordinador, domain.RoleAdministrativo, domain.RoleJefeOperaciones:
		return incident.ReportedBy == actor.ID
	}
	return false
}

// CanRate reports whether the role writes technician ratings.
func CanRate(role domain.Role) bool {
	return role == domain.RoleCoordinador || role == domain.RoleAdministrativo
}

// RequiresRating reports whether an approval by this role must carry a
// rating. Mirrors CanRate: the roles that may rate, must.
func RequiresRating(role domain.Role) bool {
	return CanRate(role)
}
