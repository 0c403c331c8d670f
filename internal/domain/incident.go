package domain

import "time"

// IncidentStatus enumerates lifecycle states for incidents.
type IncidentStatus string

const (
	StatusPendiente     IncidentStatus = "pendiente"
	StatusEnProceso     IncidentStatus = "en_proceso"
	StatusEnSupervision IncidentStatus = "en_supervision"
	StatusAprobado      IncidentStatus = "aprobado"
	// StatusRechazado exists as a stored value for historical rows; rejection
	// in the current flow reopens the incident to en_proceso instead.
	StatusRechazado IncidentStatus = "rechazado"
	StatusDevuelto  IncidentStatus = "devuelto"
)

// StatusLabels maps each status to its display label. Owned here so no other
// layer re-derives label strings.
var StatusLabels = map[IncidentStatus]string{
	StatusPendiente:     "Pendiente",
	StatusEnProceso:     "En proceso",
	StatusEnSupervision: "En supervisión",
	StatusAprobado:      "Aprobado",
	StatusRechazado:     "Rechazado",
	StatusDevuelto:      "Devuelto",
}

// IsValid reports whether s is a declared status value.
func (s IncidentStatus) IsValid() bool {
	_, ok := StatusLabels[s]
	return ok
}

// IsTerminal reports whether no further transition leaves s.
func (s IncidentStatus) IsTerminal() bool {
	return s == StatusAprobado || s == StatusDevuelto || s == StatusRechazado
}

// Critical failure types weigh heaviest in the workstation risk score.
const (
	FailureTypePantalla = "pantalla"
	FailureTypeInternet = "internet"
)

// Incident is the aggregate for reported equipment failures.
type Incident struct {
	ID               string
	StationCode      string
	Sede             string
	Departamento     *string
	FailureType      string
	Description      string
	Status           IncidentStatus
	ReportedBy       string
	AssignedTo       *string
	TechnicianRating *int
	RatingFeedback   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
}

// SupervisionSince is the instant "time in supervision" is measured from.
func (i *Incident) SupervisionSince() time.Time {
	if i.ResolvedAt != nil {
		return *i.ResolvedAt
	}
	return i.UpdatedAt
}
