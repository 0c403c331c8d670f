package domain

import "time"

// HistoryAction labels the transition recorded by a ledger entry.
type HistoryAction string

const (
	ActionReportado    HistoryAction = "Incidencia reportada"
	ActionAsignacion   HistoryAction = "Asignación de técnico"
	ActionReasignacion HistoryAction = "Reasignación de técnico"
	ActionResuelto     HistoryAction = "Marcado como resuelto"
	ActionDevuelto     HistoryAction = "Devuelto por técnico"
	ActionAprobado     HistoryAction = "Aprobado"
	ActionRechazado    HistoryAction = "Rechazado"
)

// HistoryEntry is an immutable audit trail record. Entries are never edited
// or deleted; corrections are appended as new entries.
type HistoryEntry struct {
	ID             string
	IncidentID     string
	Action         HistoryAction
	UserID         string
	Details        string
	Rating         *int
	RatingFeedback *string
	CreatedAt      time.Time
}
