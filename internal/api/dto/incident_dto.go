package dto

import (
	"time"

	"github.com/asiste-ing/incident-service/internal/domain"
)

// CreateIncidentRequest payload.
type CreateIncidentRequest struct {
	StationCode  string  `json:"station_code"`
	Sede         string  `json:"sede"`
	Departamento *string `json:"departamento"`
	FailureType  string  `json:"failure_type"`
	Description  string  `json:"description"`
}

// AssignRequest payload.
type AssignRequest struct {
	TechnicianID string `json:"technician_id"`
}

// ReassignRequest payload.
type ReassignRequest struct {
	TechnicianID string `json:"technician_id"`
	Reason       string `json:"reason"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	Notes string `json:"notes"`
}

// ReasonRequest carries the mandatory reason for return/reject.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ApproveRequest payload. Rating is mandatory for coordinador/administrativo
// approvals, absent for admin ones.
type ApproveRequest struct {
	Notes    string `json:"notes"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// IncidentSummary response.
type IncidentSummary struct {
	ID           string                `json:"id"`
	StationCode  string                `json:"station_code"`
	Sede         string                `json:"sede"`
	Departamento *string               `json:"departamento"`
	FailureType  string                `json:"failure_type"`
	Status       domain.IncidentStatus `json:"status"`
	StatusLabel  string                `json:"status_label"`
	ReportedBy   string                `json:"reported_by"`
	AssignedTo   *string               `json:"assigned_to"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	ResolvedAt   *time.Time            `json:"resolved_at"`
}

// IncidentDetail response with ledger.
type IncidentDetail struct {
	IncidentSummary
	Description      string                 `json:"description"`
	TechnicianRating *int                   `json:"technician_rating"`
	RatingFeedback   *string                `json:"rating_feedback"`
	History          []HistoryEntryResponse `json:"history"`
}

// HistoryEntryResponse is one ledger row, oldest first in detail responses.
type HistoryEntryResponse struct {
	ID             string    `json:"id"`
	Action         string    `json:"action"`
	UserID         string    `json:"user_id"`
	Details        string    `json:"details"`
	Rating         *int      `json:"rating,omitempty"`
	RatingFeedback *string   `json:"rating_feedback,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewIncidentSummary maps a domain incident.
func NewIncidentSummary(incident *domain.Incident) IncidentSummary {
	return IncidentSummary{
		ID:           incident.ID,
		StationCode:  incident.StationCode,
		Sede:         incident.Sede,
		Departamento: incident.Departamento,
		FailureType:  incident.FailureType,
		Status:       incident.Status,
		StatusLabel:  domain.StatusLabels[incident.Status],
		ReportedBy:   incident.ReportedBy,
		AssignedTo:   incident.AssignedTo,
		CreatedAt:    incident.CreatedAt,
		UpdatedAt:    incident.UpdatedAt,
		ResolvedAt:   incident.ResolvedAt,
	}
}

// NewIncidentDetail maps a domain incident with its ledger.
func NewIncidentDetail(incident *domain.Incident, history []domain.HistoryEntry) IncidentDetail {
	entries := make([]HistoryEntryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, HistoryEntryResponse{
			ID:             entry.ID,
			Action:         string(entry.Action),
			UserID:         entry.UserID,
			Details:        entry.Details,
			Rating:         entry.Rating,
			RatingFeedback: entry.RatingFeedback,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return IncidentDetail{
		IncidentSummary:  NewIncidentSummary(incident),
		Description:      incident.Description,
		TechnicianRating: incident.TechnicianRating,
		RatingFeedback:   incident.RatingFeedback,
		History:          entries,
	}
}
