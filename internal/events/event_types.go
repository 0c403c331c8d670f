package events

import (
	"time"

	"github.com/asiste-ing/incident-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentCreated    EventType = "incident_created"
	EventIncidentAssigned   EventType = "incident_assigned"
	EventIncidentReassigned EventType = "incident_reassigned"
	EventIncidentResolved   EventType = "incident_resolved"
	EventIncidentReturned   EventType = "incident_returned"
	EventIncidentApproved   EventType = "incident_approved"
	EventIncidentRejected   EventType = "incident_rejected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	IncidentID string      `json:"incident_id"`
	ActorID    string      `json:"actor_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// IncidentCreatedPayload payload.
type IncidentCreatedPayload struct {
	StationCode  string  `json:"station_code"`
	Sede         string  `json:"sede"`
	Departamento *string `json:"departamento,omitempty"`
	FailureType  string  `json:"failure_type"`
}

// StatusChangedPayload carries the transition for resolved/returned/
// approved/rejected events.
type StatusChangedPayload struct {
	OldStatus domain.IncidentStatus `json:"old_status"`
	NewStatus domain.IncidentStatus `json:"new_status"`
	Details   string                `json:"details,omitempty"`
	Rating    *int                  `json:"rating,omitempty"`
}

// AssignmentPayload payload for assigned/reassigned events.
type AssignmentPayload struct {
	TechnicianID string `json:"technician_id"`
	Reason       string `json:"reason,omitempty"`
}
