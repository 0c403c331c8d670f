package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asiste-ing/incident-service/internal/domain"
	apperrors "github.com/asiste-ing/incident-service/pkg/util"
)

var (
	admin       = &domain.User{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin}
	coordinador = &domain.User{ID: "coord-1", Name: "Coordinadora", Role: domain.RoleCoordinador}
	technician  = &domain.User{ID: "tech-1", Name: "Técnico Uno", Role: domain.RoleTechnician}
	technician2 = &domain.User{ID: "tech-2", Name: "Técnico Dos", Role: domain.RoleTechnician}
)

func newIncident() domain.Incident {
	return domain.Incident{
		ID:          "inc-1",
		StationCode: "BOG-001",
		Sede:        "bogota",
		FailureType: "pantalla",
		Description: "pantalla no enciende",
		Status:      domain.StatusPendiente,
		ReportedBy:  coordinador.ID,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestFullApprovalFlow(t *testing.T) {
	incident := newIncident()

	incident, entry, err := Assign(incident, technician, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnProceso, incident.Status)
	require.NotNil(t, incident.AssignedTo)
	assert.Equal(t, technician.ID, *incident.AssignedTo)
	assert.Equal(t, domain.ActionAsignacion, entry.Action)

	incident, entry, err = Resolve(incident, technician, "se cambió la pantalla")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnSupervision, incident.Status)
	require.NotNil(t, incident.ResolvedAt)
	assert.Equal(t, domain.ActionResuelto, entry.Action)

	incident, entry, err = Approve(incident, coordinador, "buen trabajo", 5, "rápido")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAprobado, incident.Status)
	require.NotNil(t, incident.TechnicianRating)
	assert.Equal(t, 5, *incident.TechnicianRating)
	require.NotNil(t, entry.Rating)
	assert.Equal(t, 5, *entry.Rating)
	assert.Equal(t, domain.ActionAprobado, entry.Action)
}

func TestAssignRequiresPendiente(t *testing.T) {
	incident := newIncident()
	incident.Status = domain.StatusEnProceso

	_, _, err := Assign(incident, technician, admin)
	assertCode(t, err, "INVALID_TRANSITION")
}

func TestAssignRejectsNonTechnicianAssignee(t *testing.T) {
	_, _, err := Assign(newIncident(), coordinador, admin)
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestTechnicianSelfAssign(t *testing.T) {
	incident, _, err := Assign(newIncident(), technician, technician)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnProceso, incident.Status)

	// a technician cannot grab someone else's assignment
	_, _, err = Assign(newIncident(), technician2, technician)
	assertCode(t, err, "PERMISSION_DENIED")
}

func TestResolveOnlyByAssignee(t *testing.T) {
	incident, _, err := Assign(newIncident(), technician, admin)
	require.NoError(t, err)

	_, _, err = Resolve(incident, technician2, "")
	assertCode(t, err, "PERMISSION_DENIED")

	_, _, err = ReturnToCreator(incident, technician2, "no es mi equipo")
	assertCode(t, err, "PERMISSION_DENIED")
}

func TestResolveRequiresEnProceso(t *testing.T) {
	_, _, err := Resolve(newIncident(), technician, "")
	assertCode(t, err, "INVALID_TRANSITION")
}

func TestReturnRequiresReason(t *testing.T) {
	incident, _, err := Assign(newIncident(), technician, admin)
	require.NoError(t, err)

	_, _, err = ReturnToCreator(incident, technician, "   ")
	assertCode(t, err, "VALIDATION_FAILED")

	incident, entry, err := ReturnToCreator(incident, technician, "falta el repuesto")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDevuelto, incident.Status)
	assert.Equal(t, domain.ActionDevuelto, entry.Action)
	assert.Equal(t, "falta el repuesto", entry.Details)

	// devuelto is terminal
	_, _, err = Resolve(incident, technician, "")
	assertCode(t, err, "INVALID_TRANSITION")
	_, _, err = Reassign(incident, technician2, admin, "cambio")
	assertCode(t, err, "INVALID_TRANSITION")
}

func TestApproveRatingRules(t *testing.T) {
	supervised := func() domain.Incident {
		incident, _, err := Assign(newIncident(), technician, admin)
		require.NoError(t, err)
		incident, _, err = Resolve(incident, technician, "")
		require.NoError(t, err)
		return incident
	}

	// coordinador must rate
	_, _, err := Approve(supervised(), coordinador, "", 0, "")
	assertCode(t, err, "VALIDATION_FAILED")
	_, _, err = Approve(supervised(), coordinador, "", 6, "")
	assertCode(t, err, "VALIDATION_FAILED")

	for rating := 1; rating <= 5; rating++ {
		incident, _, err := Approve(supervised(), coordinador, "", rating, "")
		require.NoError(t, err, "rating %d", rating)
		require.NotNil(t, incident.TechnicianRating)
		assert.Equal(t, rating, *incident.TechnicianRating)
	}

	// admin approves without a rating and may not supply one
	incident, _, err := Approve(supervised(), admin, "ok", 0, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAprobado, incident.Status)
	assert.Nil(t, incident.TechnicianRating)

	_, _, err = Approve(supervised(), admin, "", 4, "")
	assertCode(t, err, "PERMISSION_DENIED")
}

func TestApproveOwnership(t *testing.T) {
	incident, _, err := Assign(newIncident(), technician, admin)
	require.NoError(t, err)
	incident, _, err = Resolve(incident, technician, "")
	require.NoError(t, err)

	jefe := &domain.User{ID: "jefe-1", Role: domain.RoleJefeOperaciones}
	_, _, err = Approve(incident, jefe, "", 0, "")
	assertCode(t, err, "PERMISSION_DENIED")

	_, _, err = Reject(incident, jefe, "mal hecho")
	assertCode(t, err, "PERMISSION_DENIED")
}

func TestRejectReopens(t *testing.T) {
	incident, _, err := Assign(newIncident(), technician, admin)
	require.NoError(t, err)
	incident, _, err = Resolve(incident, technician, "")
	require.NoError(t, err)

	_, _, err = Reject(incident, coordinador, "")
	assertCode(t, err, "VALIDATION_FAILED")

	incident, entry, err := Reject(incident, coordinador, "el fallo persiste")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnProceso, incident.Status)
	assert.Nil(t, incident.ResolvedAt)
	assert.Equal(t, domain.ActionRechazado, entry.Action)

	// the incident is resolvable again after reopening
	incident, _, err = Resolve(incident, technician, "segunda revisión")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnSupervision, incident.Status)
}

func TestRejectRequiresEnSupervision(t *testing.T) {
	_, _, err := Reject(newIncident(), admin, "motivo")
	assertCode(t, err, "INVALID_TRANSITION")
}

func TestReassignKeepsStatus(t *testing.T) {
	incident, _, err := Assign(newIncident(), technician, admin)
	require.NoError(t, err)

	incident, entry, err := Reassign(incident, technician2, admin, "vacaciones del técnico")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnProceso, incident.Status)
	require.NotNil(t, incident.AssignedTo)
	assert.Equal(t, technician2.ID, *incident.AssignedTo)
	assert.Equal(t, domain.ActionReasignacion, entry.Action)

	_, _, err = Reassign(incident, technician2, coordinador, "motivo")
	assertCode(t, err, "PERMISSION_DENIED")

	_, _, err = Reassign(incident, technician2, admin, "")
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestCanTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(domain.StatusPendiente, domain.StatusEnProceso))
	assert.True(t, CanTransition(domain.StatusEnProceso, domain.StatusEnSupervision))
	assert.True(t, CanTransition(domain.StatusEnProceso, domain.StatusDevuelto))
	assert.True(t, CanTransition(domain.StatusEnSupervision, domain.StatusAprobado))
	assert.True(t, CanTransition(domain.StatusEnSupervision, domain.StatusEnProceso))

	assert.False(t, CanTransition(domain.StatusPendiente, domain.StatusEnSupervision))
	assert.False(t, CanTransition(domain.StatusAprobado, domain.StatusEnProceso))
	assert.False(t, CanTransition(domain.StatusDevuelto, domain.StatusEnProceso))
	assert.False(t, CanTransition(domain.StatusRechazado, domain.StatusEnProceso))
}
