package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asiste-ing/incident-service/internal/domain"
)

func user(id string, role domain.Role) *domain.User {
	dept := "claro"
	return &domain.User{ID: id, Role: role, Sede: "bogota", Departamento: &dept}
}

func pendingIncident(reportedBy string) *domain.Incident {
	return &domain.Incident{ID: "inc-1", Status: domain.StatusPendiente, ReportedBy: reportedBy}
}

func TestCanCreate(t *testing.T) {
	cases := []struct {
		role domain.Role
		want bool
	}{
		{domain.RoleAdmin, true},
		{domain.RoleCoordinador, true},
		{domain.RoleAdministrativo, true},
		{domain.RoleJefeOperaciones, true},
		{domain.RoleTechnician, false},
		{domain.RoleGestorActivos, false},
		{domain.RoleTecnicoInventario, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanCreate(tc.role), "role %s", tc.role)
	}
}

func TestDepartmentForCreate(t *testing.T) {
	requested := "obama"

	jefe := user("u1", domain.RoleJefeOperaciones)
	assert.Equal(t, jefe.Departamento, DepartmentForCreate(jefe, &requested),
		"jefe_operaciones reports against their own department")

	admin := user("u2", domain.RoleAdmin)
	assert.Equal(t, &requested, DepartmentForCreate(admin, &requested))

	coordinador := user("u3", domain.RoleCoordinador)
	assert.Equal(t, &requested, DepartmentForCreate(coordinador, &requested))
}

func TestCanAssign(t *testing.T) {
	incident := pendingIncident("creator")

	assert.True(t, CanAssign(user("a", domain.RoleAdmin), incident, "tech-1"))

	tech := user("tech-1", domain.RoleTechnician)
	assert.True(t, CanAssign(tech, incident, "tech-1"), "self-assign on unassigned pendiente")
	assert.False(t, CanAssign(tech, incident, "tech-2"), "technician cannot assign others")

	assigned := "tech-9"
	taken := &domain.Incident{Status: domain.StatusPendiente, AssignedTo: &assigned}
	assert.False(t, CanAssign(tech, taken, "tech-1"), "already assigned")

	inProgress := &domain.Incident{Status: domain.StatusEnProceso}
	assert.False(t, CanAssign(tech, inProgress, "tech-1"))

	assert.False(t, CanAssign(user("c", domain.RoleCoordinador), incident, "tech-1"))
}

func TestCanResolveAndReturn(t *testing.T) {
	assignee := "tech-1"
	incident := &domain.Incident{Status: domain.StatusEnProceso, AssignedTo: &assignee}

	assert.True(t, CanResolve(user("tech-1", domain.RoleTechnician), incident))
	assert.False(t, CanResolve(user("tech-2", domain.RoleTechnician), incident))
	assert.True(t, CanReturn(user("tech-1", domain.RoleTechnician), incident))
	assert.False(t, CanReturn(user("tech-2", domain.RoleTechnician), incident))

	pending := &domain.Incident{Status: domain.StatusPendiente, AssignedTo: &assignee}
	assert.False(t, CanResolve(user("tech-1", domain.RoleTechnician), pending))

	unassigned := &domain.Incident{Status: domain.StatusEnProceso}
	assert.False(t, CanResolve(user("tech-1", domain.RoleTechnician), unassigned))
}

func TestCanApproveOrReject(t *testing.T) {
	incident := &domain.Incident{Status: domain.StatusEnSupervision, ReportedBy: "creator"}

	assert.True(t, CanApproveOrReject(user("any", domain.RoleAdmin), incident))

	assert.True(t, CanApproveOrReject(user("creator", domain.RoleCoordinador), incident))
	assert.False(t, CanApproveOrReject(user("other", domain.RoleCoordinador), incident))

	assert.True(t, CanApproveOrReject(user("creator", domain.RoleJefeOperaciones), incident))
	assert.False(t, CanApproveOrReject(user("other", domain.RoleJefeOperaciones), incident),
		"jefe_operaciones only approves incidents they personally created")

	assert.True(t, CanApproveOrReject(user("creator", domain.RoleAdministrativo), incident))
	assert.False(t, CanApproveOrReject(user("creator", domain.RoleTechnician), incident))
}

func TestCanRate(t *testing.T) {
	assert.True(t, CanRate(domain.RoleCoordinador))
	assert.True(t, CanRate(domain.RoleAdministrativo))
	assert.False(t, CanRate(domain.RoleAdmin))
	assert.False(t, CanRate(domain.RoleJefeOperaciones))
	assert.False(t, CanRate(domain.RoleTechnician))

	assert.Equal(t, CanRate(domain.RoleCoordinador), RequiresRating(domain.RoleCoordinador))
	assert.Equal(t, CanRate(domain.RoleAdmin), RequiresRating(domain.RoleAdmin))
}
